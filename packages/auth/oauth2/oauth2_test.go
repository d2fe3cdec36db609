package oauth2

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
	"github.com/abdul-hamid-achik/httpconnect/packages/mock"
)

func countPath(m *mock.Server, path string) int {
	n := 0
	for _, r := range m.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func newTokenServer(t *testing.T, routes ...*mock.Route) (*mock.Server, string) {
	t.Helper()
	m := mock.NewServer()
	require.NoError(t, m.SetRoutes(routes))
	ts := httptest.NewServer(m)
	t.Cleanup(ts.Close)
	return m, ts.URL
}

var tokenRoute = &mock.Route{
	Method: "POST",
	Path:   "/token",
	Response: &mock.MockResponse{
		StatusCode: 200,
		Body:       `{"access_token":"abc","token_type":"bearer","expires_in":3600,"refresh_token":"r1"}`,
	},
}

func TestProvider_ClientCredentials(t *testing.T) {
	m, url := newTokenServer(t, tokenRoute)

	p, err := NewProvider(&Config{
		TokenURL:     url + "/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Scopes:       []string{"read", "write"},
		GrantType:    ClientCredentials,
	}, nil)
	require.NoError(t, err)

	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "r1", token.RefreshToken)
	assert.False(t, token.ExpiresAt.IsZero())

	got, ok := m.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "grant_type=client_credentials&scope=read+write", got.Body)
	assert.Equal(t, "Basic aWQ6c2VjcmV0", got.Headers.Get("Authorization"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Headers.Get("Content-Type"))

	_, err = p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, countPath(m, "/token"), "second call must hit the cache")
}

func TestProvider_PasswordGrant(t *testing.T) {
	m, url := newTokenServer(t, tokenRoute)

	p, err := NewProvider(&Config{
		TokenURL:  url + "/token",
		GrantType: Password,
		Username:  "ada",
		Password:  "p@ss",
	}, nil)
	require.NoError(t, err)

	_, err = p.GetToken(context.Background())
	require.NoError(t, err)

	got, _ := m.LastRequest()
	assert.Equal(t, "grant_type=password&username=ada&password=p%40ss", got.Body)
	assert.Empty(t, got.Headers.Get("Authorization"))
}

func TestProvider_ErrorResponse(t *testing.T) {
	_, url := newTokenServer(t, &mock.Route{
		Method: "POST",
		Path:   "/token",
		Response: &mock.MockResponse{
			StatusCode: 400,
			Body:       `{"error":"invalid_client","error_description":"bad secret"}`,
		},
	})

	p, err := NewProvider(&Config{TokenURL: url + "/token"}, nil)
	require.NoError(t, err)

	_, err = p.GetToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client - bad secret")
}

func TestProvider_RefreshesExpiredToken(t *testing.T) {
	m, url := newTokenServer(t, tokenRoute)

	p, err := NewProvider(&Config{TokenURL: url + "/token"}, nil)
	require.NoError(t, err)
	now := time.Now()
	p.now = func() time.Time { return now }

	_, err = p.GetToken(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = p.GetToken(context.Background())
	require.NoError(t, err)

	got, _ := m.LastRequest()
	assert.Equal(t, "grant_type=refresh_token&refresh_token=r1", got.Body)
	assert.Equal(t, 2, countPath(m, "/token"))
}

func TestProvider_RequiresTokenURL(t *testing.T) {
	_, err := NewProvider(&Config{}, nil)
	assert.Error(t, err)
}

func TestProvider_Middleware(t *testing.T) {
	m, url := newTokenServer(t, tokenRoute,
		&mock.Route{Method: "GET", Path: "/data", Response: &mock.MockResponse{StatusCode: 200, Body: `[]`}},
		&mock.Route{Method: "GET", Path: "/denied", Response: &mock.MockResponse{StatusCode: 401}},
	)

	p, err := NewProvider(&Config{TokenURL: url + "/token"}, nil)
	require.NoError(t, err)

	client, err := httpc.NewClient(
		httpc.WithBaseURI(url),
		httpc.WithPipeline(func(b *httpc.Builder) {
			b.Use(p.Middleware())
			httpc.UseTransport(b, nil)
		}),
	)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/data")
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	got, _ := m.LastRequest()
	assert.Equal(t, "Bearer abc", got.Headers.Get("Authorization"))

	resp, err = client.Get(context.Background(), "/denied")
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, p.cache.Len())
}

func TestTokenCache(t *testing.T) {
	c := NewTokenCache()
	c.Set("k", &Token{AccessToken: "x"})
	assert.Equal(t, "x", c.Get("k").AccessToken)
	c.Delete("k")
	assert.Nil(t, c.Get("k"))
}

func TestToken_IsExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Token{}).IsExpired(now))
	assert.True(t, (&Token{ExpiresAt: now.Add(10 * time.Second)}).IsExpired(now))
	assert.False(t, (&Token{ExpiresAt: now.Add(time.Hour)}).IsExpired(now))
}
