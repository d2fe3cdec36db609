// Package oauth2 acquires OAuth2 access tokens through an httpconnect
// client and attaches them to outgoing requests.
package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
	// RefreshToken is the refresh_token grant type
	RefreshToken GrantType = "refresh_token"
)

// expirySkew is subtracted from a token's lifetime to absorb clock skew.
const expirySkew = 30 * time.Second

// Config holds OAuth2 configuration
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired checks if the token is expired at now
func (t *Token) IsExpired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(expirySkew).After(t.ExpiresAt)
}

// Provider handles OAuth2 token acquisition
type Provider struct {
	config *Config
	client *httpc.Client
	cache  *TokenCache
	now    func() time.Time
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithCache shares a token cache between providers.
func WithCache(cache *TokenCache) ProviderOption {
	return func(p *Provider) {
		if cache != nil {
			p.cache = cache
		}
	}
}

// NewProvider creates a provider that requests tokens through client. A nil
// client gets a default httpconnect client.
func NewProvider(config *Config, client *httpc.Client, opts ...ProviderOption) (*Provider, error) {
	if config == nil || config.TokenURL == "" {
		return nil, fmt.Errorf("%w: oauth2 token url is required", errdefs.ErrInvalidArgument)
	}
	if client == nil {
		var err error
		if client, err = httpc.NewClient(); err != nil {
			return nil, err
		}
	}
	p := &Provider{
		config: config,
		client: client,
		cache:  NewTokenCache(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GetToken retrieves a valid access token, fetching a new one if necessary.
// An expired token with a refresh token is refreshed first.
func (p *Provider) GetToken(ctx context.Context) (*Token, error) {
	cacheKey := p.cacheKey()
	cached := p.cache.Get(cacheKey)
	if cached != nil && !cached.IsExpired(p.now()) {
		return cached, nil
	}

	var token *Token
	var err error
	if cached != nil && cached.RefreshToken != "" {
		token, err = p.RefreshAccessToken(ctx, cached.RefreshToken)
	}
	if token == nil {
		token, err = p.fetchToken(ctx)
	}
	if err != nil {
		return nil, err
	}

	p.cache.Set(cacheKey, token)
	return token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (p *Provider) Invalidate() {
	p.cache.Delete(p.cacheKey())
}

func (p *Provider) cacheKey() string {
	return fmt.Sprintf("%s:%s:%s", p.config.TokenURL, p.config.ClientID, strings.Join(p.config.Scopes, ","))
}

func (p *Provider) fetchToken(ctx context.Context) (*Token, error) {
	switch p.config.GrantType {
	case Password:
		return p.doTokenRequest(ctx, p.withScope(
			content.Pair{Key: "grant_type", Value: string(Password)},
			content.Pair{Key: "username", Value: p.config.Username},
			content.Pair{Key: "password", Value: p.config.Password},
		))
	default:
		return p.doTokenRequest(ctx, p.withScope(
			content.Pair{Key: "grant_type", Value: string(ClientCredentials)},
		))
	}
}

func (p *Provider) withScope(pairs ...content.Pair) []content.Pair {
	if len(p.config.Scopes) > 0 {
		pairs = append(pairs, content.Pair{Key: "scope", Value: strings.Join(p.config.Scopes, " ")})
	}
	return pairs
}

// RefreshAccessToken exchanges a refresh token for a new access token
func (p *Provider) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	return p.doTokenRequest(ctx, []content.Pair{
		{Key: "grant_type", Value: string(RefreshToken)},
		{Key: "refresh_token", Value: refreshToken},
	})
}

func (p *Provider) doTokenRequest(ctx context.Context, pairs []content.Pair) (*Token, error) {
	form, err := content.NewForm(pairs...)
	if err != nil {
		return nil, err
	}
	req, err := httpc.NewRequest(http.MethodPost, p.config.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetContent(form)

	accept, err := headers.NewAccept(headers.MediaTypeApplicationJSON)
	if err != nil {
		return nil, err
	}
	req.Headers.Set(accept)
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		auth, err := headers.NewBasicAuthorization(p.config.ClientID, p.config.ClientSecret)
		if err != nil {
			return nil, err
		}
		req.Headers.Set(auth)
	}

	resp, err := httpc.SendAs[Token](ctx, p.client, req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	if resp.Status == httpc.StatusError {
		return nil, fmt.Errorf("token request failed: %w", resp.Err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.Content != nil {
			if code := resp.Content.Query("error").String(); code != "" {
				return nil, fmt.Errorf("token request failed: %s - %s", code, resp.Content.Query("error_description").String())
			}
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, resp.Body())
	}

	token := resp.Data
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = p.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return &token, nil
}

// Middleware returns a stage that sets a bearer Authorization header on
// every request. A 401 answer drops the cached token.
func (p *Provider) Middleware() httpc.Middleware {
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			token, err := p.GetToken(hc.Context())
			if err != nil {
				return err
			}
			scheme := token.TokenType
			if scheme == "" || strings.EqualFold(scheme, "bearer") {
				scheme = "Bearer"
			}
			auth, err := headers.NewAuthorization(scheme, token.AccessToken)
			if err != nil {
				return err
			}
			hc.Request.Headers.Set(auth)

			err = next(hc)
			if hc.Response != nil && hc.Response.StatusCode == http.StatusUnauthorized {
				p.Invalidate()
			}
			return err
		}
	}
}
