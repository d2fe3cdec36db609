package mock

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_PathParams(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.Handle("GET", "/users/{id}", &MockResponse{
		StatusCode: 200,
		Body:       `{"id":"{{id}}"}`,
	}))
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/users/42")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"id":"42"}`, string(body))
}

func TestServer_NotFound(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}

func TestServer_RecordsGZipBody(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.Handle("POST", "/upload", &MockResponse{StatusCode: 204}))
	ts := httptest.NewServer(s)
	defer ts.Close()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("hello"))
	require.NoError(t, zw.Close())

	req, err := http.NewRequest("POST", ts.URL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	last, ok := s.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Body)
	assert.Equal(t, "/upload", last.Path)
	assert.Len(t, s.Requests(), 1)
}

func TestServer_OmitContentType(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.Handle("GET", "/raw", &MockResponse{Body: "<html></html>", OmitContentType: true}))
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/raw")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Content-Type"))
}

func TestLoadRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	content := strings.Join([]string{
		"routes:",
		"  - method: GET",
		"    path: /ping",
		"    response:",
		"      status: 200",
		"      contentType: text/plain",
		"      body: pong",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	routes, err := LoadRoutes(path)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/ping", routes[0].Path)
	assert.Equal(t, "pong", routes[0].Response.Body)

	s := NewServer()
	require.NoError(t, s.SetRoutes(routes))
	assert.Len(t, s.GetRoutes(), 1)
}

func TestSetRoutes_RejectsMissingResponse(t *testing.T) {
	s := NewServer()
	err := s.SetRoutes([]*Route{{Method: "GET", Path: "/x"}})
	assert.Error(t, err)
}
