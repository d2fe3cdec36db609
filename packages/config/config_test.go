package config

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/httpconnect/packages/mock"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "httpconnect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "X-Request-Id", cfg.RequestIDHeader)
	assert.Equal(t, 100, cfg.MaxIdleConns)
	assert.False(t, cfg.Tracing)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_uri: https://api.example.com
timeout: 5s
user_agent: svc/2.0
rate_limit: 10
burst: 3
headers:
  Accept: application/json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURI)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "svc/2.0", cfg.UserAgent)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 3, cfg.Burst)
	assert.Equal(t, "application/json", cfg.Headers["Accept"])
	assert.Equal(t, 10, cfg.MaxIdleConnsPerHost, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "base_uri: https://file.example.com\ntimeout: 5s\n")
	t.Setenv("HTTPCONNECT_BASE_URI", "https://env.example.com")
	t.Setenv("HTTPCONNECT_TIMEOUT", "2s")
	t.Setenv("HTTPCONNECT_TRACING", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURI)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.Tracing)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "timeout: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers["A"] = "1"

	merged := base.Merge(&Config{
		BaseURI: "https://x.example.com",
		Headers: map[string]string{"B": "2"},
	})

	assert.Equal(t, "https://x.example.com", merged.BaseURI)
	assert.Equal(t, base.Timeout, merged.Timeout)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers, "merge must not modify the receiver")
	assert.Equal(t, base.BaseURI, base.Merge(nil).BaseURI)
}

func TestClientOptions_Pipeline(t *testing.T) {
	m := mock.NewServer()
	require.NoError(t, m.Handle("GET", "/ping", &mock.MockResponse{StatusCode: 200, Body: `{"ok":true}`}))
	ts := httptest.NewServer(m)
	defer ts.Close()

	cfg := DefaultConfig().Merge(&Config{
		BaseURI:   ts.URL,
		UserAgent: "svc/test",
		Headers:   map[string]string{"X-Team": "core"},
	})
	client, err := cfg.NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/ping")
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())

	got, ok := m.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "svc/test", got.Headers.Get("User-Agent"))
	assert.Equal(t, "core", got.Headers.Get("X-Team"))
	assert.NotEmpty(t, got.Headers.Get("X-Request-Id"))
}

func TestClientOptions_RejectsBlankHeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Headers[" "] = "x"
	_, err := cfg.ClientOptions(nil)
	assert.Error(t, err)
}
