package mock

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route represents a mock route
type Route struct {
	Method   string        `yaml:"method"`
	Path     string        `yaml:"path"` // chi pattern, e.g. /users/{id}
	Name     string        `yaml:"name,omitempty"`
	Response *MockResponse `yaml:"response"`
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode  int               `yaml:"status"`
	ContentType string            `yaml:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
	// RawBody is written verbatim and takes precedence over Body. It lets
	// tests serve bytes in a non UTF-8 charset.
	RawBody []byte `yaml:"-"`
	// GZip compresses the body and sets Content-Encoding: gzip.
	GZip bool `yaml:"gzip,omitempty"`
	// OmitContentType suppresses the Content-Type header entirely.
	OmitContentType bool `yaml:"omitContentType,omitempty"`
}

// newRouter builds a chi router for routes. Path parameters written as
// {{name}} in a body are replaced with the matched value.
func newRouter(routes []*Route, handle func(route *Route) http.HandlerFunc) (chi.Router, error) {
	r := chi.NewRouter()
	for _, route := range routes {
		if route == nil || route.Response == nil {
			return nil, fmt.Errorf("route %q has no response", routeName(route))
		}
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if method == "" {
			method = http.MethodGet
		}
		r.Method(method, normalizePath(route.Path), handle(route))
	}
	return r, nil
}

func routeName(route *Route) string {
	if route == nil {
		return "<nil>"
	}
	if route.Name != "" {
		return route.Name
	}
	return route.Method + " " + route.Path
}

func normalizePath(path string) string {
	// Ensure path starts with /
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// Remove trailing slash (except for root)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

func resolveBodyParams(body string, r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return body
	}
	result := body
	for i, key := range rctx.URLParams.Keys {
		result = strings.ReplaceAll(result, "{{"+key+"}}", rctx.URLParams.Values[i])
	}
	return result
}
