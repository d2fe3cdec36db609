package middleware

import (
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// DefaultHeaders adds every header in defaults that the request does not
// already set.
func DefaultHeaders(defaults *headers.Headers) httpc.Middleware {
	defaults = defaults.Clone()
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			for h := range defaults.All() {
				if !hc.Request.Headers.Has(h.Name) {
					hc.Request.Headers.Set(h)
				}
			}
			return next(hc)
		}
	}
}

// UserAgent sets the User-Agent header unless the request has one.
func UserAgent(ua string) httpc.Middleware {
	h := headers.New()
	if ua != "" {
		h.Set(headers.Header{Name: "User-Agent", Value: ua})
	}
	return DefaultHeaders(h)
}
