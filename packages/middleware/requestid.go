package middleware

import (
	"github.com/google/uuid"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

const (
	// DefaultRequestIDHeader is the header RequestID writes when none is given.
	DefaultRequestIDHeader = "X-Request-Id"
	// RequestIDKey is the Context item holding the request ID.
	RequestIDKey = "request_id"
)

// RequestID tags each call with a random UUID. A request that already
// carries the header keeps its value.
func RequestID(header string) httpc.Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			id, ok := hc.Request.Headers.Get(header)
			if !ok || id == "" {
				id = uuid.NewString()
				if err := hc.Request.SetHeader(header, id); err != nil {
					return err
				}
			}
			hc.Set(RequestIDKey, id)
			return next(hc)
		}
	}
}
