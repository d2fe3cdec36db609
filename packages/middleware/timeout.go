package middleware

import (
	"context"
	"time"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// Timeout bounds the rest of the pipeline to d. A non-positive d disables it.
func Timeout(d time.Duration) httpc.Middleware {
	return func(next httpc.Handler) httpc.Handler {
		if d <= 0 {
			return next
		}
		return func(hc *httpc.Context) error {
			parent := hc.Context()
			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			hc.SetContext(ctx)
			defer hc.SetContext(parent)
			return next(hc)
		}
	}
}
