package middleware

import (
	"fmt"

	"golang.org/x/time/rate"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// RateLimit holds each call until limiter grants a token. Waiting respects
// the call's context.
func RateLimit(limiter *rate.Limiter) httpc.Middleware {
	return func(next httpc.Handler) httpc.Handler {
		if limiter == nil {
			return next
		}
		return func(hc *httpc.Context) error {
			if err := limiter.Wait(hc.Context()); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
			return next(hc)
		}
	}
}

// NewLimiter returns a limiter allowing rps calls per second. A burst below
// one is raised to one; a non-positive rps yields nil (no limit).
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
