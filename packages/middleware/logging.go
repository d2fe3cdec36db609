package middleware

import (
	"log/slog"
	"time"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// Logging logs every call before and after the rest of the pipeline runs.
// A nil logger uses slog.Default().
func Logging(logger *slog.Logger) httpc.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			start := time.Now()
			attrs := []any{
				slog.String("method", hc.Request.Method),
				slog.String("uri", hc.Request.URL()),
			}
			if id := hc.GetString(RequestIDKey); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.Debug("request started", attrs...)

			err := next(hc)

			attrs = append(attrs, slog.Duration("duration", time.Since(start)))
			if hc.Response != nil {
				attrs = append(attrs, slog.Int("status", hc.Response.StatusCode))
			}
			if err != nil {
				logger.Warn("request failed", append(attrs, slog.Any("error", err))...)
				return err
			}
			logger.Info("request completed", attrs...)
			return nil
		}
	}
}
