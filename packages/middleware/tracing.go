package middleware

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

const tracerName = "github.com/abdul-hamid-achik/httpconnect/packages/middleware"

// TracingOption configures Tracing.
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
}

// WithTracerProvider sets the provider spans are created from. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) {
		c.provider = tp
	}
}

// WithPropagator sets the propagator that writes trace context into the
// request headers. Defaults to the global propagator.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(c *tracingConfig) {
		c.propagator = p
	}
}

// Tracing wraps the rest of the pipeline in a client span and injects the
// span context into the outgoing headers.
func Tracing(opts ...TracingOption) httpc.Middleware {
	cfg := tracingConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	if cfg.propagator == nil {
		cfg.propagator = otel.GetTextMapPropagator()
	}
	tracer := cfg.provider.Tracer(tracerName)

	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			parent := hc.Context()
			ctx, span := tracer.Start(parent, "HTTP "+hc.Request.Method,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", hc.Request.Method),
					attribute.String("url.full", hc.Request.URL()),
				),
			)
			defer span.End()

			cfg.propagator.Inject(ctx, headerCarrier{h: hc.Request.Headers})
			if id := hc.GetString(RequestIDKey); id != "" {
				span.SetAttributes(attribute.String("http.request.id", id))
			}

			hc.SetContext(ctx)
			err := next(hc)
			hc.SetContext(parent)

			if hc.Response != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", hc.Response.StatusCode))
				if hc.Response.StatusCode >= 500 {
					span.SetStatus(codes.Error, "server error")
				}
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}

// headerCarrier adapts a header store to propagation.TextMapCarrier.
type headerCarrier struct {
	h *headers.Headers
}

func (c headerCarrier) Get(key string) string {
	v, _ := c.h.Get(key)
	return v
}

func (c headerCarrier) Set(key, value string) {
	c.h.Set(headers.Header{Name: key, Value: value})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, c.h.Len())
	for h := range c.h.All() {
		keys = append(keys, h.Name)
	}
	return keys
}
