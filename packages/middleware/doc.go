// Package middleware provides ready-made pipeline stages for httpconnect
// clients: logging, request IDs, default headers, timeouts, rate limiting,
// latency metrics, OpenTelemetry tracing, AWS Signature V4 signing and JSON
// schema validation of responses.
//
// Stages are registered on a pipeline builder before the transport:
//
//	client, err := http.NewClient(
//	    http.WithBaseURI("https://api.example.com"),
//	    http.WithPipeline(func(b *http.Builder) {
//	        b.Use(middleware.RequestID(""))
//	        b.Use(middleware.Logging(logger))
//	        b.Use(middleware.Timeout(5 * time.Second))
//	        http.UseTransport(b, nil)
//	    }),
//	)
package middleware
