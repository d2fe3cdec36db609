// Package http provides the httpconnect client: a request/response model,
// a per-call Context and a pipeline of middleware stages that ends in a
// network transport.
//
// A Client is built from an ordered list of Middleware registered on a
// Builder. The first registered stage runs first and wraps all the others:
//
//	client, err := http.NewClient(
//		http.WithBaseURI("https://api.example.com"),
//		http.WithPipeline(func(b *http.Builder) {
//			b.Use(middleware.RequestID(""))
//			http.UseTransport(b, nil)
//		}),
//	)
//
// Send never returns a stage failure as an error. Failures anywhere in the
// chain are captured on the returned Response (Status == StatusError, Err
// set) so callers check a single place. Only misuse, such as a nil request,
// a relative URI without a base URI, or an already cancelled context, is
// reported through the error return.
//
// SendAs and GetAs additionally decode a successful response body into a
// typed value; decoding failures are captured the same way.
package http
