package http

import (
	nethttp "net/http"
)

// Handler runs one step of the pipeline. Returning an error aborts the call.
type Handler func(hc *Context) error

// Middleware wraps the next handler in the chain. A stage may call next,
// set hc.Response and return without calling next, or return an error.
type Middleware func(next Handler) Handler

// Builder collects middleware in registration order.
type Builder struct {
	middlewares []Middleware
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Use appends mw. Stages registered first run first.
func (b *Builder) Use(mw Middleware) *Builder {
	if mw != nil {
		b.middlewares = append(b.middlewares, mw)
	}
	return b
}

// Len returns the number of registered stages.
func (b *Builder) Len() int {
	return len(b.middlewares)
}

// Build composes the registered stages around a terminal handler that
// answers 404 Not Found. The returned Handler is immutable and safe for
// concurrent use as long as the stages are.
func (b *Builder) Build() Handler {
	var h Handler = notFound
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		h = b.middlewares[i](h)
	}
	return h
}

func notFound(hc *Context) error {
	hc.Response = NewResponse(nethttp.StatusNotFound)
	hc.Response.Request = hc.Request
	return nil
}
