package http

import (
	"context"
)

// Context is the per-call state passed through the pipeline. It is created
// for a single Send and must not be shared between calls.
type Context struct {
	Request  *Request
	Response *Response

	ctx   context.Context
	items map[string]any
}

// NewContext wraps req for one pipeline invocation.
func NewContext(ctx context.Context, req *Request) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Request: req,
		ctx:     ctx,
		items:   make(map[string]any),
	}
}

// Context returns the cancellation context of the call.
func (c *Context) Context() context.Context {
	return c.ctx
}

// SetContext replaces the cancellation context, for example to add a
// deadline for the stages that follow.
func (c *Context) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

// Err reports whether the call has been cancelled.
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Set stores a value for later stages.
func (c *Context) Set(key string, value any) {
	c.items[key] = value
}

// Get returns a value stored by an earlier stage.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.items[key]
	return v, ok
}

// GetString returns a stored string value, or "" if absent or not a string.
func (c *Context) GetString(key string) string {
	v, _ := c.items[key].(string)
	return v
}
