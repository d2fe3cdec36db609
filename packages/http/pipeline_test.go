package http

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracer(name string, calls *[]string) Middleware {
	return func(next Handler) Handler {
		return func(hc *Context) error {
			*calls = append(*calls, name+":before")
			err := next(hc)
			*calls = append(*calls, name+":after")
			return err
		}
	}
}

func TestBuilder_RunsInRegistrationOrder(t *testing.T) {
	var calls []string
	h := NewBuilder().
		Use(tracer("a", &calls)).
		Use(tracer("b", &calls)).
		Build()

	hc := NewContext(context.Background(), &Request{Method: "GET"})
	require.NoError(t, h(hc))

	assert.Equal(t, []string{"a:before", "b:before", "b:after", "a:after"}, calls)
	require.NotNil(t, hc.Response)
	assert.Equal(t, 404, hc.Response.StatusCode)
	assert.Equal(t, StatusCompleted, hc.Response.Status)
}

func TestBuilder_EmptyAnswersNotFound(t *testing.T) {
	req := &Request{Method: "GET"}
	hc := NewContext(context.Background(), req)
	require.NoError(t, NewBuilder().Build()(hc))

	assert.Equal(t, 404, hc.Response.StatusCode)
	assert.Same(t, req, hc.Response.Request)
}

func TestBuilder_ShortCircuit(t *testing.T) {
	var calls []string
	h := NewBuilder().
		Use(func(next Handler) Handler {
			return func(hc *Context) error {
				hc.Response = NewResponse(200)
				return nil
			}
		}).
		Use(tracer("never", &calls)).
		Build()

	hc := NewContext(context.Background(), &Request{})
	require.NoError(t, h(hc))
	assert.Equal(t, 200, hc.Response.StatusCode)
	assert.Empty(t, calls)
}

func TestBuilder_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	h := NewBuilder().
		Use(tracer("outer", &calls)).
		Use(func(Handler) Handler {
			return func(*Context) error { return boom }
		}).
		Build()

	err := h(NewContext(context.Background(), &Request{}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"outer:before", "outer:after"}, calls)
}

func TestBuilder_IgnoresNil(t *testing.T) {
	b := NewBuilder().Use(nil)
	assert.Equal(t, 0, b.Len())
}

func TestContext_Items(t *testing.T) {
	hc := NewContext(nil, &Request{})
	require.NotNil(t, hc.Context())

	hc.Set("id", "abc")
	hc.Set("n", 3)
	assert.Equal(t, "abc", hc.GetString("id"))
	assert.Equal(t, "", hc.GetString("n"))
	v, ok := hc.Get("n")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestContext_SetContext(t *testing.T) {
	hc := NewContext(context.Background(), &Request{})
	ctx, cancel := context.WithCancel(context.Background())
	hc.SetContext(ctx)
	cancel()
	assert.ErrorIs(t, hc.Err(), context.Canceled)

	hc.SetContext(nil)
	assert.Equal(t, ctx, hc.Context())
}
