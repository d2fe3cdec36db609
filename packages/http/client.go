package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	neturl "net/url"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"github.com/containerd/errdefs"
)

// errNoResponse is captured when the pipeline finishes without any stage
// producing a response.
var errNoResponse = errors.New("pipeline completed without a response")

// Client sends requests through a pipeline of middleware. A Client is safe
// for concurrent use; every call gets its own Context.
type Client struct {
	baseURI    *neturl.URL
	pipeline   Handler
	serializer content.Serializer
	logger     *slog.Logger

	rawBaseURI string
	configure  func(*Builder)
	httpClient *nethttp.Client
	tracing    bool
}

type ClientOption func(*Client)

// NewClient builds a client. Without WithPipeline the pipeline holds a
// single transport stage backed by a pooled net/http client owned by this
// Client.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		serializer: content.DefaultSerializer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.rawBaseURI != "" {
		u, err := neturl.Parse(c.rawBaseURI)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base uri: %v", errdefs.ErrInvalidArgument, err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("%w: base uri must be absolute", errdefs.ErrInvalidArgument)
		}
		c.baseURI = u
	}

	configure := c.configure
	if configure == nil {
		configure = func(b *Builder) {
			httpClient := c.httpClient
			if httpClient == nil {
				httpClient = NewHTTPClient(c.tracing)
			}
			UseTransport(b, httpClient)
		}
	}

	b := NewBuilder()
	configure(b)
	c.pipeline = b.Build()

	return c, nil
}

// WithBaseURI sets the absolute URI relative request URIs resolve against.
func WithBaseURI(uri string) ClientOption {
	return func(c *Client) {
		c.rawBaseURI = uri
	}
}

// WithPipeline replaces the default pipeline. fn registers every stage,
// including the transport.
func WithPipeline(fn func(*Builder)) ClientOption {
	return func(c *Client) {
		c.configure = fn
	}
}

// WithSerializer sets the serializer used by SendAs and GetAs.
func WithSerializer(s content.Serializer) ClientOption {
	return func(c *Client) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithLogger sets the logger for captured pipeline faults.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets the net/http client used by the default pipeline.
func WithHTTPClient(hc *nethttp.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTracing wraps the default pipeline's transport with OpenTelemetry
// instrumentation. It has no effect together with WithHTTPClient.
func WithTracing(enabled bool) ClientOption {
	return func(c *Client) {
		c.tracing = enabled
	}
}

// BaseURI returns the configured base URI, or nil.
func (c *Client) BaseURI() *neturl.URL {
	return c.baseURI
}

// Serializer returns the serializer used for typed responses.
func (c *Client) Serializer() content.Serializer {
	return c.serializer
}

// Get sends a GET request for uri.
func (c *Client) Get(ctx context.Context, uri string) (*Response, error) {
	req, err := NewRequest(nethttp.MethodGet, uri)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, req)
}

// Send runs req through the pipeline. The error return is reserved for
// misuse; every pipeline failure is reported on the Response instead.
//
// Send never returns a nil Response with a nil error. A pipeline that
// completes without any stage setting a Response yields an Error response
// that reports the missing response, rather than passing a nil Response
// through.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", errdefs.ErrInvalidArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.prepareRequest(req); err != nil {
		return nil, err
	}

	hc := NewContext(ctx, req)

	err := c.invoke(hc)
	if err == nil && hc.Response == nil {
		err = errNoResponse
	}
	if err != nil {
		if hc.Response == nil {
			hc.Response = &Response{Headers: headers.New(), Request: req}
		}
		hc.Response.SetError(err)
		c.logger.Debug("pipeline fault captured",
			slog.String("method", req.Method),
			slog.String("uri", req.URL()),
			slog.Int("status", hc.Response.StatusCode),
			slog.Any("error", err),
		)
	}

	return hc.Response, nil
}

func (c *Client) invoke(hc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return c.pipeline(hc)
}

// prepareRequest resolves a relative request URI against the base URI.
func (c *Client) prepareRequest(req *Request) error {
	if req.URI == nil {
		return fmt.Errorf("%w: request uri cannot be nil", errdefs.ErrInvalidArgument)
	}
	if req.Headers == nil {
		req.Headers = headers.New()
	}
	if req.URI.IsAbs() {
		return nil
	}
	if c.baseURI == nil {
		return fmt.Errorf("%w: an invalid request uri was provided, the request uri must either be absolute or a base uri must be set", errdefs.ErrFailedPrecondition)
	}
	req.URI = c.baseURI.ResolveReference(req.URI)
	return nil
}

// SendAs sends req and decodes a successful body into a T. Unsuccessful
// responses are returned unchanged with a zero Data; a decoding failure
// marks only the typed response as failed.
func SendAs[T any](ctx context.Context, c *Client, req *Request) (*TypedResponse[T], error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	typed := newTypedResponse[T](resp)
	if !resp.IsSuccess() {
		return typed, nil
	}

	data, err := deserialize[T](resp.Content, c.serializer)
	if err != nil {
		typed.SetError(err)
		c.logger.Debug("deserialization fault captured",
			slog.String("uri", req.URL()),
			slog.String("content_type", typed.contentType()),
			slog.Any("error", err),
		)
		return typed, nil
	}
	typed.Data = data
	return typed, nil
}

// GetAs sends a GET request for uri and decodes the body into a T.
func GetAs[T any](ctx context.Context, c *Client, uri string) (*TypedResponse[T], error) {
	req, err := NewRequest(nethttp.MethodGet, uri)
	if err != nil {
		return nil, err
	}
	return SendAs[T](ctx, c, req)
}

func deserialize[T any](rc *content.ResponseContent, s content.Serializer) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out, err = zero, fmt.Errorf("deserialize panic: %v", r)
		}
	}()
	return content.Deserialize[T](rc, s)
}

func (r *Response) contentType() string {
	if r.Content == nil {
		return ""
	}
	return r.Content.ContentType()
}
