package http

import (
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"github.com/containerd/errdefs"
)

// Request is an outgoing call. URI may be relative until the Client
// resolves it against its base URI.
type Request struct {
	Method  string
	URI     *neturl.URL
	Headers *headers.Headers
	Content content.Content
}

// NewRequest parses uri and creates a request for method.
func NewRequest(method, uri string) (*Request, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("%w: request uri cannot be empty", errdefs.ErrInvalidArgument)
	}
	u, err := neturl.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request uri: %v", errdefs.ErrInvalidArgument, err)
	}
	return NewRequestURL(method, u)
}

// NewRequestURL creates a request for an already parsed URI.
func NewRequestURL(method string, uri *neturl.URL) (*Request, error) {
	if uri == nil {
		return nil, fmt.Errorf("%w: request uri cannot be nil", errdefs.ErrInvalidArgument)
	}
	return &Request{
		Method:  method,
		URI:     uri,
		Headers: headers.New(),
	}, nil
}

// SetHeader adds or replaces a request header.
func (r *Request) SetHeader(name, value string) error {
	if r.Headers == nil {
		r.Headers = headers.New()
	}
	return r.Headers.Add(name, value)
}

// Header returns the value of a request header, or "" if absent.
func (r *Request) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// SetContent attaches a body to the request.
func (r *Request) SetContent(c content.Content) *Request {
	r.Content = c
	return r
}

// URL returns the request URI as a string.
func (r *Request) URL() string {
	if r.URI == nil {
		return ""
	}
	return r.URI.String()
}
