package http

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"slices"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// PoolConfig tunes the connection pool of NewPooledHTTPClient.
type PoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	Tracing             bool
}

// NewHTTPClient returns a net/http client with the default pool settings.
// No timeout is set; callers bound calls through the context.
func NewHTTPClient(tracing bool) *nethttp.Client {
	return NewPooledHTTPClient(PoolConfig{Tracing: tracing})
}

// NewPooledHTTPClient returns a net/http client with its own connection pool.
// Zero fields fall back to the defaults.
func NewPooledHTTPClient(cfg PoolConfig) *nethttp.Client {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = DefaultIdleConnTimeout
	}

	var rt nethttp.RoundTripper = &nethttp.Transport{
		Proxy:               nethttp.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	if cfg.Tracing {
		rt = otelhttp.NewTransport(rt)
	}
	return &nethttp.Client{Transport: rt}
}

// Transport is the terminal pipeline stage that performs the network call.
// It is safe for concurrent use when its net/http client is.
type Transport struct {
	client *nethttp.Client
}

// NewTransport creates a transport stage. A nil client gets a fresh pooled one.
func NewTransport(client *nethttp.Client) *Transport {
	if client == nil {
		client = NewHTTPClient(false)
	}
	return &Transport{client: client}
}

// UseTransport registers a transport stage on b.
func UseTransport(b *Builder, client *nethttp.Client) *Builder {
	return b.Use(NewTransport(client).Middleware())
}

// Middleware returns the transport as a terminal stage; it never calls next.
func (t *Transport) Middleware() Middleware {
	return func(Handler) Handler {
		return t.Invoke
	}
}

// Invoke sends hc.Request over the network and stores the result in hc.Response.
func (t *Transport) Invoke(hc *Context) error {
	if err := hc.Err(); err != nil {
		return fmt.Errorf("request aborted: %w", err)
	}

	httpReq, err := buildHTTPRequest(hc)
	if err != nil {
		return err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", httpReq.Method, hc.Request.URL(), err)
	}
	defer httpResp.Body.Close()

	resp, err := buildResponse(httpResp)
	if err != nil {
		return err
	}
	resp.Request = hc.Request
	hc.Response = resp
	return nil
}

func buildHTTPRequest(hc *Context) (*nethttp.Request, error) {
	req := hc.Request

	var payload string
	var gzipped bool
	if req.Content != nil {
		var err error
		payload, gzipped, err = requestPayload(req.Content)
		if err != nil {
			return nil, fmt.Errorf("serialize %s content: %w", req.Content.Kind(), err)
		}
	}

	httpReq, err := nethttp.NewRequestWithContext(hc.Context(), req.Method, req.URL(), nil)
	if err != nil {
		return nil, err
	}

	applyHeaders(httpReq, req.Headers)
	if req.Content == nil {
		return httpReq, nil
	}
	// content headers win over request headers, including Content-Type
	applyHeaders(httpReq, req.Content.Headers())

	switch {
	case gzipped:
		httpReq.Body = gzipStream(payload)
		httpReq.ContentLength = -1
	case payload == "":
		httpReq.Body = nethttp.NoBody
	default:
		httpReq.Body = io.NopCloser(strings.NewReader(payload))
		httpReq.ContentLength = int64(len(payload))
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(payload)), nil
		}
	}
	return httpReq, nil
}

// requestPayload returns the text that goes on the wire and whether it
// must be gzip-compressed.
func requestPayload(c content.Content) (string, bool, error) {
	switch c.Kind() {
	case content.KindGZip:
		wrapper, ok := c.(interface{ Inner() content.Content })
		if !ok {
			return "", false, fmt.Errorf("gzip content %T does not expose its inner content", c)
		}
		s, err := wrapper.Inner().Serialize()
		return s, true, err
	default:
		// form bodies already serialize to their urlencoded wire form
		s, err := c.Serialize()
		return s, false, err
	}
}

func applyHeaders(httpReq *nethttp.Request, h *headers.Headers) {
	for header := range h.All() {
		if strings.EqualFold(header.Name, "Host") {
			httpReq.Host = header.Value
			continue
		}
		httpReq.Header.Set(header.Name, header.Value)
	}
}

// gzipStream compresses payload into a pipe as the transport reads it.
func gzipStream(payload string) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		gz := gzip.NewWriter(pw)
		_, err := io.Copy(gz, strings.NewReader(payload))
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()
	return pr
}

func buildResponse(httpResp *nethttp.Response) (*Response, error) {
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if isGZipEncoded(httpResp.Header.Get("Content-Encoding")) && len(raw) > 0 {
		raw, err = gunzip(raw)
		if err != nil {
			return nil, fmt.Errorf("decompress response body: %w", err)
		}
	}

	mediaType, charsetLabel := parseContentType(httpResp.Header.Get("Content-Type"))

	resp := NewResponse(httpResp.StatusCode)
	keys := make([]string, 0, len(httpResp.Header))
	for k := range httpResp.Header {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if values := httpResp.Header[k]; len(values) > 0 {
			resp.Headers.Set(headers.Header{Name: k, Value: values[0]})
		}
	}
	resp.Content = content.NewResponseContent(decodeText(raw, charsetLabel), mediaType)
	return resp, nil
}

func isGZipEncoded(contentEncoding string) bool {
	for _, token := range strings.Split(contentEncoding, ",") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "gzip", "x-gzip", "application/gzip":
			return true
		}
	}
	return false
}

func gunzip(raw []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// parseContentType returns the media type (octet-stream when absent) and
// the declared charset, if any. Malformed parameters are ignored.
func parseContentType(contentType string) (string, string) {
	if strings.TrimSpace(contentType) == "" {
		return headers.MediaTypeOctetStream, ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if mediaType == "" {
		mediaType = headers.MediaType(contentType)
	}
	if mediaType == "" {
		mediaType = headers.MediaTypeOctetStream
	}
	if err != nil {
		return mediaType, ""
	}
	return mediaType, params["charset"]
}

// decodeText converts raw to a string using the named charset. Unknown or
// missing charsets decode as UTF-8.
func decodeText(raw []byte, label string) string {
	var enc encoding.Encoding = unicode.UTF8
	if label != "" {
		if e, _ := charset.Lookup(label); e != nil {
			enc = e
		}
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
