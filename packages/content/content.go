package content

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"github.com/containerd/errdefs"
)

// Kind identifies a request content variant.
type Kind int

const (
	KindJSON Kind = iota + 1
	KindForm
	KindRaw
	KindGZip
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	case KindRaw:
		return "raw"
	case KindGZip:
		return "gzip"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Content is a request body together with its headers.
type Content interface {
	Kind() Kind
	Headers() *headers.Headers
	Serialize() (string, error)
}

// base holds the headers every variant carries.
type base struct {
	headers *headers.Headers
}

func newBase(mediaType string) (base, error) {
	ct, err := headers.NewContentType(mediaType)
	if err != nil {
		return base{}, err
	}
	h := headers.New()
	h.Set(ct)
	return base{headers: h}, nil
}

func (b base) Headers() *headers.Headers { return b.headers }

// MediaTypeOf returns the Content-Type declared by c.
func MediaTypeOf(c Content) string {
	ct, _ := headers.ContentType(c.Headers())
	return ct.Value
}

// JSON is a body serialized as application/json.
type JSON struct {
	base
	value      any
	serializer Serializer
}

// NewJSON wraps v, which must not be nil. The DefaultSerializer is used.
func NewJSON(v any) (*JSON, error) {
	return NewJSONWith(v, DefaultSerializer)
}

// NewJSONWith wraps v and serializes it with s.
func NewJSONWith(v any, s Serializer) (*JSON, error) {
	if isNil(v) {
		return nil, fmt.Errorf("%w: json content cannot be nil", errdefs.ErrInvalidArgument)
	}
	if s == nil {
		s = DefaultSerializer
	}
	b, err := newBase(headers.MediaTypeApplicationJSON)
	if err != nil {
		return nil, err
	}
	return &JSON{base: b, value: v, serializer: s}, nil
}

func (c *JSON) Kind() Kind { return KindJSON }

// Value returns the wrapped value.
func (c *JSON) Value() any { return c.value }

func (c *JSON) Serialize() (string, error) {
	return c.serializer.Serialize(c.value)
}

// Pair is a single form field. Keys may repeat.
type Pair struct {
	Key   string
	Value string
}

// Form is an application/x-www-form-urlencoded body.
type Form struct {
	base
	pairs []Pair
}

// NewForm builds a form body from pairs, keeping their order.
func NewForm(pairs ...Pair) (*Form, error) {
	b, err := newBase(headers.MediaTypeFormURLEncoded)
	if err != nil {
		return nil, err
	}
	return &Form{base: b, pairs: append([]Pair(nil), pairs...)}, nil
}

func (c *Form) Kind() Kind { return KindForm }

// Pairs returns a copy of the form fields.
func (c *Form) Pairs() []Pair { return append([]Pair(nil), c.pairs...) }

// Serialize percent-encodes every pair with spaces as '+' and joins them with '&'.
func (c *Form) Serialize() (string, error) {
	if len(c.pairs) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for i, p := range c.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String(), nil
}

// Raw is a verbatim string body with a caller-chosen media type.
type Raw struct {
	base
	body string
}

// NewRaw creates a raw body. Neither body nor mediaType may be blank.
func NewRaw(body, mediaType string) (*Raw, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty or whitespace", errdefs.ErrInvalidArgument)
	}
	b, err := newBase(mediaType)
	if err != nil {
		return nil, err
	}
	return &Raw{base: b, body: body}, nil
}

func (c *Raw) Kind() Kind { return KindRaw }

func (c *Raw) Serialize() (string, error) { return c.body, nil }

// GZipped marks another body for gzip compression at the transport.
type GZipped struct {
	base
	inner Content
}

// NewGZipped wraps inner, copying its headers and adding Content-Encoding: gzip.
// It fails if inner already declares a Content-Encoding.
func NewGZipped(inner Content) (*GZipped, error) {
	if isNil(inner) {
		return nil, fmt.Errorf("%w: gzipped content requires inner content", errdefs.ErrInvalidArgument)
	}
	h := headers.New()
	for header := range inner.Headers().All() {
		if header.Name == headers.NameContentEncoding {
			return nil, fmt.Errorf("%w: %s header is already set on the content", errdefs.ErrInvalidArgument, header.Name)
		}
		h.Set(header)
	}
	enc, err := headers.NewContentEncoding(headers.EncodingGZip)
	if err != nil {
		return nil, err
	}
	h.Set(enc)
	return &GZipped{base: base{headers: h}, inner: inner}, nil
}

func (c *GZipped) Kind() Kind { return KindGZip }

// Inner returns the wrapped content.
func (c *GZipped) Inner() Content { return c.inner }

// Serialize returns the inner body's text; it is not compressed.
func (c *GZipped) Serialize() (string, error) { return c.inner.Serialize() }

// SerializeFunc produces a custom body.
type SerializeFunc func() (string, error)

// Custom is a user-defined body.
type Custom struct {
	base
	serialize SerializeFunc
}

// NewCustom creates a user-defined body with the given media type.
func NewCustom(mediaType string, fn SerializeFunc) (*Custom, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: custom content requires a serialize func", errdefs.ErrInvalidArgument)
	}
	b, err := newBase(mediaType)
	if err != nil {
		return nil, err
	}
	return &Custom{base: b, serialize: fn}, nil
}

func (c *Custom) Kind() Kind { return KindCustom }

func (c *Custom) Serialize() (string, error) { return c.serialize() }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
