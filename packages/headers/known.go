package headers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

// Recognized header names
const (
	NameAccept          = "Accept"
	NameAuthorization   = "Authorization"
	NameContentType     = "Content-Type"
	NameContentEncoding = "Content-Encoding"
)

// EncodingGZip is the only accepted Content-Encoding value.
const EncodingGZip = "gzip"

// Media types
const (
	MediaTypeApplicationJSON = "application/json"
	MediaTypeTextJSON        = "text/json"
	MediaTypeTextXJSON       = "text/x-json"
	MediaTypeTextJavascript  = "text/javascript"
	MediaTypeFormURLEncoded  = "application/x-www-form-urlencoded"
	MediaTypeOctetStream     = "application/octet-stream"
)

const basicScheme = "Basic"

func requireValue(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be empty or whitespace", errdefs.ErrInvalidArgument, field)
	}
	return nil
}

// NewAccept creates an Accept header for mediaType.
func NewAccept(mediaType string) (Header, error) {
	if err := requireValue("mediaType", mediaType); err != nil {
		return Header{}, err
	}
	return Header{Name: NameAccept, Value: mediaType}, nil
}

// NewAuthorization creates an Authorization header. With a parameter the
// value is "scheme parameter", otherwise just the scheme.
func NewAuthorization(scheme string, parameter ...string) (Header, error) {
	if err := requireValue("scheme", scheme); err != nil {
		return Header{}, err
	}
	if len(parameter) == 0 {
		return Header{Name: NameAuthorization, Value: scheme}, nil
	}
	if err := requireValue("parameter", parameter[0]); err != nil {
		return Header{}, err
	}
	return Header{Name: NameAuthorization, Value: scheme + " " + parameter[0]}, nil
}

// NewBasicAuthorization creates a Basic Authorization header from credentials.
func NewBasicAuthorization(username, password string) (Header, error) {
	if err := requireValue("username", username); err != nil {
		return Header{}, err
	}
	if err := requireValue("password", password); err != nil {
		return Header{}, err
	}
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return NewAuthorization(basicScheme, token)
}

// NewContentType creates a Content-Type header for mediaType.
func NewContentType(mediaType string) (Header, error) {
	if err := requireValue("mediaType", mediaType); err != nil {
		return Header{}, err
	}
	return Header{Name: NameContentType, Value: mediaType}, nil
}

// NewContentEncoding creates a Content-Encoding header. Only gzip is supported.
func NewContentEncoding(encoding string) (Header, error) {
	if err := requireValue("encoding", encoding); err != nil {
		return Header{}, err
	}
	if encoding != EncodingGZip {
		return Header{}, fmt.Errorf("%w: content encoding %q not supported, only gzip", errdefs.ErrInvalidArgument, encoding)
	}
	return Header{Name: NameContentEncoding, Value: EncodingGZip}, nil
}

func lookup(h *Headers, name string) (Header, bool) {
	value, ok := h.Get(name)
	if !ok {
		return Header{}, false
	}
	return Header{Name: name, Value: value}, true
}

// Accept returns the Accept header of h, if any.
func Accept(h *Headers) (Header, bool) { return lookup(h, NameAccept) }

// Authorization returns the Authorization header of h, if any.
func Authorization(h *Headers) (Header, bool) { return lookup(h, NameAuthorization) }

// ContentType returns the Content-Type header of h, if any.
func ContentType(h *Headers) (Header, bool) { return lookup(h, NameContentType) }

// ContentEncoding returns the Content-Encoding header of h, if any.
func ContentEncoding(h *Headers) (Header, bool) { return lookup(h, NameContentEncoding) }

// MediaType strips any parameters from a Content-Type value and normalises
// case, so "Application/JSON; charset=utf-8" becomes "application/json".
func MediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
