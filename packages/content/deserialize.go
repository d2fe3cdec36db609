package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
)

// decoder turns a body into v, or reports that it cannot.
type decoder func(s Serializer, body string, v any) error

func decodeWithSerializer(s Serializer, body string, v any) error {
	return s.Deserialize(body, v)
}

// decoders maps known media types to a decoder. Media types absent from
// the table deserialize to the zero value.
var decoders = map[string]decoder{
	headers.MediaTypeApplicationJSON: decodeWithSerializer,
	headers.MediaTypeTextJSON:        decodeWithSerializer,
	headers.MediaTypeTextXJSON:       decodeWithSerializer,
	headers.MediaTypeTextJavascript:  decodeWithSerializer,
}

// Deserialize decodes rc into a T according to its media type. A nil
// serializer means DefaultSerializer.
func Deserialize[T any](rc *ResponseContent, s Serializer) (T, error) {
	var out T
	if rc == nil {
		return out, errors.New("response has no content")
	}
	decode, ok := decoders[rc.MediaType()]
	// a blank body decodes to the zero value
	if !ok || strings.TrimSpace(rc.Body) == "" {
		return out, nil
	}
	if s == nil {
		s = DefaultSerializer
	}
	if err := decode(s, rc.Body, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("deserialize %s body: %w", rc.MediaType(), err)
	}
	return out, nil
}
