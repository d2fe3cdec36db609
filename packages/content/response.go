package content

import (
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"github.com/tidwall/gjson"
)

// ResponseContent is a decoded response body. Only the transport creates it.
type ResponseContent struct {
	Body    string
	headers *headers.Headers
}

// NewResponseContent creates a body declared as mediaType. A blank media
// type falls back to application/octet-stream.
func NewResponseContent(body, mediaType string) *ResponseContent {
	h := headers.New()
	ct, err := headers.NewContentType(mediaType)
	if err != nil {
		ct = headers.Header{Name: headers.NameContentType, Value: headers.MediaTypeOctetStream}
	}
	h.Set(ct)
	return &ResponseContent{Body: body, headers: h}
}

// Headers returns the content headers.
func (rc *ResponseContent) Headers() *headers.Headers {
	if rc.headers == nil {
		rc.headers = headers.New()
	}
	return rc.headers
}

// ContentType returns the declared Content-Type value.
func (rc *ResponseContent) ContentType() string {
	ct, _ := headers.ContentType(rc.Headers())
	return ct.Value
}

// MediaType returns the Content-Type without parameters.
func (rc *ResponseContent) MediaType() string {
	return headers.MediaType(rc.ContentType())
}

// IsJSON reports whether the media type belongs to the JSON family.
func (rc *ResponseContent) IsJSON() bool {
	_, ok := decoders[rc.MediaType()]
	return ok
}

// Query evaluates a gjson path against a JSON body. Non-JSON bodies
// yield a result for which Exists reports false.
func (rc *ResponseContent) Query(path string) gjson.Result {
	if !rc.IsJSON() {
		return gjson.Result{}
	}
	if path == "" {
		return gjson.Parse(rc.Body)
	}
	return gjson.Get(rc.Body, path)
}
