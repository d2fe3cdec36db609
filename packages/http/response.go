package http

import (
	"fmt"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
)

// Status is the lifecycle state of a Response.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Response is the result of a call. A stage fault leaves Status set to
// StatusError and Err set, keeping whatever fields were already filled in.
type Response struct {
	StatusCode int
	Headers    *headers.Headers
	Content    *content.ResponseContent
	Request    *Request
	Status     Status
	Err        error
}

// NewResponse creates a completed response with the given status code.
func NewResponse(statusCode int) *Response {
	return &Response{
		StatusCode: statusCode,
		Headers:    headers.New(),
		Status:     StatusCompleted,
	}
}

// IsSuccess reports a 2xx status code on a completed response.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299 && r.Status == StatusCompleted
}

// SetError marks the response as failed with err.
func (r *Response) SetError(err error) {
	if err == nil {
		return
	}
	r.Err = err
	r.Status = StatusError
}

// Header returns the value of a response header, or "" if absent.
func (r *Response) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// Body returns the decoded body, or "" when there is no content.
func (r *Response) Body() string {
	if r.Content == nil {
		return ""
	}
	return r.Content.Body
}

// TypedResponse is a Response whose body has been decoded into Data.
// Data keeps its zero value unless decoding succeeded.
type TypedResponse[T any] struct {
	Response
	Data T
}

func newTypedResponse[T any](r *Response) *TypedResponse[T] {
	return &TypedResponse[T]{Response: *r}
}
