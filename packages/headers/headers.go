package headers

import (
	"fmt"
	"iter"
	"strings"

	"github.com/containerd/errdefs"
)

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// NewHeader creates a header, rejecting an empty or whitespace-only name.
// The value is kept as given; an empty value is valid.
func NewHeader(name, value string) (Header, error) {
	if strings.TrimSpace(name) == "" {
		return Header{}, fmt.Errorf("%w: header name cannot be empty or whitespace", errdefs.ErrInvalidArgument)
	}
	return Header{Name: name, Value: value}, nil
}

// Headers is an ordered header store owned by a request, content or response.
// It is not safe for concurrent mutation.
type Headers struct {
	order []string
	store map[string]Header
}

// New returns an empty store.
func New() *Headers {
	return &Headers{store: make(map[string]Header)}
}

// Add inserts or overwrites the header called name.
func (h *Headers) Add(name, value string) error {
	header, err := NewHeader(name, value)
	if err != nil {
		return err
	}
	h.Set(header)
	return nil
}

// Set stores an already validated header, replacing any header with the same name.
func (h *Headers) Set(header Header) {
	if h.store == nil {
		h.store = make(map[string]Header)
	}
	if _, ok := h.store[header.Name]; !ok {
		h.order = append(h.order, header.Name)
	}
	h.store[header.Name] = header
}

// Get returns the value stored for name.
func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	header, ok := h.store[name]
	return header.Value, ok
}

// Has reports whether a header called name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// All iterates the headers in first-insertion order.
func (h *Headers) All() iter.Seq[Header] {
	return func(yield func(Header) bool) {
		if h == nil {
			return
		}
		for _, name := range h.order {
			if !yield(h.store[name]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the store.
func (h *Headers) Clone() *Headers {
	c := New()
	for header := range h.All() {
		c.Set(header)
	}
	return c
}

func (h *Headers) String() string {
	var sb strings.Builder
	for header := range h.All() {
		sb.WriteString(header.Name)
		sb.WriteString(": ")
		sb.WriteString(header.Value)
		sb.WriteString("\n")
	}
	return sb.String()
}
