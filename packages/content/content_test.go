package content

import (
	"errors"
	"net/url"
	"testing"

	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerValue(t *testing.T, c Content, name string) string {
	t.Helper()
	v, ok := c.Headers().Get(name)
	require.True(t, ok, "missing header %s", name)
	return v
}

func TestJSON(t *testing.T) {
	c, err := NewJSON(map[string]string{"name": "x"})
	require.NoError(t, err)

	assert.Equal(t, KindJSON, c.Kind())
	assert.Equal(t, "application/json", headerValue(t, c, "Content-Type"))

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, body)
}

func TestJSON_RejectsNil(t *testing.T) {
	_, err := NewJSON(nil)
	assert.True(t, errdefs.IsInvalidArgument(err))

	var p *struct{ A int }
	_, err = NewJSON(p)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestJSON_SerializeError(t *testing.T) {
	c, err := NewJSON(map[string]any{"ch": make(chan int)})
	require.NoError(t, err)

	_, err = c.Serialize()
	assert.Error(t, err)
}

type upperSerializer struct{}

func (upperSerializer) Serialize(v any) (string, error) { return "SERIALIZED", nil }
func (upperSerializer) Deserialize(string, any) error   { return errors.New("unsupported") }

func TestJSON_CustomSerializer(t *testing.T) {
	c, err := NewJSONWith(struct{}{}, upperSerializer{})
	require.NoError(t, err)

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "SERIALIZED", body)
}

func TestForm(t *testing.T) {
	c, err := NewForm(
		Pair{Key: "name", Value: "John Smith"},
		Pair{Key: "q", Value: "a&b=c"},
		Pair{Key: "name", Value: "Jane"},
	)
	require.NoError(t, err)

	assert.Equal(t, KindForm, c.Kind())
	assert.Equal(t, "application/x-www-form-urlencoded", headerValue(t, c, "Content-Type"))

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "name=John+Smith&q=a%26b%3Dc&name=Jane", body)
}

func TestForm_Empty(t *testing.T) {
	c, err := NewForm()
	require.NoError(t, err)

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestForm_RoundTrip(t *testing.T) {
	pairs := []Pair{
		{Key: "first name", Value: "Jöhn  Smith"},
		{Key: "symbols", Value: "!*'();:@&=+$,/?#[]~"},
		{Key: "empty", Value: ""},
		{Key: "plus+sign", Value: "1+1 = 2"},
	}
	c, err := NewForm(pairs...)
	require.NoError(t, err)

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.NotContains(t, body, " ")
	assert.NotContains(t, body, "%20")

	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	for _, p := range pairs {
		assert.Equal(t, p.Value, values.Get(p.Key), p.Key)
	}
}

func TestForm_PairsAreCopied(t *testing.T) {
	pairs := []Pair{{Key: "a", Value: "1"}}
	c, err := NewForm(pairs...)
	require.NoError(t, err)

	pairs[0].Value = "changed"
	got := c.Pairs()
	got[0].Value = "also changed"

	body, _ := c.Serialize()
	assert.Equal(t, "a=1", body)
}

func TestRaw(t *testing.T) {
	c, err := NewRaw("<a/>", "application/xml")
	require.NoError(t, err)

	assert.Equal(t, KindRaw, c.Kind())
	assert.Equal(t, "application/xml", MediaTypeOf(c))
	body, err := c.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "<a/>", body)
}

func TestRaw_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		mediaType string
	}{
		{"empty body", "", "text/plain"},
		{"whitespace body", "  ", "text/plain"},
		{"empty media type", "x", ""},
		{"whitespace media type", "x", " \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRaw(tt.body, tt.mediaType)
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

func TestGZipped(t *testing.T) {
	inner, err := NewJSON(map[string]int{"a": 1})
	require.NoError(t, err)

	c, err := NewGZipped(inner)
	require.NoError(t, err)

	assert.Equal(t, KindGZip, c.Kind())
	assert.Equal(t, "application/json", headerValue(t, c, "Content-Type"))
	assert.Equal(t, "gzip", headerValue(t, c, "Content-Encoding"))
	assert.Same(t, inner, c.Inner())

	body, err := c.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, body)

	// the inner content keeps its own headers untouched
	_, ok := inner.Headers().Get("Content-Encoding")
	assert.False(t, ok)
}

func TestGZipped_RejectsExistingEncoding(t *testing.T) {
	inner, err := NewRaw("hello", "text/plain")
	require.NoError(t, err)
	require.NoError(t, inner.Headers().Add(headers.NameContentEncoding, "gzip"))

	_, err = NewGZipped(inner)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestGZipped_RejectsDoubleWrap(t *testing.T) {
	inner, err := NewRaw("hello", "text/plain")
	require.NoError(t, err)
	once, err := NewGZipped(inner)
	require.NoError(t, err)

	_, err = NewGZipped(once)
	assert.Error(t, err)
}

func TestGZipped_RejectsNil(t *testing.T) {
	_, err := NewGZipped(nil)
	assert.True(t, errdefs.IsInvalidArgument(err))

	var raw *Raw
	_, err = NewGZipped(raw)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCustom(t *testing.T) {
	c, err := NewCustom("text/csv", func() (string, error) { return "a,b\n1,2", nil })
	require.NoError(t, err)

	assert.Equal(t, KindCustom, c.Kind())
	assert.Equal(t, "text/csv", MediaTypeOf(c))
	body, err := c.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", body)

	_, err = NewCustom("text/csv", nil)
	assert.Error(t, err)
	_, err = NewCustom("", func() (string, error) { return "", nil })
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "gzip", KindGZip.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
