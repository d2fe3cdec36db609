package headers

import (
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(h *Headers) []string {
	var out []string
	for header := range h.All() {
		out = append(out, header.Name)
	}
	return out
}

func TestHeaders_Add(t *testing.T) {
	h := New()
	require.NoError(t, h.Add("X-One", "1"))
	require.NoError(t, h.Add("X-Two", ""))

	v, ok := h.Get("X-One")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = h.Get("X-Two")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = h.Get("X-Missing")
	assert.False(t, ok)
}

func TestHeaders_AddRejectsBlankName(t *testing.T) {
	h := New()
	for _, name := range []string{"", " ", "\t"} {
		err := h.Add(name, "value")
		require.Error(t, err)
		assert.True(t, errdefs.IsInvalidArgument(err))
	}
	assert.Equal(t, 0, h.Len())
}

func TestHeaders_LastWriteWinsKeepsOrder(t *testing.T) {
	h := New()
	require.NoError(t, h.Add("A", "1"))
	require.NoError(t, h.Add("B", "2"))
	require.NoError(t, h.Add("A", "3"))

	assert.Equal(t, []string{"A", "B"}, names(h))
	v, _ := h.Get("A")
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, h.Len())
}

func TestHeaders_CaseSensitive(t *testing.T) {
	h := New()
	require.NoError(t, h.Add("accept", "a"))
	require.NoError(t, h.Add("Accept", "b"))

	assert.Equal(t, 2, h.Len())
	_, ok := h.Get("ACCEPT")
	assert.False(t, ok)
}

func TestHeaders_Clone(t *testing.T) {
	h := New()
	require.NoError(t, h.Add("A", "1"))

	c := h.Clone()
	require.NoError(t, c.Add("B", "2"))

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, []string{"A", "B"}, names(c))
}

func TestHeaders_NilStoreReads(t *testing.T) {
	var h *Headers
	_, ok := h.Get("A")
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, names(h))
}

func TestHeaders_ZeroValueUsable(t *testing.T) {
	var h Headers
	require.NoError(t, h.Add("A", "1"))
	assert.True(t, h.Has("A"))
}
