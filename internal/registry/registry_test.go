package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddGet(t *testing.T) {
	r := New[int]()

	_, found := r.Get("missing")
	assert.False(t, found)

	r.Add("answer", 42)
	v, found := r.Get("answer")
	require.True(t, found)
	assert.Equal(t, 42, v)

	r.Add("answer", 43)
	v, _ = r.Get("answer")
	assert.Equal(t, 43, v, "Add replaces existing entries")
}

func TestRegistryGetOrAdd(t *testing.T) {
	r := New[string]()

	v, loaded := r.GetOrAdd("greeting", "hello")
	require.False(t, loaded)
	assert.Equal(t, "hello", v)

	v, loaded = r.GetOrAdd("greeting", "goodbye")
	require.True(t, loaded)
	assert.Equal(t, "hello", v, "existing value wins")
}

func TestRegistryDelAndLen(t *testing.T) {
	r := New[int]()
	r.Add("a", 1)
	r.Add("b", 2)
	require.Equal(t, 2, r.Len())

	r.Del("a")
	assert.Equal(t, 1, r.Len())
	_, found := r.Get("a")
	assert.False(t, found)
}

func TestRegistryKeys(t *testing.T) {
	r := New[int]()
	r.Add("a", 1)
	r.Add("b", 2)
	r.Add("c", 3)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, r.Keys())
}
