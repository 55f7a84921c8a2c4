package uuidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsV7(t *testing.T) {
	id := New()
	require.NotEqual(t, [16]byte{}, [16]byte(id))
	assert.EqualValues(t, 7, id.Version())
}

func TestNewStringOrdering(t *testing.T) {
	a := NewString()
	b := NewString()
	require.NotEqual(t, a, b)
	// V7 ids embed a millisecond timestamp in the most significant bits.
	assert.LessOrEqual(t, a[:8], b[:8])
}
