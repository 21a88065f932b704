package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedShape(t *testing.T) {
	assert.Panics(t, func() {
		New([]float32{1, 2, 3}, []int{2, 2})
	})
}

func TestSliceSharesStorage(t *testing.T) {
	parent := New([]float32{1, 2, 3, 4, 5, 6}, []int{2, 3})
	row := parent.Slice(3, []int{3})
	row.DataMut()[0] = 99
	require.Equal(t, float32(99), parent.Data()[3])
}

func TestReshapePreservesElementCount(t *testing.T) {
	parent := New([]float32{1, 2, 3, 4, 5, 6}, []int{2, 3})
	flat := parent.Reshape(6)
	assert.Equal(t, 6, flat.Size())
	assert.Panics(t, func() { parent.Reshape(4) })
}

func TestDetachCopiesStorage(t *testing.T) {
	parent := New([]float32{1, 2, 3}, []int{3})
	clone := parent.Detach()
	clone.DataMut()[0] = 42
	assert.Equal(t, float32(1), parent.Data()[0])
}

func TestCloseF32(t *testing.T) {
	a := New([]float32{1, 2, 3}, []int{3})
	b := New([]float32{1.0001, 2.0001, 3.0001}, []int{3})
	assert.True(t, CloseF32(a, b, 1e-3))
	assert.False(t, CloseF32(a, b, 1e-6))
}
