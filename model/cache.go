package model

import (
	"fmt"

	"github.com/ollamacore/llamacore/tensor"
)

// Cache is the per-conversation KV cache: for each layer, two tensors of
// shape (Smax, Nkv*Dh) holding already-computed key/value projections for
// every prior position, plus a length shared across every layer. Created
// fresh per generation, mutated only by Model.Forward, discarded with the
// generation it belongs to.
//
// Rows [0, Len()) are defined; rows [Len(), Smax) are unspecified. A
// single Cache is never shared between concurrent generations — streams
// over the same ParameterSet each own an independent Cache (spec.md §5).
type Cache struct {
	maxSeqLen int
	k         []*tensor.Tensor[float32]
	v         []*tensor.Tensor[float32]
	length    int
}

// NewCache allocates a fresh, empty cache for numLayers layers, each able
// to hold up to maxSeqLen positions of kvDim-wide key/value rows.
func NewCache(maxSeqLen, numLayers, kvDim int) *Cache {
	k := make([]*tensor.Tensor[float32], numLayers)
	v := make([]*tensor.Tensor[float32], numLayers)
	for l := 0; l < numLayers; l++ {
		k[l] = tensor.Zeros[float32](maxSeqLen, kvDim)
		v[l] = tensor.Zeros[float32](maxSeqLen, kvDim)
	}
	return &Cache{maxSeqLen: maxSeqLen, k: k, v: v, length: 0}
}

// Len returns the number of valid positions currently stored.
func (c *Cache) Len() int { return c.length }

// MaxSeqLen returns Smax.
func (c *Cache) MaxSeqLen() int { return c.maxSeqLen }

// LayerK returns a mutable view over layer l's full (Smax, kvDim) key
// storage. Callers slice into [0, Len()+Sq) themselves.
func (c *Cache) LayerK(l int) *tensor.Tensor[float32] { return c.k[l] }

// LayerV returns a mutable view over layer l's full (Smax, kvDim) value
// storage.
func (c *Cache) LayerV(l int) *tensor.Tensor[float32] { return c.v[l] }

// Advance records that n more positions have been written across every
// layer. It panics if that would exceed Smax — the caller (Model.Forward)
// must never write past the cache's capacity.
func (c *Cache) Advance(n int) {
	if c.length+n > c.maxSeqLen {
		panic(fmt.Sprintf("model: cache advance would exceed Smax (%d+%d > %d)", c.length, n, c.maxSeqLen))
	}
	c.length += n
}
