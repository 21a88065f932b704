// Package tensor implements the dense n-dimensional array abstraction the
// inference engine is built on: row-major contiguous storage, shape,
// and cheap slicing/reshape that shares the parent's backing array.
package tensor

import "fmt"

// Tensor is a dense n-dimensional array of T stored row-major in a flat
// slice. Multiple Tensor values may alias the same backing storage (e.g.
// the result of Slice or Reshape); callers are responsible for not
// holding overlapping mutable views at the same time.
type Tensor[T any] struct {
	data  []T
	shape []int
}

// New builds a Tensor over data with the given shape. len(data) must equal
// the product of shape.
func New[T any](data []T, shape []int) *Tensor[T] {
	n := numel(shape)
	if len(data) != n {
		panic(fmt.Sprintf("tensor: data has %d elements, shape %v wants %d", len(data), shape, n))
	}
	return &Tensor[T]{data: data, shape: append([]int(nil), shape...)}
}

// Zeros allocates a fresh zero-valued Tensor with the given shape.
func Zeros[T any](shape ...int) *Tensor[T] {
	return New(make([]T, numel(shape)), shape)
}

func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Size returns the total element count, i.e. the product of Shape().
func (t *Tensor[T]) Size() int { return len(t.data) }

// Shape returns the tensor's shape. The returned slice must not be mutated.
func (t *Tensor[T]) Shape() []int { return t.shape }

// Dim returns the extent of dimension i, or 1 if the tensor has fewer
// dimensions (convenient for loops that index a fixed rank).
func (t *Tensor[T]) Dim(i int) int {
	if i < 0 || i >= len(t.shape) {
		return 1
	}
	return t.shape[i]
}

// Data returns an immutable view of the flat backing storage.
func (t *Tensor[T]) Data() []T { return t.data }

// DataMut returns a mutable view of the flat backing storage. Callers must
// not hold two mutable views over overlapping storage at once.
func (t *Tensor[T]) DataMut() []T { return t.data }

// Slice returns a view over a contiguous sub-range of the flat storage,
// starting at flat index start, reshaped to newShape. It panics if the
// requested range exceeds the parent's storage.
func (t *Tensor[T]) Slice(start int, newShape []int) *Tensor[T] {
	n := numel(newShape)
	if start < 0 || start+n > len(t.data) {
		panic(fmt.Sprintf("tensor: slice [%d:%d] out of range for size %d", start, start+n, len(t.data)))
	}
	return &Tensor[T]{data: t.data[start : start+n : start+n], shape: append([]int(nil), newShape...)}
}

// Reshape returns a view over the same storage with a new shape. The
// element count must be unchanged.
func (t *Tensor[T]) Reshape(newShape ...int) *Tensor[T] {
	if numel(newShape) != len(t.data) {
		panic(fmt.Sprintf("tensor: reshape %v -> %v changes element count (%d != %d)", t.shape, newShape, len(t.data), numel(newShape)))
	}
	return &Tensor[T]{data: t.data, shape: append([]int(nil), newShape...)}
}

// Detach copies the storage so the returned tensor no longer aliases t.
func (t *Tensor[T]) Detach() *Tensor[T] {
	cp := make([]T, len(t.data))
	copy(cp, t.data)
	return &Tensor[T]{data: cp, shape: append([]int(nil), t.shape...)}
}

// Row returns a view over row i of a tensor whose last dimension is the
// row width (a convenience for the common (N, D) case).
func (t *Tensor[T]) Row(i int) *Tensor[T] {
	d := t.shape[len(t.shape)-1]
	return t.Slice(i*d, []int{d})
}

// CloseTo reports whether a and b have identical shapes and every
// elementwise absolute difference is below tol. Only meaningful for
// float-like element types convertible to float64 via the supplied diff
// function, so callers pass their own comparator.
func CloseTo[T any](a, b *Tensor[T], tol float64, diff func(x, y T) float64) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if diff(a.data[i], b.data[i]) > tol {
			return false
		}
	}
	return true
}

// CloseF32 is CloseTo specialized for float32 tensors, the common case in
// kernel tests.
func CloseF32(a, b *Tensor[float32], tol float64) bool {
	return CloseTo(a, b, tol, func(x, y float32) float64 {
		d := float64(x) - float64(y)
		if d < 0 {
			d = -d
		}
		return d
	})
}
