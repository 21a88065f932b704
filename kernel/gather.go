package kernel

import (
	"fmt"

	"github.com/ollamacore/llamacore/tensor"
)

// Gather copies row indices[i] of table into row i of y, widening table's
// element type to f32. y is (N, D), indices is (N), table is (V, D).
// Panics if an index is out of range (a caller bug: indices come from the
// tokenizer/sampler, not from untrusted input at this layer).
func Gather[T Weight](y *tensor.Tensor[float32], indices []uint32, table *tensor.Tensor[T]) {
	tshape := table.Shape()
	if len(tshape) != 2 {
		panic(fmt.Sprintf("kernel.Gather: table must be rank 2, got shape %v", tshape))
	}
	v, d := tshape[0], tshape[1]
	if y.Size() != len(indices)*d {
		panic(fmt.Sprintf("kernel.Gather: y has %d elements, want %d", y.Size(), len(indices)*d))
	}

	dst := y.DataMut()
	src := table.Data()
	for i, idx := range indices {
		if int(idx) >= v {
			panic(fmt.Sprintf("kernel.Gather: index %d out of range for vocab size %d", idx, v))
		}
		row := src[int(idx)*d : int(idx)*d+d]
		out := dst[i*d : i*d+d]
		for j, w := range row {
			out[j] = ToF32(w)
		}
	}
}
