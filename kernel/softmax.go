package kernel

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/tensor"
)

// MaskedSoftmax applies causal masked softmax over the trailing two
// dimensions (Sq, Stot) of y, in place. For query row i, the causal
// boundary is B(i) = Stot - Sq + i + 1 (the last query attends to every
// key; earlier queries attend to a causal prefix). Within [0, B(i)) this
// computes a numerically stable softmax (subtract the row max, exponentiate,
// normalize); entries at [B(i), Stot) are set to exactly 0. No mask tensor
// is ever materialized.
func MaskedSoftmax(y *tensor.Tensor[float32]) {
	shape := y.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("kernel.MaskedSoftmax: y must be at least rank 2, got shape %v", shape))
	}
	sq := shape[len(shape)-2]
	stot := shape[len(shape)-1]
	if sq > stot {
		panic(fmt.Sprintf("kernel.MaskedSoftmax: Sq (%d) must not exceed Stot (%d)", sq, stot))
	}

	data := y.DataMut()
	rows := y.Size() / (sq * stot)

	for b := 0; b < rows; b++ {
		base := b * sq * stot
		for i := 0; i < sq; i++ {
			offset := base + i*stot
			boundary := stot - sq + i + 1

			row := data[offset : offset+stot]
			m := row[0]
			for j := 1; j < boundary; j++ {
				if row[j] > m {
					m = row[j]
				}
			}

			var sum float32
			for j := 0; j < boundary; j++ {
				e := math32.Exp(row[j] - m)
				row[j] = e
				sum += e
			}
			for j := 0; j < boundary; j++ {
				row[j] /= sum
			}
			for j := boundary; j < stot; j++ {
				row[j] = 0
			}
		}
	}
}
