package kernel

import (
	"fmt"

	"github.com/ollamacore/llamacore/tensor"
)

// MatmulTransB computes c <- beta*c + alpha*a*bᵀ, where a is (M, K) f32, b
// is (N, K) in a Weight type (row j of b is logical column j of the
// multiplicand — no explicit transpose is ever materialized), and c is
// (M, N) f32. The contraction loop order is i, j, k with k innermost,
// naive row-major — this order is part of the spec's bit-reproducibility
// contract, not an incidental implementation detail.
func MatmulTransB[T Weight](c *tensor.Tensor[float32], beta float32, a *tensor.Tensor[float32], b *tensor.Tensor[T], alpha float32) {
	ashape, bshape, cshape := a.Shape(), b.Shape(), c.Shape()
	if len(ashape) != 2 || len(bshape) != 2 || len(cshape) != 2 {
		panic(fmt.Sprintf("kernel.MatmulTransB: a, b, c must be rank 2, got %v %v %v", ashape, bshape, cshape))
	}
	m, k := ashape[0], ashape[1]
	n, k2 := bshape[0], bshape[1]
	if k != k2 {
		panic(fmt.Sprintf("kernel.MatmulTransB: inner dims disagree, a has %d, b has %d", k, k2))
	}
	if cshape[0] != m || cshape[1] != n {
		panic(fmt.Sprintf("kernel.MatmulTransB: c shape %v does not match (%d, %d)", cshape, m, n))
	}

	ad := a.Data()
	bd := b.Data()
	cd := c.DataMut()

	for i := 0; i < m; i++ {
		arow := ad[i*k : i*k+k]
		for j := 0; j < n; j++ {
			brow := bd[j*k : j*k+k]
			var dot float32
			for kk := 0; kk < k; kk++ {
				dot += arow[kk] * ToF32(brow[kk])
			}
			idx := i*n + j
			cd[idx] = beta*cd[idx] + alpha*dot
		}
	}
}

// Dot computes the dot product of two equal-length f32 tensors, treated
// as flat vectors regardless of shape.
func Dot(x, y *tensor.Tensor[float32]) float32 {
	if x.Size() != y.Size() {
		panic(fmt.Sprintf("kernel.Dot: size mismatch %d != %d", x.Size(), y.Size()))
	}
	xd, yd := x.Data(), y.Data()
	var sum float32
	for i := range xd {
		sum += xd[i] * yd[i]
	}
	return sum
}
