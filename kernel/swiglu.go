package kernel

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/tensor"
)

// SwiGLU computes y_i <- silu(x_i) * y_i elementwise, where
// silu(v) = v * sigmoid(v) = v / (1 + exp(-v)).
func SwiGLU(y, x *tensor.Tensor[float32]) {
	if y.Size() != x.Size() {
		panic(fmt.Sprintf("kernel.SwiGLU: size mismatch %d != %d", y.Size(), x.Size()))
	}
	yd := y.DataMut()
	xd := x.Data()
	for i := range xd {
		v := xd[i]
		sigmoid := 1 / (1 + math32.Exp(-v))
		yd[i] = v * sigmoid * yd[i]
	}
}
