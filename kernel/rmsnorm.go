package kernel

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/tensor"
)

// RMSNorm computes, for each row along x's last dimension (length D =
// len(w)): rms = sqrt(mean(x_j^2) + eps); y_j = w_j * x_j / rms. w may be
// in a lower-precision Weight type; x and y are always f32.
func RMSNorm[T Weight](y, x *tensor.Tensor[float32], w *tensor.Tensor[T], eps float32) {
	wshape := w.Shape()
	if len(wshape) != 1 {
		panic(fmt.Sprintf("kernel.RMSNorm: weight must be rank 1, got shape %v", wshape))
	}
	d := wshape[0]
	if x.Size()%d != 0 {
		panic(fmt.Sprintf("kernel.RMSNorm: x size %d not a multiple of weight size %d", x.Size(), d))
	}
	if y.Size() != x.Size() {
		panic(fmt.Sprintf("kernel.RMSNorm: y size %d != x size %d", y.Size(), x.Size()))
	}

	xd := x.Data()
	yd := y.DataMut()
	wd := w.Data()
	rows := x.Size() / d

	for r := 0; r < rows; r++ {
		base := r * d
		var ss float32
		for j := 0; j < d; j++ {
			v := xd[base+j]
			ss += v * v
		}
		rms := math32.Sqrt(ss/float32(d) + eps)
		for j := 0; j < d; j++ {
			yd[base+j] = ToF32(wd[j]) * xd[base+j] / rms
		}
	}
}
