package kernel

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/tensor"
)

// RoPE applies rotary positional embedding in place to y, shaped
// (S, Nh, Dh). For token offset t, head h, pair index i in [0, Dh/2):
// pos = startPos + t, freq = pos / theta^(2i/Dh), (s, c) = sin/cos(freq),
// and the pair (y[t,h,i], y[t,h,i+Dh/2]) is rotated by that angle. Dh must
// be even.
func RoPE(y *tensor.Tensor[float32], startPos int, theta float32) {
	shape := y.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("kernel.RoPE: y must be rank 3 (S, Nh, Dh), got shape %v", shape))
	}
	s, nh, dh := shape[0], shape[1], shape[2]
	if dh%2 != 0 {
		panic(fmt.Sprintf("kernel.RoPE: head size %d must be even", dh))
	}

	data := y.DataMut()
	half := dh / 2
	for t := 0; t < s; t++ {
		pos := float32(startPos + t)
		for h := 0; h < nh; h++ {
			base := t*nh*dh + h*dh
			for i := 0; i < half; i++ {
				freq := pos / math32.Pow(theta, float32(2*i)/float32(dh))
				sinF, cosF := math32.Sin(freq), math32.Cos(freq)
				a := data[base+i]
				b := data[base+i+half]
				data[base+i] = a*cosF - b*sinF
				data[base+i+half] = b*cosF + a*sinF
			}
		}
	}
}
