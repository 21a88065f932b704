package kernel

import (
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// BF16 is a Brain Float16 scalar: the top 16 bits of an IEEE-754 float32,
// i.e. the same exponent range as f32 with a truncated mantissa.
type BF16 uint16

// ToF32 widens b to float32. The conversion is exact (bf16 is a strict bit
// truncation of f32, so reconstruction never loses information it had).
func (b BF16) ToF32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// BF16FromF32 narrows f to bf16 by truncating the low mantissa bits.
func BF16FromF32(f float32) BF16 {
	return BF16(math.Float32bits(f) >> 16)
}

// Weight is the set of element types a ParameterSet may store. Kernels
// that read weights are generic over Weight; kernels that only touch
// activations take float32 directly. This is the "single capability"
// design from the spec: the only thing a kernel needs from a weight type
// is widening to f32.
type Weight interface {
	~float32 | BF16
}

// ToF32 widens any Weight value to float32.
func ToF32[T Weight](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case BF16:
		return x.ToF32()
	default:
		panic("kernel: unsupported weight type")
	}
}

// DecodeBF16Row widens a raw little-endian row of bf16 values to float32
// via github.com/d4l3k/go-bfloat16's bulk decoder. model.decodeElems calls
// this for every bf16-tagged tensor at load time and narrows the result
// back to BF16; it is the real bf16 load path, not a side decoder.
func DecodeBF16Row(raw []byte) []float32 {
	return bfloat16.Decode(raw)
}

// DecodeF16Row widens a raw little-endian row of IEEE f16 values to
// float32. Archive tensors tagged f16 (half-precision exports, distinct
// from bf16) are widened through this path at load time.
func DecodeF16Row(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		bits := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		out[i] = float16.Frombits(bits).Float32()
	}
	return out
}
