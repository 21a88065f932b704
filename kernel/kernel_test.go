package kernel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamacore/llamacore/tensor"
)

// S1 — SwiGLU.
func TestSwiGLUSeed(t *testing.T) {
	y := tensor.New([]float32{2, 3, 4}, []int{1, 3})
	x := tensor.New([]float32{1, 2, 3}, []int{1, 3})
	SwiGLU(y, x)
	want := tensor.New([]float32{1.4621172, 5.2847824, 11.43089}, []int{1, 3})
	assert.True(t, tensor.CloseF32(y, want, 1e-3))
}

// S2 — RMSNorm.
func TestRMSNormSeed(t *testing.T) {
	y := tensor.New([]float32{0, 0, 0, 0}, []int{2, 2})
	x := tensor.New([]float32{1, 2, 3, 4}, []int{2, 2})
	w := tensor.New([]float32{1, 2}, []int{2})
	RMSNorm(y, x, w, 1e-6)
	want := tensor.New([]float32{0.6324554, 2.5298216, 0.8485281, 2.2627416}, []int{2, 2})
	assert.True(t, tensor.CloseF32(y, want, 1e-3))
}

// S3 — MatMul-TransB.
func TestMatmulTransBSeed(t *testing.T) {
	c := tensor.New([]float32{1, 2, 3, 4}, []int{2, 2})
	a := tensor.New([]float32{1, 2, 3, 4, 5, 6}, []int{2, 3})
	b := tensor.New([]float32{1, 2, 3, 4, 5, 6}, []int{2, 3})
	MatmulTransB(c, 1, a, b, 1)
	want := tensor.New([]float32{15, 34, 35, 81}, []int{2, 2})
	assert.True(t, tensor.CloseF32(c, want, 1e-3))
}

func TestMatmulTransBReferenceProperty(t *testing.T) {
	// matmul_transb(c, 0, a, b, 1) == a . b^T
	c := tensor.New([]float32{0, 0}, []int{1, 2})
	a := tensor.New([]float32{1, 2}, []int{1, 2})
	b := tensor.New([]float32{1, 0, 0, 1}, []int{2, 2})
	MatmulTransB(c, 0, a, b, 1)
	want := tensor.New([]float32{1, 2}, []int{1, 2})
	assert.True(t, tensor.CloseF32(c, want, 1e-3))
}

// S4 — Sampling determinism.
func TestRandomSampleArgmaxSeed(t *testing.T) {
	x := tensor.New([]float32{0.1, 0.9, 0.3, 0.9}, []int{4})
	got := RandomSample(x, 0.9, 30, 0, nil)
	assert.Equal(t, uint32(1), got)
}

func TestRandomSampleFallsBackToArgmax(t *testing.T) {
	x := tensor.New([]float32{0.1, 0.9, 0.3, 0.9}, []int{4})
	assert.Equal(t, uint32(1), RandomSample(x, 0, 30, 1, nil))
	assert.Equal(t, uint32(1), RandomSample(x, 0.9, 1, 1, nil))
	assert.Equal(t, uint32(1), RandomSample(x, -1, 30, 1, nil))
}

// Invariant 2: masked softmax rows sum to 1 within the causal window and
// are exactly 0 outside it.
func TestMaskedSoftmaxInvariant(t *testing.T) {
	y := tensor.New([]float32{
		1, 2, 3, 4,
		1, 2, 3, 4,
	}, []int{2, 4})
	MaskedSoftmax(y)
	data := y.Data()

	// row 0: Sq=2, Stot=4, boundary(0) = 4-2+0+1 = 3
	var sum0 float32
	for j := 0; j < 3; j++ {
		sum0 += data[j]
	}
	assert.InDelta(t, 1.0, sum0, 1e-5)
	assert.Equal(t, float32(0), data[3])

	// row 1: boundary(1) = 4
	var sum1 float32
	for j := 4; j < 8; j++ {
		sum1 += data[j]
	}
	assert.InDelta(t, 1.0, sum1, 1e-5)
}

// Invariant 3: RMSNorm output RMS is 1 when weights are all 1 and eps -> 0.
func TestRMSNormUnitInvariant(t *testing.T) {
	x := tensor.New([]float32{3, 4}, []int{1, 2})
	w := tensor.New([]float32{1, 1}, []int{2})
	y := tensor.Zeros[float32](1, 2)
	RMSNorm(y, x, w, 1e-12)
	var ss float32
	for _, v := range y.Data() {
		ss += v * v
	}
	rms := ss / 2
	assert.InDelta(t, 1.0, rms, 1e-3)
}

// Invariant 4: RoPE(start_pos) then RoPE(-start_pos) is the identity.
func TestRoPERoundTripInvariant(t *testing.T) {
	orig := []float32{1, 2, 3, 4}
	y := tensor.New(append([]float32(nil), orig...), []int{1, 1, 4})
	RoPE(y, 5, 10000)
	RoPE(y, -5, 10000)
	want := tensor.New(orig, []int{1, 1, 4})
	assert.True(t, tensor.CloseF32(y, want, 1e-3))
}

func TestGatherWidensAndChecksRange(t *testing.T) {
	table := tensor.New([]float32{1, 2, 3, 4, 5, 6}, []int{3, 2})
	y := tensor.Zeros[float32](2, 2)
	Gather(y, []uint32{2, 0}, table)
	want := tensor.New([]float32{5, 6, 1, 2}, []int{2, 2})
	assert.True(t, tensor.CloseF32(y, want, 1e-6))

	assert.Panics(t, func() {
		Gather(tensor.Zeros[float32](1, 2), []uint32{5}, table)
	})
}

func TestDot(t *testing.T) {
	a := tensor.New([]float32{1, 2, 3}, []int{3})
	b := tensor.New([]float32{4, 5, 6}, []int{3})
	require.Equal(t, float32(32), Dot(a, b))
}

// fixedRand lets sampling tests pin the uniform draw without depending on
// math/rand's global sequence.
type fixedRand float32

func (f fixedRand) Float32() float32 { return float32(f) }

func TestRandomSampleDrawsWithinThreshold(t *testing.T) {
	x := tensor.New([]float32{5, 1, 1, 1}, []int{4})
	// u=0 always selects the first sorted (highest-logit) entry.
	got := RandomSample(x, 0.95, 4, 0.8, fixedRand(0))
	assert.Equal(t, uint32(0), got)
}

func TestBF16RoundTrip(t *testing.T) {
	f := float32(3.140625) // exactly representable in bf16
	b := BF16FromF32(f)
	assert.Equal(t, f, b.ToF32())
}

func TestDecodeBF16RowMatchesScalarPath(t *testing.T) {
	vals := []float32{1, -2.5, 0.125, 42}
	raw := make([]byte, 0, len(vals)*2)
	for _, v := range vals {
		b := BF16FromF32(v)
		raw = append(raw, byte(b), byte(b>>8))
	}
	decoded := DecodeBF16Row(raw)
	require.Len(t, decoded, len(vals))
	for i, v := range vals {
		assert.InDelta(t, float64(v), float64(decoded[i]), 1e-2)
	}
}

func init() {
	// deterministic fallback so any stray use of the package rand source in
	// future tests doesn't flake
	rand.Seed(1)
}
