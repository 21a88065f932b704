package kernel

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/tensor"
)

// Rand is the source of randomness RandomSample draws its uniform variate
// from. Tests substitute a fixed source (a constant draw, or a fixed-seed
// *rand.Rand) for reproducibility;
// production callers may leave it nil to use the package-level source.
type Rand interface {
	Float32() float32
}

// RandomSample converts logits for a single token position (x's last
// dimension equals its total size) to a sampled token id. If
// temperature <= 0, top_k < 2, or top_p <= 0 it returns the argmax,
// tie-broken toward the lower index by a stable left-to-right scan.
// Otherwise it sorts by descending logit (ties broken by ascending index),
// builds an unnormalized cumulative distribution whose top entry is forced
// to 1.0 (see design notes: this is intentional, not a normalization bug),
// and draws uniformly below min(top-k cutoff, top-p cutoff).
//
// Sampling is the only nondeterministic kernel; it never fails — an empty
// x is a caller bug and panics like any other kernel precondition.
func RandomSample(x *tensor.Tensor[float32], topP float32, topK int, temperature float32, r Rand) uint32 {
	shape := x.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != x.Size() {
		panic(fmt.Sprintf("kernel.RandomSample: x's last dim must equal its size, got shape %v", shape))
	}
	data := x.Data()
	if len(data) == 0 {
		panic("kernel.RandomSample: empty logits")
	}

	if temperature <= 0 || topK < 2 || topP <= 0 {
		best := 0
		for i := 1; i < len(data); i++ {
			if data[i] > data[best] {
				best = i
			}
		}
		return uint32(best)
	}

	type scored struct {
		val float32
		tok uint32
	}
	sorted := make([]scored, len(data))
	for i, v := range data {
		sorted[i] = scored{val: v, tok: uint32(i)}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].val != sorted[j].val {
			return sorted[i].val > sorted[j].val
		}
		return sorted[i].tok < sorted[j].tok
	})

	m := sorted[0].val
	cum := make([]float32, len(sorted))
	cum[0] = 1.0
	for i := 1; i < len(sorted); i++ {
		cum[i] = cum[i-1] + math32.Exp((sorted[i].val-m)/temperature)
	}

	kCut := topK
	if kCut > len(cum) {
		kCut = len(cum)
	}
	tk := cum[kCut-1]
	tp := cum[len(cum)-1] * topP

	var u float32
	if r != nil {
		u = r.Float32()
	} else {
		u = rand.Float32()
	}
	threshold := u * min32(tk, tp)

	for i, c := range cum {
		if c >= threshold {
			return sorted[i].tok
		}
	}
	return sorted[len(sorted)-1].tok
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
