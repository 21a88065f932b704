package model

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/tensor"
)

// Model is the transformer: config plus an immutable, shareable
// ParameterSet. A single Model may back any number of concurrent
// generations, each with its own Cache (spec.md §5) — Model itself holds
// no per-generation state.
type Model[T kernel.Weight] struct {
	Config Config
	Params *ParameterSet[T]
}

// New binds params to cfg after validating cfg's shape invariants.
func New[T kernel.Weight](cfg Config, params *ParameterSet[T]) (*Model[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model[T]{Config: cfg, Params: params}, nil
}

// NewCache allocates a fresh KV cache sized for this model.
func (m *Model[T]) NewCache() *Cache {
	kvDim := m.Config.NumKVHeads * m.Config.HeadSize
	return NewCache(m.Config.MaxSeqLen, m.Config.NumLayers, kvDim)
}

// Forward runs one prefill-or-decode step: ids is a contiguous run of Sq
// new token ids, cache's current length is past (Stot = past+Sq). It
// returns logits of shape (Sq, V); only the final row is needed by
// Generate, but all are computed because the closing matmul produces them
// regardless. Forward advances cache by len(ids) as its last act.
func (m *Model[T]) Forward(cache *Cache, ids []uint32) *tensor.Tensor[float32] {
	cfg := m.Config
	p := m.Params
	sq := len(ids)
	past := cache.Len()
	stot := past + sq
	if stot > cfg.MaxSeqLen {
		panic(fmt.Sprintf("model: forward would grow context to %d, exceeding Smax %d", stot, cfg.MaxSeqLen))
	}

	h := cfg.HiddenSize
	dh := cfg.HeadSize
	nq := cfg.NumQHeads
	nkv := cfg.NumKVHeads
	g := nq / nkv
	kvDim := nkv * dh
	theta := cfg.RoPEThetaOrDefault()
	scale := 1 / math32.Sqrt(float32(dh))

	x := tensor.Zeros[float32](sq, h)
	kernel.Gather(x, ids, p.EmbeddingTable)

	for l := 0; l < cfg.NumLayers; l++ {
		layer := p.Layers[l]

		xhat := tensor.Zeros[float32](sq, h)
		kernel.RMSNorm(xhat, x, layer.RMSAttW, cfg.RMSEps)

		ctxFlat := tensor.Zeros[float32](sq, nq*dh)

		kCache := cache.LayerK(l)
		vCache := cache.LayerV(l)

		for hk := 0; hk < nkv; hk++ {
			wkHead := layer.WK.Slice(hk*dh*h, []int{dh, h})
			wvHead := layer.WV.Slice(hk*dh*h, []int{dh, h})

			kNew := tensor.Zeros[float32](sq, dh)
			kernel.MatmulTransB(kNew, 0, xhat, wkHead, 1)
			kernel.RoPE(kNew.Reshape(sq, 1, dh), past, theta)

			vNew := tensor.Zeros[float32](sq, dh)
			kernel.MatmulTransB(vNew, 0, xhat, wvHead, 1)

			scatterHead(kCache, kvDim, hk, dh, past, kNew)
			scatterHead(vCache, kvDim, hk, dh, past, vNew)

			kAll := gatherHead(kCache, kvDim, hk, dh, stot)
			vAll := gatherHead(vCache, kvDim, hk, dh, stot)

			for gi := 0; gi < g; gi++ {
				qh := hk*g + gi
				wqHead := layer.WQ.Slice(qh*dh*h, []int{dh, h})

				qHead := tensor.Zeros[float32](sq, dh)
				kernel.MatmulTransB(qHead, 0, xhat, wqHead, 1)
				kernel.RoPE(qHead.Reshape(sq, 1, dh), past, theta)

				scores := tensor.Zeros[float32](sq, stot)
				kernel.MatmulTransB(scores, 0, qHead, kAll, scale)
				kernel.MaskedSoftmax(scores)

				ctxHead := combineContext(scores, vAll)
				scatterHead(ctxFlat, nq*dh, qh, dh, 0, ctxHead)
			}
		}

		out := tensor.Zeros[float32](sq, h)
		kernel.MatmulTransB(out, 0, ctxFlat, layer.WO, 1)
		addInPlace(x, out)

		xhatFFN := tensor.Zeros[float32](sq, h)
		kernel.RMSNorm(xhatFFN, x, layer.RMSFFNW, cfg.RMSEps)

		gate := tensor.Zeros[float32](sq, cfg.Intermediate)
		kernel.MatmulTransB(gate, 0, xhatFFN, layer.WGate, 1)
		up := tensor.Zeros[float32](sq, cfg.Intermediate)
		kernel.MatmulTransB(up, 0, xhatFFN, layer.WUp, 1)
		kernel.SwiGLU(up, gate)

		down := tensor.Zeros[float32](sq, h)
		kernel.MatmulTransB(down, 0, up, layer.WDown, 1)
		addInPlace(x, down)
	}

	kernel.RMSNorm(x, x, p.RMSOutW, cfg.RMSEps)

	logits := tensor.Zeros[float32](sq, cfg.VocabSize)
	kernel.MatmulTransB(logits, 0, x, p.LMHead, 1)

	cache.Advance(sq)
	return logits
}

// scatterHead copies the Sq rows of src (each headWidth wide) into dst's
// column block [headIdx*headWidth, (headIdx+1)*headWidth) starting at
// row rowOffset. dst's rows are rowWidth wide. This is plain data-layout
// plumbing (the Tensor type only supports contiguous slicing, and a
// single head's columns are not contiguous across rows) rather than a
// spec-level kernel.
func scatterHead(dst *tensor.Tensor[float32], rowWidth, headIdx, headWidth, rowOffset int, src *tensor.Tensor[float32]) {
	d := dst.DataMut()
	s := src.Data()
	rows := src.Shape()[0]
	for t := 0; t < rows; t++ {
		di := (rowOffset+t)*rowWidth + headIdx*headWidth
		si := t * headWidth
		copy(d[di:di+headWidth], s[si:si+headWidth])
	}
}

// gatherHead is scatterHead's inverse: it copies rows [0, rows) of a
// single head's columns out of src into a freshly allocated, contiguous
// (rows, headWidth) tensor.
func gatherHead(src *tensor.Tensor[float32], rowWidth, headIdx, headWidth, rows int) *tensor.Tensor[float32] {
	out := tensor.Zeros[float32](rows, headWidth)
	od := out.DataMut()
	sd := src.Data()
	for t := 0; t < rows; t++ {
		si := t*rowWidth + headIdx*headWidth
		copy(od[t*headWidth:(t+1)*headWidth], sd[si:si+headWidth])
	}
	return out
}

// combineContext computes ctx[t,:] = sum_s scores[t,s] * v[s,:], i.e.
// scores @ v with no transpose — the one matmul shape spec.md's kernel
// set (which only specifies the transposed-B form) doesn't cover, so it
// is inlined here rather than promoted to a kernel.
func combineContext(scores, v *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	sq := scores.Shape()[0]
	stot := scores.Shape()[1]
	dh := v.Shape()[1]
	out := tensor.Zeros[float32](sq, dh)
	sd := scores.Data()
	vd := v.Data()
	od := out.DataMut()
	for t := 0; t < sq; t++ {
		srow := sd[t*stot : t*stot+stot]
		orow := od[t*dh : t*dh+dh]
		for s := 0; s < stot; s++ {
			w := srow[s]
			if w == 0 {
				continue
			}
			vrow := vd[s*dh : s*dh+dh]
			for d := 0; d < dh; d++ {
				orow[d] += w * vrow[d]
			}
		}
	}
	return out
}

func addInPlace(x, delta *tensor.Tensor[float32]) {
	xd := x.DataMut()
	dd := delta.Data()
	for i := range xd {
		xd[i] += dd[i]
	}
}
