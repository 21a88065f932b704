package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ollamacore/llamacore/archive"
	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/tensor"
)

// Layer holds one decoder block's weights.
type Layer[T kernel.Weight] struct {
	RMSAttW *tensor.Tensor[T] // (H)
	WQ      *tensor.Tensor[T] // (Nq*Dh, H)
	WK      *tensor.Tensor[T] // (Nkv*Dh, H)
	WV      *tensor.Tensor[T] // (Nkv*Dh, H)
	WO      *tensor.Tensor[T] // (H, Nq*Dh)
	RMSFFNW *tensor.Tensor[T] // (H)
	WUp     *tensor.Tensor[T] // (I, H)
	WGate   *tensor.Tensor[T] // (I, H)
	WDown   *tensor.Tensor[T] // (H, I)
}

// ParameterSet is the immutable collection of weight tensors bound to a
// Config. Once Load returns, nothing in here is ever mutated again — it
// may be shared read-only across any number of concurrent Streams.
type ParameterSet[T kernel.Weight] struct {
	EmbeddingTable *tensor.Tensor[T] // (V, H); aliases LMHead if tied
	Layers         []Layer[T]
	RMSOutW        *tensor.Tensor[T] // (H)
	LMHead         *tensor.Tensor[T] // (V, H)
}

// Load binds an archive.Accessor to cfg's parameter layout, following the
// naming template in spec.md §4.3. It returns ErrMissingParameter if a
// required tensor is absent, or ErrMalformedTensor if its byte length
// disagrees with its declared shape.
func Load[T kernel.Weight](acc archive.Accessor, cfg Config) (*ParameterSet[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	get := func(name string, shape []int) (*tensor.Tensor[T], error) {
		entry, err := acc.Tensor(name)
		if err != nil {
			switch {
			case errors.Is(err, archive.ErrMissingParameter):
				return nil, fmt.Errorf("model: loading %q: %w", name, ErrMissingParameter)
			case errors.Is(err, archive.ErrUnsupportedDtype):
				return nil, fmt.Errorf("model: loading %q: %w", name, ErrUnsupportedDtype)
			default:
				return nil, fmt.Errorf("model: loading %q: %w", name, ErrMalformedTensor)
			}
		}
		if !shapeEqual(entry.Shape, shape) {
			return nil, fmt.Errorf("model: %w: tensor %q has shape %v, want %v", ErrMalformedTensor, name, entry.Shape, shape)
		}
		data, err := decodeElems[T](entry.Raw, entry.DType)
		if err != nil {
			return nil, fmt.Errorf("model: decoding %q: %w", name, err)
		}
		want := 1
		for _, s := range shape {
			want *= s
		}
		if len(data) != want {
			return nil, fmt.Errorf("model: %w: tensor %q has %d elements, shape %v wants %d", ErrMalformedTensor, name, len(data), shape, want)
		}
		return tensor.New(data, shape), nil
	}

	h, i, v := cfg.HiddenSize, cfg.Intermediate, cfg.VocabSize
	qdim := cfg.NumQHeads * cfg.HeadSize
	kvdim := cfg.NumKVHeads * cfg.HeadSize

	lmHead, err := get("lm_head.weight", []int{v, h})
	if err != nil {
		return nil, err
	}

	var embed *tensor.Tensor[T]
	if cfg.TieWordEmbeddings {
		embed = lmHead
	} else {
		embed, err = get("model.embed_tokens.weight", []int{v, h})
		if err != nil {
			return nil, err
		}
	}

	layers := make([]Layer[T], cfg.NumLayers)
	for l := 0; l < cfg.NumLayers; l++ {
		prefix := fmt.Sprintf("model.layers.%d.", l)
		var layer Layer[T]
		if layer.RMSAttW, err = get(prefix+"input_layernorm.weight", []int{h}); err != nil {
			return nil, err
		}
		if layer.WQ, err = get(prefix+"self_attn.q_proj.weight", []int{qdim, h}); err != nil {
			return nil, err
		}
		if layer.WK, err = get(prefix+"self_attn.k_proj.weight", []int{kvdim, h}); err != nil {
			return nil, err
		}
		if layer.WV, err = get(prefix+"self_attn.v_proj.weight", []int{kvdim, h}); err != nil {
			return nil, err
		}
		if layer.WO, err = get(prefix+"self_attn.o_proj.weight", []int{h, qdim}); err != nil {
			return nil, err
		}
		if layer.RMSFFNW, err = get(prefix+"post_attention_layernorm.weight", []int{h}); err != nil {
			return nil, err
		}
		if layer.WUp, err = get(prefix+"mlp.up_proj.weight", []int{i, h}); err != nil {
			return nil, err
		}
		if layer.WGate, err = get(prefix+"mlp.gate_proj.weight", []int{i, h}); err != nil {
			return nil, err
		}
		if layer.WDown, err = get(prefix+"mlp.down_proj.weight", []int{h, i}); err != nil {
			return nil, err
		}
		layers[l] = layer
	}

	rmsOutW, err := get("model.norm.weight", []int{h})
	if err != nil {
		return nil, err
	}

	return &ParameterSet[T]{
		EmbeddingTable: embed,
		Layers:         layers,
		RMSOutW:        rmsOutW,
		LMHead:         lmHead,
	}, nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// decodeElems widens raw little-endian bytes into T according to dtype.
// T is constrained to kernel.Weight, so exactly one of these two cases
// ever applies for a given instantiation.
func decodeElems[T kernel.Weight](raw []byte, dtype archive.DType) ([]T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		if dtype != archive.DTypeF32 {
			return nil, fmt.Errorf("%w: expected f32, archive tensor is %v", ErrUnsupportedDtype, dtype)
		}
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("%w: byte length %d not a multiple of 4", ErrMalformedTensor, len(raw))
		}
		out := make([]T, len(raw)/4)
		for idx := range out {
			bits := binary.LittleEndian.Uint32(raw[idx*4:])
			out[idx] = any(math.Float32frombits(bits)).(T)
		}
		return out, nil
	case kernel.BF16:
		if dtype != archive.DTypeBF16 && dtype != archive.DTypeF16 {
			return nil, fmt.Errorf("%w: expected bf16, archive tensor is %v", ErrUnsupportedDtype, dtype)
		}
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("%w: byte length %d not a multiple of 2", ErrMalformedTensor, len(raw))
		}
		if dtype == archive.DTypeF16 {
			out := make([]T, len(raw)/2)
			for idx := range out {
				f32 := kernel.DecodeF16Row(raw[idx*2 : idx*2+2])[0]
				out[idx] = any(kernel.BF16FromF32(f32)).(T)
			}
			return out, nil
		}
		// bf16: widen the whole row through the bulk decoder (backed by
		// github.com/d4l3k/go-bfloat16) instead of re-deriving the
		// little-endian byte unpack by hand, then narrow back to
		// kernel.BF16's storage type.
		widened := kernel.DecodeBF16Row(raw)
		out := make([]T, len(widened))
		for idx, f32 := range widened {
			out[idx] = any(kernel.BF16FromF32(f32)).(T)
		}
		return out, nil
	default:
		panic("model: unreachable weight type")
	}
}
