package model

import (
	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/tensor"
)

// SampleParams are the caller-provided sampling knobs spec.md §9 treats
// as properties of the call, not of the model: nothing here is baked
// into Config.
type SampleParams struct {
	TopP        float32
	TopK        int
	Temperature float32
}

// Generate runs the full decode loop: prefill the prompt, then repeatedly
// sample and decode one token at a time until EOS or maxNew tokens have
// been produced. It returns only the newly generated ids (the prompt is
// not included). A fresh Cache is created for the call and discarded when
// it returns.
func (m *Model[T]) Generate(ids []uint32, maxNew int, params SampleParams) []uint32 {
	return m.GenerateWithRand(ids, maxNew, params, nil)
}

// GenerateWithRand is Generate with an injectable random source, for
// callers that need reproducible output from a fixed seed.
func (m *Model[T]) GenerateWithRand(ids []uint32, maxNew int, params SampleParams, r kernel.Rand) []uint32 {
	cache := m.NewCache()
	out := make([]uint32, 0, maxNew)

	logits := m.Forward(cache, ids)
	for {
		last := lastRow(logits)
		tok := kernel.RandomSample(last, params.TopP, params.TopK, params.Temperature, r)
		out = append(out, tok)

		if tok == m.Config.EOSTokenID || len(out) >= maxNew {
			return out
		}

		logits = m.Forward(cache, []uint32{tok})
	}
}

// lastRow returns a view over logits' final row — the only row Generate
// needs, though Forward computes every row.
func lastRow(logits *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	shape := logits.Shape()
	rows, cols := shape[0], shape[1]
	return logits.Slice((rows-1)*cols, []int{cols})
}
