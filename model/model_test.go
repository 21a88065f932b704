package model

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamacore/llamacore/archive"
	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/tensor"
)

func tinyConfig() Config {
	return Config{
		VocabSize:         8,
		HiddenSize:        4,
		Intermediate:      8,
		NumLayers:         2,
		NumQHeads:         2,
		NumKVHeads:        1,
		HeadSize:          2,
		RMSEps:            1e-6,
		RoPETheta:         10000,
		MaxSeqLen:         16,
		EOSTokenID:        7,
		DType:             DTypeF32,
		TieWordEmbeddings: true,
	}
}

func f32Row(seed float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = seed + float32(i)*0.01
	}
	return out
}

func f32Bytes(vals []float32) []byte {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		bits := math.Float32bits(v)
		out = append(out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return out
}

func tinyArchive(t *testing.T, cfg Config) archive.Memory {
	t.Helper()
	mem := archive.Memory{}
	put := func(name string, shape []int, seed float32) {
		n := 1
		for _, s := range shape {
			n *= s
		}
		vals := f32Row(seed, n)
		mem[name] = archive.Entry{Name: name, Shape: shape, Raw: f32Bytes(vals), DType: archive.DTypeF32}
	}

	h, i, v := cfg.HiddenSize, cfg.Intermediate, cfg.VocabSize
	qdim := cfg.NumQHeads * cfg.HeadSize
	kvdim := cfg.NumKVHeads * cfg.HeadSize

	put("lm_head.weight", []int{v, h}, 0.01)
	for l := 0; l < cfg.NumLayers; l++ {
		p := "model.layers." + strconv.Itoa(l) + "."
		seed := float32(l+1) * 0.02
		put(p+"input_layernorm.weight", []int{h}, 1.0)
		put(p+"self_attn.q_proj.weight", []int{qdim, h}, seed+0.001)
		put(p+"self_attn.k_proj.weight", []int{kvdim, h}, seed+0.002)
		put(p+"self_attn.v_proj.weight", []int{kvdim, h}, seed+0.003)
		put(p+"self_attn.o_proj.weight", []int{h, qdim}, seed+0.004)
		put(p+"post_attention_layernorm.weight", []int{h}, 1.0)
		put(p+"mlp.up_proj.weight", []int{i, h}, seed+0.005)
		put(p+"mlp.gate_proj.weight", []int{i, h}, seed+0.006)
		put(p+"mlp.down_proj.weight", []int{h, i}, seed+0.007)
	}
	put("model.norm.weight", []int{h}, 1.0)

	return mem
}

func TestLoadAndForwardProduceShapedLogits(t *testing.T) {
	cfg := tinyConfig()
	mem := tinyArchive(t, cfg)

	params, err := Load[float32](mem, cfg)
	require.NoError(t, err)

	m, err := New(cfg, params)
	require.NoError(t, err)

	cache := m.NewCache()
	logits := m.Forward(cache, []uint32{1, 2, 3})

	assert.Equal(t, []int{3, cfg.VocabSize}, logits.Shape())
	assert.Equal(t, 3, cache.Len())
}

// Invariant 1: cache.Len() advances by exactly Sq after forward.
func TestForwardAdvancesCacheByExactlySq(t *testing.T) {
	cfg := tinyConfig()
	mem := tinyArchive(t, cfg)
	params, err := Load[float32](mem, cfg)
	require.NoError(t, err)
	m, err := New(cfg, params)
	require.NoError(t, err)

	cache := m.NewCache()
	m.Forward(cache, []uint32{1, 2, 3})
	require.Equal(t, 3, cache.Len())

	m.Forward(cache, []uint32{4})
	require.Equal(t, 4, cache.Len())
}

func TestLoadMissingParameterFails(t *testing.T) {
	cfg := tinyConfig()
	mem := tinyArchive(t, cfg)
	delete(mem, "model.norm.weight")

	_, err := Load[float32](mem, cfg)
	require.ErrorIs(t, err, ErrMissingParameter)
}

func TestLoadMalformedShapeFails(t *testing.T) {
	cfg := tinyConfig()
	mem := tinyArchive(t, cfg)
	mem["model.norm.weight"] = archive.Entry{
		Name: "model.norm.weight", Shape: []int{cfg.HiddenSize + 1},
		Raw: f32Bytes(f32Row(1, cfg.HiddenSize+1)), DType: archive.DTypeF32,
	}

	_, err := Load[float32](mem, cfg)
	require.ErrorIs(t, err, ErrMalformedTensor)
}

func TestTieWordEmbeddingsSharesStorage(t *testing.T) {
	cfg := tinyConfig()
	cfg.TieWordEmbeddings = true
	mem := tinyArchive(t, cfg)
	params, err := Load[float32](mem, cfg)
	require.NoError(t, err)

	// Invariant 7: mutating the embedding table is observable through
	// lm_head because they're the same storage, not merely equal values.
	params.EmbeddingTable.DataMut()[0] = 12345
	assert.Equal(t, float32(12345), params.LMHead.Data()[0])
}

func TestGenerateStopsAtMaxNewTokens(t *testing.T) {
	cfg := tinyConfig()
	cfg.EOSTokenID = 999 // unreachable, forces maxNew to be the stop condition
	mem := tinyArchive(t, cfg)
	params, err := Load[float32](mem, cfg)
	require.NoError(t, err)
	m, err := New(cfg, params)
	require.NoError(t, err)

	out := m.Generate([]uint32{1, 2}, 5, SampleParams{Temperature: 0})
	assert.Len(t, out, 5)
}

func TestStreamContinuesSameCacheAcrossCalls(t *testing.T) {
	cfg := tinyConfig()
	cfg.EOSTokenID = 999
	mem := tinyArchive(t, cfg)
	params, err := Load[float32](mem, cfg)
	require.NoError(t, err)
	m, err := New(cfg, params)
	require.NoError(t, err)

	s := NewStream(m)
	// 2 prompt ids + the first sampled token; the last sampled token is
	// returned without being fed back through the model.
	s.Generate([]uint32{1, 2}, 2, SampleParams{Temperature: 0})
	assert.Equal(t, 3, s.Len())
	s.Generate([]uint32{3}, 1, SampleParams{Temperature: 0})
	assert.Equal(t, 4, s.Len())
}

func TestCacheAdvanceBeyondSmaxPanics(t *testing.T) {
	c := NewCache(4, 1, 2)
	c.Advance(4)
	assert.Panics(t, func() { c.Advance(1) })
}

func TestKernelWeightWidenUsedByLoad(t *testing.T) {
	// sanity: 2.5 survives the BF16FromF32/ToF32 narrowing that decodeElems
	// applies to bf16 tensors (decodeElems itself is not called here).
	var v kernel.BF16 = kernel.BF16FromF32(2.5)
	assert.Equal(t, float32(2.5), v.ToF32())
	assert.Equal(t, []int{2}, tensor.New([]float32{1, 2}, []int{2}).Shape())
}
