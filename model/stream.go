package model

import (
	"github.com/google/uuid"

	"github.com/ollamacore/llamacore/kernel"
)

// Profile is a named SampleParams preset. original_source/src/main.rs
// calls its two HTTP routes with two different fixed profiles — a
// low-temperature "story" completion and a chat turn at temperature 1 —
// which spec.md §9 turns into an open question ("temperature is a
// caller-provided parameter, not a model property"). SPEC_FULL keeps
// that resolution but names the two call-site presets so callers have a
// concrete, reusable default to reach for instead of re-deriving the
// constants.
type Profile struct {
	Name   string
	Params SampleParams
}

var (
	StoryProfile = Profile{Name: "story", Params: SampleParams{TopP: 0.8, TopK: 30, Temperature: 0.6}}
	ChatProfile  = Profile{Name: "chat", Params: SampleParams{TopP: 0.8, TopK: 30, Temperature: 1.0}}
)

// Stream is one generation's identity and owns its own Cache. Streams
// over the same Model are independent and may run concurrently
// (spec.md §5): the Model and its ParameterSet are read-only and shared,
// the Cache is exclusive to the Stream that created it.
type Stream[T kernel.Weight] struct {
	ID    uuid.UUID
	model *Model[T]
	cache *Cache
}

// NewStream creates a fresh generation stream bound to m, with its own
// empty Cache.
func NewStream[T kernel.Weight](m *Model[T]) *Stream[T] {
	return &Stream[T]{ID: uuid.New(), model: m, cache: m.NewCache()}
}

// Generate runs the decode loop described in model.Generate over this
// stream's own Cache, so repeated calls on the same Stream continue the
// same conversation instead of starting a fresh one. As in model.Generate,
// the last sampled token is returned but not fed through the model, so it
// is in the cache only if the caller passes it in the next call's ids.
func (s *Stream[T]) Generate(ids []uint32, maxNew int, params SampleParams) []uint32 {
	out := make([]uint32, 0, maxNew)
	logits := s.model.Forward(s.cache, ids)
	for {
		last := lastRow(logits)
		tok := kernel.RandomSample(last, params.TopP, params.TopK, params.Temperature, nil)
		out = append(out, tok)
		if tok == s.model.Config.EOSTokenID || len(out) >= maxNew {
			return out
		}
		logits = s.model.Forward(s.cache, []uint32{tok})
	}
}

// Len reports how many positions this stream's cache currently holds.
func (s *Stream[T]) Len() int { return s.cache.Len() }
