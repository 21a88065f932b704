// Package session bounds how many generation streams may run
// concurrently over one shared, read-only model.ParameterSet. spec.md §5
// allows "the enclosing service may run multiple generations concurrently
// by holding independent caches over the same immutable parameter set" —
// Pool is that enclosing service's concurrency control, grounded on the
// teacher's use of golang.org/x/sync for its own scheduler.
package session

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/model"
)

// Pool runs Generate calls against a shared model, bounded to at most
// maxConcurrent in flight at once. The model's ParameterSet is read-only
// and safe for any number of concurrent readers; each call still gets its
// own Cache via model.NewStream.
type Pool[T kernel.Weight] struct {
	m   *model.Model[T]
	sem *semaphore.Weighted
}

// NewPool builds a Pool over m, admitting at most maxConcurrent
// simultaneous generations.
func NewPool[T kernel.Weight](m *model.Model[T], maxConcurrent int64) *Pool[T] {
	return &Pool[T]{m: m, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Generate blocks until a slot is free (or ctx is done), then runs one
// full generation on its own Stream. Cancellation is observed only at
// acquire time: once a slot is acquired, the generation runs to completion
// even if ctx is cancelled, and ctx is not checked between decode steps.
func (p *Pool[T]) Generate(ctx context.Context, ids []uint32, maxNew int, params model.SampleParams) ([]uint32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	stream := model.NewStream(p.m)
	return stream.Generate(ids, maxNew, params), nil
}
