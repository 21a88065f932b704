package archive

import "fmt"

// Memory is an in-memory Accessor, used by model-loading tests and by
// callers that already have tensors materialized (e.g. converted from
// another format upstream of this package).
type Memory map[string]Entry

// Tensor implements Accessor.
func (m Memory) Tensor(name string) (Entry, error) {
	e, ok := m[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	return e, nil
}
