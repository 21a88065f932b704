// Package archive defines the tensor archive accessor the spec treats as
// an external collaborator: a named-tensor -> (shape, raw bytes, dtype)
// lookup. Param loading (model.Load) consumes this interface; archive
// also ships one concrete reader (a minimal safetensors decoder) so the
// repo is runnable end to end without a separate format dependency.
package archive

import "errors"

// DType tags the declared element type of a stored tensor.
type DType int

const (
	DTypeUnknown DType = iota
	DTypeF32
	DTypeBF16
	DTypeF16
)

// Entry is one named tensor's metadata plus its raw little-endian bytes.
type Entry struct {
	Name  string
	Shape []int
	Raw   []byte
	DType DType
}

// Accessor is the contract archive formats implement: look up a tensor by
// its fully-qualified name (e.g. "model.layers.0.self_attn.q_proj.weight").
type Accessor interface {
	// Tensor returns the named entry, or ErrMissingParameter if absent.
	Tensor(name string) (Entry, error)
}

var (
	ErrMissingParameter = errors.New("archive: missing parameter")
	ErrMalformedTensor  = errors.New("archive: malformed tensor")
	ErrUnsupportedDtype = errors.New("archive: unsupported dtype")
)
