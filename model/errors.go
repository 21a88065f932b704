package model

import "errors"

// Error kinds raised at model construction (spec.md §7). Kernel-level
// preconditions panic instead; these are returned to the caller of Load
// because a bad archive is an input-validation failure, not a bug.
var (
	ErrMissingParameter = errors.New("model: missing parameter")
	ErrMalformedTensor  = errors.New("model: malformed tensor")
	ErrUnsupportedDtype = errors.New("model: unsupported dtype")
)
