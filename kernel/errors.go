package kernel

import "errors"

// Sentinel error kinds for the load-time failures spec.md §7 names.
// Kernel-level precondition violations (ShapeMismatch, IndexOutOfRange at
// the numeric-kernel layer) are programming errors and panic instead of
// returning one of these — a kernel is only ever called with shapes its
// caller already validated.
var (
	ErrShapeMismatch    = errors.New("kernel: shape mismatch")
	ErrIndexOutOfRange  = errors.New("kernel: index out of range")
	ErrUnsupportedDtype = errors.New("kernel: unsupported dtype")
)
