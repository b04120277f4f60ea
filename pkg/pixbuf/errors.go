package pixbuf

import "errors"

// Common errors. All support errors.Is through wrapping.
var (
	// ErrInvalidHandle is returned when a handle does not refer to a live buffer.
	ErrInvalidHandle = errors.New("invalid pixel buffer handle")

	// ErrBounds is returned when an offset/length pair falls outside a buffer.
	ErrBounds = errors.New("pixel buffer bounds violation")

	// ErrAllocation is returned when a full copy cannot be allocated.
	ErrAllocation = errors.New("pixel buffer allocation failed")

	// ErrRegistryFull is returned by Register when every slot is taken.
	ErrRegistryFull = errors.New("pixel buffer registry full")

	// ErrInvalidBuffer is returned by Register for nil or malformed buffers.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
)
