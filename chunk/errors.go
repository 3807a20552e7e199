package chunk

import "errors"

// Removal errors
var (
	// ErrRemovalRefused indicates Remove was called on a protected chunk without force.
	ErrRemovalRefused = errors.New("chunk: removal refused for protected chunk")
)

// Range errors
var (
	// ErrInvalidRange indicates a negative size, a negative offset or an overflowing bound.
	ErrInvalidRange = errors.New("chunk: invalid range")

	// ErrUnbound indicates an operation that needs an absolute offset on a chunk without one.
	ErrUnbound = errors.New("chunk: offset not bound")
)

// Structural errors
var (
	// ErrOutOfRange indicates an include whose range is not contained in its parent.
	ErrOutOfRange = errors.New("chunk: include outside parent range")

	// ErrOverlap indicates includes that overlap each other or are out of order.
	ErrOverlap = errors.New("chunk: overlapping includes")

	// ErrAlreadyIncluded indicates a chunk already nested in another parent.
	ErrAlreadyIncluded = errors.New("chunk: already included elsewhere")

	// ErrNotIncluded indicates DelInclude was given a chunk that is not an include.
	ErrNotIncluded = errors.New("chunk: not an include")
)

// I/O and lifecycle errors
var (
	// ErrShortRead indicates the source ended before the chunk's size was read.
	ErrShortRead = errors.New("chunk: short read from source")

	// ErrDisposed indicates a mutation on a chunk that was already disposed.
	ErrDisposed = errors.New("chunk: disposed")
)
