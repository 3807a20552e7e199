package source

import "errors"

var (
	// ErrReadOnly indicates a write to a source opened read-only.
	ErrReadOnly = errors.New("source: read-only")
	// ErrFixedSize indicates a write past the end of a source that cannot grow.
	ErrFixedSize = errors.New("source: write past end of fixed-size source")
	// ErrNegativeOffset indicates a seek or positional access before offset 0.
	ErrNegativeOffset = errors.New("source: negative offset")
)
