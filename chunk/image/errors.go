package image

import "errors"

var (
	// ErrReadOnly indicates Commit on an image opened without Writable.
	ErrReadOnly = errors.New("image: opened read-only")
	// ErrClosed indicates use of an image after Close.
	ErrClosed = errors.New("image: closed")
	// ErrSizeChanged indicates a Commit whose tree no longer matches the mapped file size.
	ErrSizeChanged = errors.New("image: tree size differs from mapped file")
	// ErrNoParent indicates Place was given nothing to place.
	ErrNoParent = errors.New("image: no enclosing node")
)
