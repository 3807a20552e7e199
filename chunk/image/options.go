package image

import "log/slog"

// OpenOptions controls how an image is opened.
type OpenOptions struct {
	// Writable maps the file read-write so Commit can patch it in place.
	// Default: false (read-only mapping; use Save to write a new file)
	Writable bool

	// PageSize is the dirty-range alignment. Zero uses the OS page size.
	PageSize int64

	// Logger receives diagnostics for the image and its chunks.
	// Default: discard
	Logger *slog.Logger
}

// DefaultOpenOptions returns read-only options with OS page alignment.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{}
}
