//go:build !unix

package dirty

import "context"

// flushRanges is a no-op: without mmap the mapping is an in-memory copy that
// is written back to the file when it is closed.
func (t *Tracker) flushRanges(ctx context.Context, _ []byte) error {
	return ctx.Err()
}
