//go:build unix && !darwin

package dirty

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each coalesced range. Linux and the BSDs accept
// sub-slices of a mapping that start on an OS page, so ranges coalesced to a
// smaller alignment are widened first.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	page := int64(os.Getpagesize())
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end, ok := clip(align(r, page), len(data))
		if !ok {
			continue
		}
		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}
