// Package dirty tracks the byte ranges of a chunk tree that mutations touched
// and flushes them when the tree is committed into a shared mapping.
//
// The tracker records raw ranges as chunks report them, and coalesces them
// into page-aligned ranges at flush time (msync on unix).
package dirty

import (
	"context"
	"os"
	"sort"

	"github.com/joshuapare/elfkit/chunk"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

var _ chunk.RangeTracker = (*Tracker)(nil)

// Range is a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// End returns Off+Len.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges   []Range // raw ranges, coalesced at flush time
	pageSize int64
}

// NewTracker creates a tracker aligned to the OS page size.
func NewTracker() *Tracker {
	return NewTrackerWithPageSize(int64(os.Getpagesize()))
}

// NewTrackerWithPageSize creates a tracker aligned to pageSize bytes.
// A pageSize below 1 disables alignment. Flush widens ranges to the OS page
// whatever pageSize is.
func NewTrackerWithPageSize(pageSize int64) *Tracker {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: pageSize,
	}
}

// Add records a dirty range. Empty and negative ranges are ignored.
func (t *Tracker) Add(off, length int64) {
	if off < 0 || length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: off, Len: length})
}

// Len returns the number of raw ranges recorded since the last Reset.
func (t *Tracker) Len() int { return len(t.ranges) }

// PageSize returns the alignment used when coalescing.
func (t *Tracker) PageSize() int64 { return t.pageSize }

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Raw returns a copy of the uncoalesced ranges, in the order they were added.
func (t *Tracker) Raw() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// Ranges returns the page-aligned, sorted and merged ranges a flush would write.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Flush syncs every coalesced range that lies within data, the shared mapping
// the tree was committed into, and clears the tracker on success.
//
// The context is checked between ranges. If cancelled during flushing, some
// ranges may have been flushed while others have not.
func (t *Tracker) Flush(ctx context.Context, data []byte) error {
	if len(t.ranges) == 0 || len(data) == 0 {
		t.Reset()
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	t.Reset()
	return nil
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		aligned[i] = align(r, t.pageSize)
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// align rounds the start of r down and its end up to a multiple of page.
func align(r Range, page int64) Range {
	if page <= 1 {
		return r
	}
	start := (r.Off / page) * page
	end := r.End()
	if end%page != 0 {
		end = ((end / page) + 1) * page
	}
	return Range{Off: start, Len: end - start}
}

// clip bounds r to a mapping of n bytes. ok is false when nothing remains.
func clip(r Range, n int) (start, end int, ok bool) {
	if r.Off >= int64(n) {
		return 0, 0, false
	}
	end64 := r.End()
	if end64 > int64(n) {
		end64 = int64(n)
	}
	return int(r.Off), int(end64), true
}
