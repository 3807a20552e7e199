// Package buf contains overflow-safe range arithmetic for chunk offsets.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// End returns off+size, or an error when the range is negative or overflows.
func End(off, size int64) (int64, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if size < 0 {
		return 0, fmt.Errorf("negative size: %d", size)
	}
	end, ok := AddOverflowSafe(off, size)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", off, size)
	}
	return end, nil
}

// Contains reports whether [start, end) lies inside [outerStart, outerEnd).
// An empty inner range is contained when its start falls within the outer bounds.
func Contains(outerStart, outerEnd, start, end int64) bool {
	return start >= outerStart && end <= outerEnd && start <= end
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd) share a byte.
func Overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && bStart < aEnd
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int64) ([]byte, bool) {
	if off < 0 || n < 0 || off > int64(len(b)) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > int64(len(b)) {
		return nil, false
	}
	return b[off:end], true
}

// Clamp returns b[off:off+n] truncated to what b actually holds.
// The result is empty when off is past the end of b.
func Clamp(b []byte, off, n int64) []byte {
	if off < 0 || n <= 0 || off >= int64(len(b)) {
		return nil
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > int64(len(b)) {
		end = int64(len(b))
	}
	return b[off:end]
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int64) bool {
	_, ok := Slice(b, off, n)
	return ok
}
