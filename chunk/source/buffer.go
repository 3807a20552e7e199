// Package source provides seekable backing stores for chunk trees: an
// in-memory Buffer and memory-mapped files.
package source

import (
	"fmt"
	"io"
)

// Buffer is an in-memory io.ReadWriteSeeker over a byte slice.
//
// A growable buffer zero-fills when written past its end; a fixed one
// rejects such writes, which is what a mapping needs. A read-only buffer
// rejects all writes.
type Buffer struct {
	b        []byte
	off      int64
	fixed    bool
	readOnly bool
}

// NewBuffer returns a growable buffer that starts out holding b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// NewFixed returns a buffer whose length never changes. Writes land in b.
func NewFixed(b []byte) *Buffer {
	return &Buffer{b: b, fixed: true}
}

// NewReadOnly returns a buffer that only supports reads.
func NewReadOnly(b []byte) *Buffer {
	return &Buffer{b: b, fixed: true, readOnly: true}
}

// Bytes returns the underlying slice. It is shared with the buffer.
func (b *Buffer) Bytes() []byte { return b.b }

// Len returns the current length in bytes.
func (b *Buffer) Len() int { return len(b.b) }

// Read implements io.Reader.
func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.ReadAt(p, b.off)
	b.off += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= int64(len(b.b)) {
		return 0, io.EOF
	}
	n := copy(p, b.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	n, err := b.WriteAt(p, b.off)
	b.off += int64(n)
	return n, err
}

// WriteAt implements io.WriterAt.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if b.readOnly {
		return 0, ErrReadOnly
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	end := off + int64(len(p))
	if end > int64(len(b.b)) {
		if b.fixed {
			n := 0
			if off < int64(len(b.b)) {
				n = copy(b.b[off:], p)
			}
			return n, fmt.Errorf("source: write [%#x,%#x) into %d bytes: %w", off, end, len(b.b), ErrFixedSize)
		}
		b.grow(end)
	}
	return copy(b.b[off:], p), nil
}

func (b *Buffer) grow(n int64) {
	if n <= int64(cap(b.b)) {
		b.b = b.b[:n]
		return
	}
	nb := make([]byte, n, max(n, 2*int64(cap(b.b))))
	copy(nb, b.b)
	b.b = nb
}

// Seek implements io.Seeker. Seeking past the end is allowed.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.b)) + offset
	default:
		return 0, fmt.Errorf("source: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, ErrNegativeOffset
	}
	b.off = abs
	return abs, nil
}
