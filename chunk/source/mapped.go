package source

import (
	"fmt"

	"github.com/joshuapare/elfkit/internal/mmfile"
)

// Mapped is a Buffer over a memory-mapped file.
//
// A read-only mapping rejects writes. A writable mapping is fixed-size:
// writes go straight to the shared mapping and reach the file when flushed
// or closed.
type Mapped struct {
	*Buffer

	path     string
	writable bool
	cleanup  func() error
}

// Open maps path read-only.
func Open(path string) (*Mapped, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &Mapped{Buffer: NewReadOnly(data), path: path, cleanup: cleanup}, nil
}

// OpenWritable maps path read-write.
func OpenWritable(path string) (*Mapped, error) {
	data, cleanup, err := mmfile.MapWritable(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &Mapped{Buffer: NewFixed(data), path: path, writable: true, cleanup: cleanup}, nil
}

// Path returns the mapped file's path.
func (m *Mapped) Path() string { return m.path }

// Writable reports whether stores reach the file.
func (m *Mapped) Writable() bool { return m.writable }

// Closed reports whether Close was called.
func (m *Mapped) Closed() bool { return m.cleanup == nil }

// Close unmaps the file. Further calls return nil.
func (m *Mapped) Close() error {
	if m.cleanup == nil {
		return nil
	}
	cleanup := m.cleanup
	m.cleanup = nil
	m.Buffer = NewReadOnly(nil)
	if err := cleanup(); err != nil {
		return fmt.Errorf("source: close %s: %w", m.path, err)
	}
	return nil
}
