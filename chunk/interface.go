package chunk

import (
	"io"
	"log/slog"
)

// Source is a seekable backing store chunks load their bytes from.
// Load seeks to an absolute offset and then reads.
type Source interface {
	io.ReadSeeker
}

// Sink is a seekable output chunks reconstruct their byte ranges into.
// Write seeks to an absolute offset and then writes.
type Sink interface {
	io.WriteSeeker
}

// Issuer is an owning structure notified whenever a chunk it issued changes.
//
// Affect is called after every data, offset or size mutation and on removal.
// The issuer does not own the chunk.
type Issuer interface {
	Affect(n Node)
}

// RangeTracker receives the absolute byte ranges touched by chunk mutations.
// A moved or resized chunk reports both its old and its new range.
type RangeTracker interface {
	Add(off, length int64)
}

// Node is any chunk-backed element of a tree: *Chunk, *Page, or a format
// specific type embedding Chunk.
type Node interface {
	Issuer

	Start() int64
	End() int64
	Size() int64

	// Chunks returns the chunks this node represents, in output order.
	Chunks() []Node

	// Write reconstructs the node's byte range into sink and returns its size.
	Write(sink Sink) (int64, error)

	// Remove logically deletes the node.
	Remove(force bool) error

	base() *Chunk
}

// Props is the configuration context shared by the chunks of one tree.
// Any field may be nil.
type Props struct {
	// Source is the default backing store used by Load.
	Source Source

	// Registry counts live chunks for leak diagnostics.
	Registry *Registry

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	// Dirty is told about every byte range a mutation touches.
	Dirty RangeTracker
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (p *Props) source() Source {
	if p == nil {
		return nil
	}
	return p.Source
}

func (p *Props) registry() *Registry {
	if p == nil {
		return nil
	}
	return p.Registry
}

func (p *Props) logger() *slog.Logger {
	if p == nil || p.Logger == nil {
		return discard
	}
	return p.Logger
}

func (p *Props) tracker() RangeTracker {
	if p == nil {
		return nil
	}
	return p.Dirty
}
