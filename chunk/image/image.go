// Package image is an editing session over one binary file: the backing
// source, the chunk tree rooted at the whole file, and the ways to write the
// tree back.
//
//	im, err := image.Open("a.out", image.DefaultOpenOptions())
//	if err != nil {
//	    return err
//	}
//	defer im.Close()
//	sec, _ := im.NewChunk(0x1000, 0x20, nil)
//	_ = im.Place(sec)
//	_ = sec.SetData(patched)
//	return im.SaveFile("a.patched")
package image

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joshuapare/elfkit/chunk"
	"github.com/joshuapare/elfkit/chunk/dirty"
	"github.com/joshuapare/elfkit/chunk/source"
	"github.com/joshuapare/elfkit/chunk/verify"
	"github.com/joshuapare/elfkit/internal/buf"
	"github.com/joshuapare/elfkit/internal/writer"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// backing is what an image reads from and commits into.
type backing interface {
	chunk.Source
	chunk.Sink
	Bytes() []byte
	Len() int
}

// Image owns a chunk tree over a backing file.
//
// Chunks created through NewChunk and NewPage are disposed by Close; any
// other chunk created with the image's props shows up as a leak.
type Image struct {
	path   string
	perm   fs.FileMode
	src    backing
	mapped *source.Mapped // nil for in-memory images

	props   *chunk.Props
	tracker *dirty.Tracker
	root    *chunk.Chunk
	owned   []chunk.Node
	log     *slog.Logger
	closed  bool
}

// Open maps the file at path and loads a root chunk covering all of it.
func Open(path string, opts OpenOptions) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	var m *source.Mapped
	if opts.Writable {
		m, err = source.OpenWritable(path)
	} else {
		m, err = source.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	im, err := newImage(m, opts)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	im.path = path
	im.perm = info.Mode().Perm()
	im.mapped = m
	im.log.Debug("image: opened", "path", path, "size", im.Size(), "writable", opts.Writable)
	return im, nil
}

// New wraps data in an in-memory image. The image takes ownership of data.
func New(data []byte, opts OpenOptions) (*Image, error) {
	return newImage(source.NewBuffer(data), opts)
}

func newImage(src backing, opts OpenOptions) (*Image, error) {
	log := opts.Logger
	if log == nil {
		log = discard
	}
	tracker := dirty.NewTracker()
	if opts.PageSize > 0 {
		tracker = dirty.NewTrackerWithPageSize(opts.PageSize)
	}
	props := &chunk.Props{
		Source:   src,
		Registry: chunk.NewRegistry(),
		Logger:   log,
		Dirty:    tracker,
	}
	root, err := chunk.NewLoaded(props, 0, int64(src.Len()), nil)
	if err != nil {
		return nil, fmt.Errorf("image: load root: %w", err)
	}
	root.SetProtected(true)
	return &Image{
		perm:    writer.DefaultPerm,
		src:     src,
		props:   props,
		tracker: tracker,
		root:    root,
		log:     log,
	}, nil
}

// Path returns the file the image was opened from, or "" for in-memory images.
func (im *Image) Path() string { return im.path }

// Root returns the chunk covering the whole file.
func (im *Image) Root() *chunk.Chunk { return im.root }

// Props returns the configuration context shared by the image's chunks.
func (im *Image) Props() *chunk.Props { return im.props }

// Registry returns the live-chunk registry.
func (im *Image) Registry() *chunk.Registry { return im.props.Registry }

// Dirty returns the tracker fed by chunk mutations.
func (im *Image) Dirty() *dirty.Tracker { return im.tracker }

// Size returns the root's current size.
func (im *Image) Size() int64 { return im.root.Size() }

// Live returns the number of chunks not yet disposed.
func (im *Image) Live() int64 { return im.props.Registry.Count() }

// NewChunk creates a chunk over [offset, offset+size) and loads it from the image.
// Chunks past the end of the file are created empty and flagged inserted.
func (im *Image) NewChunk(offset, size int64, issuer chunk.Issuer) (*chunk.Chunk, error) {
	if im.closed {
		return nil, ErrClosed
	}
	c, err := chunk.New(im.props, offset, size, issuer)
	if err != nil {
		return nil, err
	}
	if im.inFile(offset, size) {
		if err := c.Load(); err != nil {
			c.Dispose()
			return nil, err
		}
	} else {
		c.MarkInserted()
	}
	im.owned = append(im.owned, c)
	return c, nil
}

// NewPage creates a page body for header over [offset, offset+size).
func (im *Image) NewPage(header chunk.Node, offset, size int64) (*chunk.Page, error) {
	if im.closed {
		return nil, ErrClosed
	}
	p, err := chunk.NewPage(header, offset, size)
	if err != nil {
		return nil, err
	}
	im.owned = append(im.owned, p)
	return p, nil
}

func (im *Image) inFile(offset, size int64) bool {
	end, err := buf.End(offset, size)
	return err == nil && end <= int64(im.src.Len())
}

// Place nests n in the innermost node of the tree whose range contains it.
func (im *Image) Place(n chunk.Node) error {
	if im.closed {
		return ErrClosed
	}
	if n == nil {
		return ErrNoParent
	}
	parent := chunk.Node(im.root)
	for next := enclosing(parent, n); next != nil; next = enclosing(parent, n) {
		parent = next
	}
	if err := chunk.Base(parent).AddInclude(n); err != nil {
		return fmt.Errorf("image: place [%#x,%#x): %w", n.Start(), n.End(), err)
	}
	return nil
}

// enclosing returns the include of parent that contains n, or nil.
func enclosing(parent, n chunk.Node) chunk.Node {
	for _, inc := range chunk.Base(parent).Includes() {
		if inc == n || inc.Size() == 0 {
			continue
		}
		if buf.Contains(inc.Start(), inc.End(), n.Start(), n.End()) {
			return inc
		}
	}
	return nil
}

// Bytes checks the tree invariants and serializes the tree.
func (im *Image) Bytes() ([]byte, error) {
	if im.closed {
		return nil, ErrClosed
	}
	if err := verify.AllInvariants(im.root); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	out := source.NewBuffer(make([]byte, 0, im.Size()))
	if _, err := im.root.Write(out); err != nil {
		return nil, fmt.Errorf("image: serialize: %w", err)
	}
	return out.Bytes(), nil
}

// Save serializes the tree into w and marks the tree clean.
func (im *Image) Save(w writer.Writer) error {
	data, err := im.Bytes()
	if err != nil {
		return err
	}
	if err := w.WriteImage(data); err != nil {
		return fmt.Errorf("image: save: %w", err)
	}
	im.markClean()
	return nil
}

// SaveFile atomically writes the serialized tree to path with the source file's mode.
func (im *Image) SaveFile(path string) error {
	return im.Save(&writer.FileWriter{Path: path, Perm: im.perm})
}

// Commit writes the tree back into the backing store and flushes the dirty
// ranges. The tree is serialized into a scratch buffer first; the backing
// store is only written once that succeeded and, for a mapping, matches the
// file size exactly.
func (im *Image) Commit(ctx context.Context) error {
	if im.closed {
		return ErrClosed
	}
	if im.mapped != nil && !im.mapped.Writable() {
		return ErrReadOnly
	}
	data, err := im.Bytes()
	if err != nil {
		return err
	}
	if im.mapped != nil && len(data) != im.src.Len() {
		return fmt.Errorf("image: commit %d bytes into %d-byte mapping: %w",
			len(data), im.src.Len(), ErrSizeChanged)
	}
	ranges := im.tracker.Ranges()
	if _, err := im.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("image: commit: %w", err)
	}
	if _, err := im.src.Write(data); err != nil {
		return fmt.Errorf("image: commit: %w", err)
	}
	if im.mapped != nil {
		if err := im.tracker.Flush(ctx, im.src.Bytes()); err != nil {
			return fmt.Errorf("image: flush: %w", err)
		}
	}
	im.log.Debug("image: committed", "path", im.path, "ranges", len(ranges))
	im.tracker.Reset()
	im.markClean()
	return nil
}

// markClean clears the modified flag of every node in the tree.
func (im *Image) markClean() {
	_ = chunk.Walk(im.root, func(n chunk.Node, _ int) error {
		chunk.Base(n).ClearModified()
		return nil
	})
}

// Close disposes the image's chunks, reports leaked chunks and unmaps the file.
func (im *Image) Close() error {
	if im.closed {
		return nil
	}
	im.closed = true
	for i := len(im.owned) - 1; i >= 0; i-- {
		chunk.Base(im.owned[i]).Dispose()
	}
	im.owned = nil
	im.root.Dispose()

	if err := verify.Leaks(im.props.Registry); err != nil {
		im.log.Warn("image: chunks not disposed", "path", im.path, "err", err)
	}
	if im.mapped != nil {
		return im.mapped.Close()
	}
	return nil
}
