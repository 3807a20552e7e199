package chunk

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/joshuapare/elfkit/internal/buf"
)

// Unbound is the start offset of a chunk that has no position in the backing file yet.
const Unbound int64 = -1

// State is the lifecycle stage of a chunk.
type State int

const (
	// StateUnbound: no data has been loaded or set.
	StateUnbound State = iota
	// StateLoaded: data populated from the source, unchanged since.
	StateLoaded
	// StateModified: data, offset or size changed.
	StateModified
	// StateSuppressed: logically removed. May also be modified.
	StateSuppressed
	// StateDisposed: released. Terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateLoaded:
		return "loaded"
	case StateModified:
		return "modified"
	case StateSuppressed:
		return "suppressed"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Chunk is an addressable byte range of a backing file.
//
// Its size is always End()-Start(). Data is loaded lazily and may be replaced;
// every mutation marks the chunk modified, reports the touched ranges to
// Props.Dirty and notifies the issuer. Includes are child nodes nested in the
// chunk's range; Write interleaves them with the chunk's own bytes.
//
// A Chunk is not safe for concurrent use.
type Chunk struct {
	props *Props
	lease *Lease

	// self is the outermost node embedding this chunk.
	self Node

	start int64
	end   int64
	data  []byte

	modified   bool
	protected  bool
	suppressed bool
	inserted   bool
	disposed   bool

	issuer   Issuer
	inside   Node
	includes []Node // sorted by start, non-overlapping
}

// New creates a chunk covering [offset, offset+size). offset may be Unbound.
// issuer may be nil.
func New(props *Props, offset, size int64, issuer Issuer) (*Chunk, error) {
	c := &Chunk{}
	if err := c.init(props, offset, size, issuer); err != nil {
		return nil, err
	}
	c.self = c
	return c, nil
}

// NewLoaded creates a chunk and immediately loads its bytes from props.Source.
func NewLoaded(props *Props, offset, size int64, issuer Issuer) (*Chunk, error) {
	c, err := New(props, offset, size, issuer)
	if err != nil {
		return nil, err
	}
	if err := c.Load(); err != nil {
		c.Dispose()
		return nil, err
	}
	return c, nil
}

func (c *Chunk) init(props *Props, offset, size int64, issuer Issuer) error {
	if offset < Unbound {
		return fmt.Errorf("chunk: offset %d: %w", offset, ErrInvalidRange)
	}
	if size < 0 {
		return fmt.Errorf("chunk: size %d: %w", size, ErrInvalidRange)
	}
	end, ok := buf.AddOverflowSafe(offset, size)
	if !ok {
		return fmt.Errorf("chunk: offset %d + size %d: %w", offset, size, ErrInvalidRange)
	}
	c.props = props
	c.start = offset
	c.end = end
	c.issuer = issuer
	if reg := props.registry(); reg != nil {
		c.lease = reg.Create()
	}
	return nil
}

// Start returns the absolute start offset, or Unbound.
func (c *Chunk) Start() int64 { return c.start }

// End returns the absolute end offset (exclusive).
func (c *Chunk) End() int64 { return c.end }

// Size returns End()-Start().
func (c *Chunk) Size() int64 { return c.end - c.start }

// Data returns the in-memory buffer, or nil when nothing was loaded or set.
// The slice is shared with the chunk.
func (c *Chunk) Data() []byte { return c.data }

// Loaded reports whether the chunk holds data.
func (c *Chunk) Loaded() bool { return c.data != nil }

// Props returns the configuration context the chunk was created with.
func (c *Chunk) Props() *Props { return c.props }

// Issuer returns the structure notified on mutations.
func (c *Chunk) Issuer() Issuer { return c.issuer }

// Inside returns the node this chunk is included in, or nil.
func (c *Chunk) Inside() Node { return c.inside }

// Includes returns a copy of the nested nodes in ascending start order.
func (c *Chunk) Includes() []Node { return slices.Clone(c.includes) }

func (c *Chunk) Modified() bool { return c.modified }

// ClearModified resets the dirty flag, typically after the tree was saved.
func (c *Chunk) ClearModified() { c.modified = false }

func (c *Chunk) Protected() bool { return c.protected }

// SetProtected controls whether Remove without force is refused.
func (c *Chunk) SetProtected(v bool) { c.protected = v }

func (c *Chunk) Suppressed() bool { return c.suppressed }

// Inserted reports whether the chunk was added after the initial load.
func (c *Chunk) Inserted() bool { return c.inserted }

// MarkInserted flags the chunk as not present in the original file.
func (c *Chunk) MarkInserted() { c.inserted = true }

func (c *Chunk) Disposed() bool { return c.disposed }

// State returns the most advanced lifecycle stage the chunk reached.
func (c *Chunk) State() State {
	switch {
	case c.disposed:
		return StateDisposed
	case c.suppressed:
		return StateSuppressed
	case c.modified:
		return StateModified
	case c.data != nil:
		return StateLoaded
	default:
		return StateUnbound
	}
}

// Chunks returns the chunk itself.
func (c *Chunk) Chunks() []Node { return []Node{c.self} }

// Affect is the issuer hook. A plain chunk ignores notifications.
func (c *Chunk) Affect(Node) {}

func (c *Chunk) base() *Chunk { return c }

func (c *Chunk) logger() *slog.Logger { return c.props.logger() }

// Load reads the chunk's bytes from the default source.
func (c *Chunk) Load() error {
	return c.LoadFrom(nil, Unbound)
}

// LoadFrom reads Size() bytes at off from src into the chunk.
//
// A nil src falls back to Props.Source; off < 0 means the chunk's own start.
// Nothing happens when the size is not positive, when off is negative and the
// chunk is unbound, or when no source resolves. Loading neither marks the
// chunk modified nor notifies the issuer.
func (c *Chunk) LoadFrom(src Source, off int64) error {
	if c.disposed {
		return ErrDisposed
	}
	if off < 0 {
		if c.start == Unbound {
			return nil
		}
		off = c.start
	}
	size := c.Size()
	if size <= 0 {
		return nil
	}
	if src == nil {
		src = c.props.source()
	}
	if src == nil {
		c.logger().Debug("chunk: no source to load from", "offset", off, "size", size)
		return nil
	}

	if _, err := src.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("chunk: seek to %#x: %w", off, err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(src, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("chunk: load [%#x,%#x): %w", off, off+size, ErrShortRead)
		}
		return fmt.Errorf("chunk: load [%#x,%#x): %w", off, off+size, err)
	}
	c.data = data
	return nil
}

// SetData replaces the chunk's buffer. The end offset follows len(b).
// The chunk keeps b without copying it. A nil b drops the buffer and leaves
// the range as is.
func (c *Chunk) SetData(b []byte) error {
	if c.disposed {
		return ErrDisposed
	}
	if b == nil {
		c.data = nil
		c.notify()
		return nil
	}
	end, err := c.endFor(int64(len(b)))
	if err != nil {
		return err
	}
	oldStart, oldEnd := c.start, c.end
	c.data = b
	c.end = end
	c.touch(oldStart, oldEnd)
	return nil
}

// SetSize moves the end offset to Start()+n. The buffer is left untouched, so
// it may be shorter or longer than the size until the caller rewrites it;
// Write pads or truncates to the size.
func (c *Chunk) SetSize(n int64) error {
	if c.disposed {
		return ErrDisposed
	}
	end, err := c.endFor(n)
	if err != nil {
		return err
	}
	oldStart, oldEnd := c.start, c.end
	c.end = end
	c.touch(oldStart, oldEnd)
	return nil
}

// Resize sets the size to n and truncates or zero-extends a loaded buffer to
// match before the issuer is notified. A grown buffer is a fresh copy, so the
// caller's array behind SetData is never written.
func (c *Chunk) Resize(n int64) error {
	if c.disposed {
		return ErrDisposed
	}
	end, err := c.endFor(n)
	if err != nil {
		return err
	}
	if c.data != nil {
		switch cur := int64(len(c.data)); {
		case n < cur:
			c.data = c.data[:n:n]
		case n > cur:
			grown := make([]byte, n)
			copy(grown, c.data)
			c.data = grown
		}
	}
	oldStart, oldEnd := c.start, c.end
	c.end = end
	c.touch(oldStart, oldEnd)
	return nil
}

// SetStart updates the start offset only, so the size changes with it.
// On an unbound chunk it binds the chunk at v and keeps the size.
func (c *Chunk) SetStart(v int64) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.start == Unbound {
		return c.Move(v)
	}
	if v < 0 || v > c.end {
		return fmt.Errorf("chunk: start %#x past end %#x: %w", v, c.end, ErrInvalidRange)
	}
	oldStart, oldEnd := c.start, c.end
	c.start = v
	c.touch(oldStart, oldEnd)
	return nil
}

// SetEnd updates the end offset only.
func (c *Chunk) SetEnd(v int64) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.start == Unbound {
		return ErrUnbound
	}
	if v < c.start {
		return fmt.Errorf("chunk: end %#x before start %#x: %w", v, c.start, ErrInvalidRange)
	}
	oldStart, oldEnd := c.start, c.end
	c.end = v
	c.touch(oldStart, oldEnd)
	return nil
}

// Move shifts the chunk to start at v, keeping its size. Includes are not moved.
func (c *Chunk) Move(v int64) error {
	if c.disposed {
		return ErrDisposed
	}
	if v < 0 {
		return fmt.Errorf("chunk: start %d: %w", v, ErrInvalidRange)
	}
	size := c.Size()
	end, ok := buf.AddOverflowSafe(v, size)
	if !ok {
		return fmt.Errorf("chunk: start %d + size %d: %w", v, size, ErrInvalidRange)
	}
	oldStart, oldEnd := c.start, c.end
	c.start, c.end = v, end
	c.touch(oldStart, oldEnd)
	return nil
}

func (c *Chunk) endFor(size int64) (int64, error) {
	if size < 0 {
		return 0, fmt.Errorf("chunk: size %d: %w", size, ErrInvalidRange)
	}
	end, ok := buf.AddOverflowSafe(c.start, size)
	if !ok {
		return 0, fmt.Errorf("chunk: start %d + size %d: %w", c.start, size, ErrInvalidRange)
	}
	return end, nil
}

// touch marks the chunk modified, reports the old and new ranges and notifies the issuer.
func (c *Chunk) touch(oldStart, oldEnd int64) {
	c.modified = true
	if t := c.props.tracker(); t != nil {
		if oldStart >= 0 && oldEnd > oldStart && (oldStart != c.start || oldEnd != c.end) {
			t.Add(oldStart, oldEnd-oldStart)
		}
		if c.start >= 0 && c.end > c.start {
			t.Add(c.start, c.end-c.start)
		}
	}
	c.notify()
}

func (c *Chunk) notify() {
	if c.issuer != nil {
		c.issuer.Affect(c.self)
	}
}

// Remove logically deletes the chunk: it is flagged suppressed and its data
// stays in memory. A protected chunk is only removed when force is set;
// otherwise ErrRemovalRefused is returned and nothing changes.
func (c *Chunk) Remove(force bool) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.protected && !force {
		return ErrRemovalRefused
	}
	c.notify()
	c.suppressed = true
	if t := c.props.tracker(); t != nil && c.start >= 0 && c.Size() > 0 {
		t.Add(c.start, c.Size())
	}
	return nil
}

// AddInclude nests child inside this chunk. Adding a present include is a no-op.
//
// The child must lie within the chunk's range, must not overlap another
// include and must not already be nested elsewhere. Includes are kept in
// ascending start order. The chunk does not take over the child's lifetime.
func (c *Chunk) AddInclude(child Node) error {
	if child == nil {
		return fmt.Errorf("chunk: nil include: %w", ErrInvalidRange)
	}
	cc := child.base()
	if slices.ContainsFunc(c.includes, func(n Node) bool { return n.base() == cc }) {
		return nil
	}
	if cc.inside != nil {
		return ErrAlreadyIncluded
	}
	for n := Node(c.self); n != nil; n = n.base().inside {
		if n.base() == cc {
			return fmt.Errorf("chunk: include would form a cycle: %w", ErrInvalidRange)
		}
	}
	if c.start == Unbound || cc.start == Unbound {
		return ErrUnbound
	}
	if !buf.Contains(c.start, c.end, cc.start, cc.end) {
		return fmt.Errorf("chunk: include [%#x,%#x) in [%#x,%#x): %w",
			cc.start, cc.end, c.start, c.end, ErrOutOfRange)
	}

	idx, _ := slices.BinarySearchFunc(c.includes, cc.start, func(n Node, start int64) int {
		return cmp.Compare(n.Start(), start)
	})
	if idx > 0 {
		if prev := c.includes[idx-1]; buf.Overlaps(prev.Start(), prev.End(), cc.start, cc.end) {
			return fmt.Errorf("chunk: include [%#x,%#x) overlaps [%#x,%#x): %w",
				cc.start, cc.end, prev.Start(), prev.End(), ErrOverlap)
		}
	}
	if idx < len(c.includes) {
		if next := c.includes[idx]; buf.Overlaps(next.Start(), next.End(), cc.start, cc.end) {
			return fmt.Errorf("chunk: include [%#x,%#x) overlaps [%#x,%#x): %w",
				cc.start, cc.end, next.Start(), next.End(), ErrOverlap)
		}
	}

	c.includes = slices.Insert(c.includes, idx, child)
	cc.inside = c.self
	return nil
}

// DelInclude detaches child from this chunk and clears its parent link.
func (c *Chunk) DelInclude(child Node) error {
	if child == nil {
		return ErrNotIncluded
	}
	cc := child.base()
	idx := slices.IndexFunc(c.includes, func(n Node) bool { return n.base() == cc })
	if idx < 0 {
		return ErrNotIncluded
	}
	c.includes = slices.Delete(c.includes, idx, idx+1)
	cc.inside = nil
	return nil
}

// Write reconstructs the chunk's range into sink at Start() and returns Size().
//
// Without includes the own buffer is written as is. With includes, the gaps
// between them come from the own buffer and each include writes itself; the
// cursor advances by what the include reports. Exactly Size() bytes of own
// buffer are covered: a short buffer is zero-padded, a long one truncated.
// Nothing is written, and 0 returned, when the size is not positive or no
// data is loaded.
func (c *Chunk) Write(sink Sink) (int64, error) {
	size := c.Size()
	if size <= 0 || c.data == nil {
		return 0, nil
	}
	if c.start == Unbound {
		return 0, ErrUnbound
	}

	if len(c.includes) == 0 {
		if err := c.writeOwn(sink, 0, size); err != nil {
			return 0, err
		}
		return size, nil
	}

	var cur int64 // relative to start; data and file cursors move together
	for _, inc := range c.includes {
		rel := inc.Start() - c.start
		if rel < cur {
			return 0, fmt.Errorf("chunk: include at %#x behind cursor %#x: %w",
				inc.Start(), c.start+cur, ErrOverlap)
		}
		if rel > cur {
			if err := c.writeOwn(sink, cur, rel-cur); err != nil {
				return 0, err
			}
			cur = rel
		}
		n, err := inc.Write(sink)
		if err != nil {
			return 0, fmt.Errorf("chunk: include at %#x: %w", inc.Start(), err)
		}
		cur += n
	}
	if cur < size {
		if err := c.writeOwn(sink, cur, size-cur); err != nil {
			return 0, err
		}
	}
	return size, nil
}

// writeOwn writes n bytes of the own buffer starting at relative offset off.
func (c *Chunk) writeOwn(sink Sink, off, n int64) error {
	pos := c.start + off
	if _, err := sink.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("chunk: seek to %#x: %w", pos, err)
	}
	part := buf.Clamp(c.data, off, n)
	if len(part) > 0 {
		if _, err := sink.Write(part); err != nil {
			return fmt.Errorf("chunk: write [%#x,%#x): %w", pos, pos+int64(len(part)), err)
		}
	}
	if pad := n - int64(len(part)); pad > 0 {
		if _, err := sink.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("chunk: pad %d bytes at %#x: %w", pad, pos+int64(len(part)), err)
		}
	}
	return nil
}

// Dispose releases the chunk's registry lease and its buffer. It is safe to
// call more than once and never fails; the chunk rejects mutations afterwards.
func (c *Chunk) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	defer func() {
		if r := recover(); r != nil {
			c.logger().Warn("chunk: dispose recovered", "start", c.start, "panic", r)
		}
	}()
	c.lease.Release()
	c.data = nil
}
