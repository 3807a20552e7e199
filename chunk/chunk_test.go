package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/elfkit/chunk/source"
)

func TestNewBindsRange(t *testing.T) {
	props, _ := newTestProps(16)
	c := mustChunk(t, props, 4, 8)

	assert.Equal(t, int64(4), c.Start())
	assert.Equal(t, int64(12), c.End())
	assert.Equal(t, int64(8), c.Size())
	assert.False(t, c.Loaded())
	assert.False(t, c.Modified())
	assert.Equal(t, StateUnbound, c.State())
	assert.Same(t, props, c.Props())
	assertBounds(t, c)
}

func TestNewRejectsInvalidRange(t *testing.T) {
	_, err := New(nil, 0, -1, nil)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(nil, -2, 4, nil)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestLoadReadsExactlySize(t *testing.T) {
	src := source.NewBuffer([]byte("0123456789abcdef"))
	props := &Props{Source: src}
	c := mustLoaded(t, props, 4, 4)

	assert.Equal(t, "4567", string(c.Data()))
	assert.False(t, c.Modified(), "loading is not a modification")
	assert.Equal(t, StateLoaded, c.State())
}

func TestLoadNoOps(t *testing.T) {
	tests := []struct {
		name  string
		props *Props
		off   int64
		size  int64
	}{
		{"no source", nil, 0, 4},
		{"empty props", &Props{}, 0, 4},
		{"zero size", &Props{Source: source.NewBuffer(make([]byte, 8))}, 0, 0},
		{"unbound", &Props{Source: source.NewBuffer(make([]byte, 8))}, Unbound, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustChunk(t, tt.props, tt.off, tt.size)
			require.NoError(t, c.Load())
			assert.False(t, c.Loaded())
			assert.Nil(t, c.Data())
		})
	}
}

func TestLoadShortRead(t *testing.T) {
	props := &Props{Source: source.NewBuffer(make([]byte, 8))}
	c := mustChunk(t, props, 4, 8)

	err := c.Load()
	require.ErrorIs(t, err, ErrShortRead)
	assert.False(t, c.Loaded(), "data stays absent on a short read")

	_, err = NewLoaded(props, 4, 8, nil)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestLoadFromExplicitSourceAndOffset(t *testing.T) {
	props, _ := newTestProps(16)
	other := source.NewBuffer([]byte("0123456789"))
	c := mustChunk(t, props, 0, 3)

	require.NoError(t, c.LoadFrom(other, 5))
	assert.Equal(t, "567", string(c.Data()))
	assert.Equal(t, int64(0), c.Start(), "loading elsewhere does not move the chunk")

	require.NoError(t, c.LoadFrom(other, Unbound))
	assert.Equal(t, "012", string(c.Data()))
}

func TestSetDataFollowsLength(t *testing.T) {
	props, _ := newTestProps(16)
	tracker := &mockTracker{}
	props.Dirty = tracker
	issuer := &mockIssuer{}
	c, err := NewLoaded(props, 2, 4, issuer)
	require.NoError(t, err)

	require.NoError(t, c.SetData([]byte("abcdefgh")))

	assert.Equal(t, int64(8), c.Size())
	assert.Equal(t, int64(10), c.End())
	assert.True(t, c.Modified())
	assert.Equal(t, StateModified, c.State())
	assertBounds(t, c)

	require.Len(t, issuer.affected, 1)
	assert.Same(t, c, issuer.affected[0])
	assert.True(t, tracker.WasCalledWith(2, 4), "old range reported")
	assert.True(t, tracker.WasCalledWith(2, 8), "new range reported")
}

func TestSetDataNilDropsBuffer(t *testing.T) {
	props, _ := newTestProps(8)
	c := mustLoaded(t, props, 0, 8)

	require.NoError(t, c.SetData(nil))
	assert.False(t, c.Loaded())
	assert.Equal(t, int64(8), c.Size())
	assert.False(t, c.Modified())
}

func TestSetSizeLeavesData(t *testing.T) {
	props, _ := newTestProps(16)
	issuer := &mockIssuer{}
	c, err := NewLoaded(props, 4, 4, issuer)
	require.NoError(t, err)

	require.NoError(t, c.SetSize(2))
	assert.Equal(t, int64(6), c.End())
	assert.Len(t, c.Data(), 4, "size and buffer may diverge until rewritten")
	assert.True(t, c.Modified())
	assert.Len(t, issuer.affected, 1)
	assertBounds(t, c)

	require.ErrorIs(t, c.SetSize(-1), ErrInvalidRange)
	assert.Equal(t, int64(2), c.Size(), "failed mutation changes nothing")
}

func TestResizeAdjustsData(t *testing.T) {
	c := mustChunk(t, nil, 0, 0)
	require.NoError(t, c.SetData([]byte("wxyz")))

	require.NoError(t, c.Resize(6))
	assert.Equal(t, []byte("wxyz\x00\x00"), c.Data())
	assert.Equal(t, int64(6), c.Size())

	require.NoError(t, c.Resize(2))
	assert.Equal(t, []byte("wx"), c.Data())
	assertBounds(t, c)

	empty := mustChunk(t, nil, 0, 4)
	require.NoError(t, empty.Resize(8))
	assert.False(t, empty.Loaded())
}

// sizeIssuer records size and buffer length at each notification.
type sizeIssuer struct {
	seen [][2]int64
}

func (s *sizeIssuer) Affect(n Node) {
	s.seen = append(s.seen, [2]int64{n.Size(), int64(len(n.base().Data()))})
}

func TestResizeNotifiesAfterDataMatches(t *testing.T) {
	issuer := &sizeIssuer{}
	c, err := New(nil, 0, 0, issuer)
	require.NoError(t, err)
	require.NoError(t, c.SetData([]byte("wxyz")))

	require.NoError(t, c.Resize(6))
	require.NoError(t, c.Resize(2))
	assert.Equal(t, [][2]int64{{4, 4}, {6, 6}, {2, 2}}, issuer.seen)
}

func TestResizeLeavesCallerArrayAlone(t *testing.T) {
	backing := []byte("abcdXXXX")
	c := mustChunk(t, nil, 0, 0)
	require.NoError(t, c.SetData(backing[:4]))

	require.NoError(t, c.Resize(8))
	assert.Equal(t, []byte("abcd\x00\x00\x00\x00"), c.Data())
	assert.Equal(t, "abcdXXXX", string(backing), "spare capacity untouched")

	short := []byte("abcdXXXX")
	d := mustChunk(t, nil, 0, 0)
	require.NoError(t, d.SetData(short))
	require.NoError(t, d.Resize(2))
	assert.Equal(t, 2, cap(d.Data()), "truncated buffer cannot be appended into")
}

func TestSetStartAndEnd(t *testing.T) {
	c := mustChunk(t, nil, 4, 4)

	require.NoError(t, c.SetStart(2))
	assert.Equal(t, int64(2), c.Start())
	assert.Equal(t, int64(8), c.End())
	assert.Equal(t, int64(6), c.Size())
	assertBounds(t, c)

	require.ErrorIs(t, c.SetStart(9), ErrInvalidRange)
	require.ErrorIs(t, c.SetStart(-1), ErrInvalidRange)

	require.NoError(t, c.SetEnd(3))
	assert.Equal(t, int64(1), c.Size())
	require.ErrorIs(t, c.SetEnd(1), ErrInvalidRange)
	assertBounds(t, c)
}

func TestSetStartBindsUnboundChunk(t *testing.T) {
	c := mustChunk(t, nil, Unbound, 4)
	assert.Equal(t, int64(4), c.Size())

	require.ErrorIs(t, c.SetEnd(10), ErrUnbound)

	require.NoError(t, c.SetStart(10))
	assert.Equal(t, int64(10), c.Start())
	assert.Equal(t, int64(14), c.End())
	assertBounds(t, c)
}

func TestMoveKeepsSize(t *testing.T) {
	tracker := &mockTracker{}
	c := mustChunk(t, &Props{Dirty: tracker}, 0, 4)

	require.NoError(t, c.Move(8))
	assert.Equal(t, int64(8), c.Start())
	assert.Equal(t, int64(12), c.End())
	assert.True(t, tracker.WasCalledWith(0, 4))
	assert.True(t, tracker.WasCalledWith(8, 4))

	require.ErrorIs(t, c.Move(-4), ErrInvalidRange)
}

func TestRemoveRespectsProtection(t *testing.T) {
	issuer := &mockIssuer{}
	c, err := New(nil, 0, 4, issuer)
	require.NoError(t, err)
	c.SetProtected(true)

	require.ErrorIs(t, c.Remove(false), ErrRemovalRefused)
	assert.False(t, c.Suppressed())
	assert.Empty(t, issuer.affected, "refused removal notifies nobody")

	require.NoError(t, c.Remove(true))
	assert.True(t, c.Suppressed())
	assert.Len(t, issuer.affected, 1)
	assert.Equal(t, StateSuppressed, c.State())
}

func TestRemoveUnprotected(t *testing.T) {
	tracker := &mockTracker{}
	c := mustChunk(t, &Props{Dirty: tracker}, 4, 4)
	require.NoError(t, c.SetData([]byte("keep")))

	require.NoError(t, c.Remove(false))
	assert.True(t, c.Suppressed())
	assert.Equal(t, "keep", string(c.Data()), "removal never erases data")
	assert.True(t, tracker.WasCalledWith(4, 4))
}

func TestAddDelIncludeRestoresState(t *testing.T) {
	props, _ := newTestProps(16)
	parent := mustChunk(t, props, 0, 16)
	child := mustChunk(t, props, 4, 4)
	before := parent.Chunks()

	require.NoError(t, parent.AddInclude(child))
	assert.Same(t, parent, child.Inside())
	require.NoError(t, parent.AddInclude(child), "adding twice is a no-op")
	assert.Len(t, parent.Includes(), 1)

	require.NoError(t, parent.DelInclude(child))
	assert.Equal(t, before, parent.Chunks())
	assert.Nil(t, child.Inside())
	assert.Empty(t, parent.Includes())

	require.ErrorIs(t, parent.DelInclude(child), ErrNotIncluded)
}

func TestAddIncludeKeepsOrder(t *testing.T) {
	parent := mustChunk(t, nil, 0, 12)
	c8 := mustChunk(t, nil, 8, 4)
	c0 := mustChunk(t, nil, 0, 4)
	c4 := mustChunk(t, nil, 4, 4)

	for _, c := range []*Chunk{c8, c0, c4} {
		require.NoError(t, parent.AddInclude(c))
	}
	incs := parent.Includes()
	require.Len(t, incs, 3)
	assert.Equal(t, int64(0), incs[0].Start())
	assert.Equal(t, int64(4), incs[1].Start())
	assert.Equal(t, int64(8), incs[2].Start())
}

func TestAddIncludeRejectsInconsistentTrees(t *testing.T) {
	parent := mustChunk(t, nil, 0, 16)
	existing := mustChunk(t, nil, 4, 4)
	require.NoError(t, parent.AddInclude(existing))

	t.Run("outside parent", func(t *testing.T) {
		err := parent.AddInclude(mustChunk(t, nil, 12, 8))
		require.ErrorIs(t, err, ErrOutOfRange)
	})
	t.Run("overlaps sibling", func(t *testing.T) {
		err := parent.AddInclude(mustChunk(t, nil, 6, 4))
		require.ErrorIs(t, err, ErrOverlap)
		err = parent.AddInclude(mustChunk(t, nil, 2, 4))
		require.ErrorIs(t, err, ErrOverlap)
	})
	t.Run("nested elsewhere", func(t *testing.T) {
		other := mustChunk(t, nil, 0, 16)
		require.ErrorIs(t, other.AddInclude(existing), ErrAlreadyIncluded)
	})
	t.Run("cycle", func(t *testing.T) {
		require.ErrorIs(t, existing.AddInclude(parent), ErrInvalidRange)
		require.ErrorIs(t, parent.AddInclude(parent), ErrInvalidRange)
	})
	t.Run("unbound", func(t *testing.T) {
		require.ErrorIs(t, parent.AddInclude(mustChunk(t, nil, Unbound, 2)), ErrUnbound)
	})
	t.Run("nil", func(t *testing.T) {
		require.Error(t, parent.AddInclude(nil))
	})

	assert.Len(t, parent.Includes(), 1, "rejected includes leave the tree untouched")
}

func TestWriteWithoutIncludes(t *testing.T) {
	c := mustChunk(t, nil, 3, 0)
	require.NoError(t, c.SetData([]byte("hello")))
	sink := source.NewBuffer(nil)

	n, err := c.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, []byte("\x00\x00\x00hello"), sink.Bytes())
}

func TestWriteNothing(t *testing.T) {
	sink := source.NewBuffer(nil)

	n, err := mustChunk(t, nil, 0, 4).Write(sink)
	require.NoError(t, err)
	assert.Zero(t, n, "no data")

	empty := mustChunk(t, nil, 0, 0)
	require.NoError(t, empty.SetData([]byte{}))
	n, err = empty.Write(sink)
	require.NoError(t, err)
	assert.Zero(t, n, "zero size")
	assert.Zero(t, sink.Len())
}

// TestWriteScenario covers a 16-byte zero file with "AAAA" nested at offset 4.
func TestWriteScenario(t *testing.T) {
	props, _ := newTestProps(16)
	a := mustLoaded(t, props, 0, 16)
	require.Equal(t, make([]byte, 16), a.Data())

	b := mustChunk(t, props, 4, 4)
	require.NoError(t, b.SetData([]byte("AAAA")))
	require.NoError(t, a.AddInclude(b))

	sink := source.NewBuffer(nil)
	n, err := a.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)

	want := make([]byte, 16)
	copy(want[4:], "AAAA")
	assert.Equal(t, want, sink.Bytes())
}

func TestWriteInterleavesIncludes(t *testing.T) {
	parent := mustChunk(t, nil, 0, 0)
	require.NoError(t, parent.SetData(bytes.Repeat([]byte("p"), 12)))
	inc1 := mustChunk(t, nil, 2, 0)
	require.NoError(t, inc1.SetData([]byte("AA")))
	inc2 := mustChunk(t, nil, 6, 0)
	require.NoError(t, inc2.SetData([]byte("BBB")))
	require.NoError(t, parent.AddInclude(inc2))
	require.NoError(t, parent.AddInclude(inc1))

	sink := source.NewBuffer(nil)
	n, err := parent.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, "ppAAppBBBppp", string(sink.Bytes()))
}

func TestWriteNestedTree(t *testing.T) {
	root := mustChunk(t, nil, 0, 0)
	require.NoError(t, root.SetData([]byte("rrrrrrrr")))
	mid := mustChunk(t, nil, 2, 0)
	require.NoError(t, mid.SetData([]byte("mmmm")))
	leaf := mustChunk(t, nil, 3, 0)
	require.NoError(t, leaf.SetData([]byte("L")))

	require.NoError(t, mid.AddInclude(leaf))
	require.NoError(t, root.AddInclude(mid))

	sink := source.NewBuffer(nil)
	_, err := root.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, "rrmLmmrr", string(sink.Bytes()))
}

func TestWriteIncludeWithoutDataFallsBackToParent(t *testing.T) {
	parent := mustChunk(t, nil, 0, 0)
	require.NoError(t, parent.SetData([]byte("pppppppp")))
	require.NoError(t, parent.AddInclude(mustChunk(t, nil, 2, 2)))

	sink := source.NewBuffer(nil)
	n, err := parent.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "pppppppp", string(sink.Bytes()))
}

func TestWritePadsPendingResize(t *testing.T) {
	c := mustChunk(t, nil, 0, 0)
	require.NoError(t, c.SetData([]byte("ab")))
	require.NoError(t, c.SetSize(4))

	sink := source.NewBuffer([]byte("zzzzzz"))
	n, err := c.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, []byte("ab\x00\x00zz"), sink.Bytes())

	require.NoError(t, c.SetSize(1))
	sink = source.NewBuffer(nil)
	_, err = c.Write(sink)
	require.NoError(t, err)
	assert.Equal(t, "a", string(sink.Bytes()), "long buffers are truncated to size")
}

func TestWriteDetectsIncludesMovedIntoOverlap(t *testing.T) {
	parent := mustChunk(t, nil, 0, 0)
	require.NoError(t, parent.SetData(make([]byte, 16)))
	a := mustChunk(t, nil, 2, 0)
	require.NoError(t, a.SetData([]byte("aaaa")))
	b := mustChunk(t, nil, 8, 0)
	require.NoError(t, b.SetData([]byte("bbbb")))
	require.NoError(t, parent.AddInclude(a))
	require.NoError(t, parent.AddInclude(b))

	require.NoError(t, b.Move(4))

	_, err := parent.Write(source.NewBuffer(nil))
	require.ErrorIs(t, err, ErrOverlap)
}

func TestWriteReportsSinkErrors(t *testing.T) {
	c := mustChunk(t, nil, 2, 0)
	require.NoError(t, c.SetData([]byte("abcd")))

	_, err := c.Write(source.NewFixed(make([]byte, 4)))
	require.ErrorIs(t, err, source.ErrFixedSize)
}

func TestDisposeIsTerminal(t *testing.T) {
	props, _ := newTestProps(8)
	c := mustLoaded(t, props, 0, 8)
	require.Equal(t, int64(1), props.Registry.Count())

	c.Dispose()
	c.Dispose()

	assert.Equal(t, int64(0), props.Registry.Count())
	assert.Equal(t, StateDisposed, c.State())
	assert.False(t, c.Loaded())
	require.ErrorIs(t, c.SetData([]byte("x")), ErrDisposed)
	require.ErrorIs(t, c.SetSize(1), ErrDisposed)
	require.ErrorIs(t, c.SetStart(1), ErrDisposed)
	require.ErrorIs(t, c.SetEnd(1), ErrDisposed)
	require.ErrorIs(t, c.Move(1), ErrDisposed)
	require.ErrorIs(t, c.Load(), ErrDisposed)
	require.ErrorIs(t, c.Remove(true), ErrDisposed)
}

func TestStateTransitions(t *testing.T) {
	props, _ := newTestProps(8)
	c := mustChunk(t, props, 0, 8)
	assert.Equal(t, StateUnbound, c.State())

	require.NoError(t, c.Load())
	assert.Equal(t, StateLoaded, c.State())

	require.NoError(t, c.SetData([]byte("12345678")))
	assert.Equal(t, StateModified, c.State())

	c.ClearModified()
	assert.Equal(t, StateLoaded, c.State())

	require.NoError(t, c.Remove(false))
	assert.Equal(t, StateSuppressed, c.State())

	c.Dispose()
	assert.Equal(t, StateDisposed, c.State())
	assert.Equal(t, "disposed", c.State().String())
}

func TestInvariantHoldsAcrossMutations(t *testing.T) {
	props, _ := newTestProps(32)
	c := mustLoaded(t, props, 8, 8)

	steps := []func() error{
		func() error { return c.SetData([]byte("abc")) },
		func() error { return c.SetSize(10) },
		func() error { return c.SetStart(4) },
		func() error { return c.SetEnd(30) },
		func() error { return c.Move(0) },
		func() error { return c.Resize(5) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertBounds(t, c)
	}
}

func TestInsertedFlag(t *testing.T) {
	c := mustChunk(t, nil, 0, 4)
	assert.False(t, c.Inserted())
	c.MarkInserted()
	assert.True(t, c.Inserted())
}
