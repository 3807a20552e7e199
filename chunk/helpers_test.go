package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/elfkit/chunk/source"
)

// mockIssuer records every node it is notified about.
type mockIssuer struct {
	affected []Node
}

func (m *mockIssuer) Affect(n Node) { m.affected = append(m.affected, n) }

// mockTracker records dirty ranges reported by chunks.
type mockTracker struct {
	ranges [][2]int64
}

func (m *mockTracker) Add(off, length int64) {
	m.ranges = append(m.ranges, [2]int64{off, length})
}

func (m *mockTracker) WasCalledWith(off, length int64) bool {
	for _, r := range m.ranges {
		if r[0] == off && r[1] == length {
			return true
		}
	}
	return false
}

// newTestProps returns props over a zero-filled buffer of size n.
func newTestProps(n int) (*Props, *source.Buffer) {
	src := source.NewBuffer(make([]byte, n))
	return &Props{Source: src, Registry: NewRegistry()}, src
}

func mustChunk(t *testing.T, props *Props, off, size int64) *Chunk {
	t.Helper()
	c, err := New(props, off, size, nil)
	require.NoError(t, err)
	return c
}

func mustLoaded(t *testing.T, props *Props, off, size int64) *Chunk {
	t.Helper()
	c, err := NewLoaded(props, off, size, nil)
	require.NoError(t, err)
	return c
}

func assertBounds(t *testing.T, c *Chunk) {
	t.Helper()
	require.Equal(t, c.Start()+c.Size(), c.End(), "end must equal start+size")
}
