// Package verify checks the structural invariants of chunk trees.
// Move, SetSize and Dispose on an included chunk can break what AddInclude
// checked. These helpers find such breaks before a tree is written.
package verify

import (
	"fmt"

	"github.com/joshuapare/elfkit/chunk"
)

// ValidationError describes one broken invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int64
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates every tree invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(root chunk.Node) error {
	if err := Ranges(root); err != nil {
		return err
	}
	if err := Includes(root); err != nil {
		return err
	}
	return nil
}

// Ranges checks that every node is live and, below the root, bound.
func Ranges(root chunk.Node) error {
	return chunk.Walk(root, func(n chunk.Node, depth int) error {
		c := chunk.Base(n)
		if c.Disposed() {
			return &ValidationError{
				Type:    "Ranges",
				Message: "disposed chunk still in tree",
				Offset:  -1,
				Details: map[string]any{"depth": depth},
			}
		}
		if depth > 0 && n.Start() == chunk.Unbound {
			return &ValidationError{
				Type:    "Ranges",
				Message: fmt.Sprintf("unbound include of %d bytes", n.Size()),
				Offset:  -1,
				Details: map[string]any{"depth": depth},
			}
		}
		return nil
	})
}

// Includes checks containment, order and disjointness of every include list.
func Includes(root chunk.Node) error {
	return chunk.Walk(root, func(n chunk.Node, _ int) error {
		cursor := n.Start()
		for i, inc := range chunk.Base(n).Includes() {
			if inc.Start() < n.Start() || inc.End() > n.End() {
				return &ValidationError{
					Type: "Includes",
					Message: fmt.Sprintf("include [0x%X, 0x%X) outside [0x%X, 0x%X)",
						inc.Start(), inc.End(), n.Start(), n.End()),
					Offset:  inc.Start(),
					Details: map[string]any{"index": i},
				}
			}
			if inc.Start() < cursor {
				return &ValidationError{
					Type:    "Includes",
					Message: fmt.Sprintf("include [0x%X, 0x%X) overlaps or precedes 0x%X", inc.Start(), inc.End(), cursor),
					Offset:  inc.Start(),
					Details: map[string]any{"index": i},
				}
			}
			cursor = inc.End()
		}
		return nil
	})
}

// Leaks reports chunks still registered with reg.
func Leaks(reg *chunk.Registry) error {
	if live := reg.Count(); live != 0 {
		return &ValidationError{
			Type:    "Leaks",
			Message: fmt.Sprintf("%d of %d chunks not disposed", live, reg.Created()),
			Offset:  -1,
			Details: map[string]any{"live": live, "created": reg.Created()},
		}
	}
	return nil
}
