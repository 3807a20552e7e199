package chunk

import "errors"

// SkipIncludes returned by a WalkFunc skips the includes of the current node.
var SkipIncludes = errors.New("chunk: skip includes")

// WalkFunc is called for every node of a tree with its depth (root = 0).
type WalkFunc func(n Node, depth int) error

// Walk visits root and its includes depth-first in output order.
func Walk(root Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	err := walk(root, 0, fn)
	if errors.Is(err, SkipIncludes) {
		return nil
	}
	return err
}

func walk(n Node, depth int, fn WalkFunc) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, inc := range n.base().includes {
		if err := walk(inc, depth+1, fn); err != nil && !errors.Is(err, SkipIncludes) {
			return err
		}
	}
	return nil
}

// Base returns the Chunk underlying any node.
func Base(n Node) *Chunk {
	if n == nil {
		return nil
	}
	return n.base()
}
