// Package chunk represents binary container files as trees of addressable
// byte ranges that can be loaded, edited and written back byte for byte.
//
// # Overview
//
// A Chunk is a range [Start, End) of a backing file with an optional
// in-memory buffer. Higher layers model format structures (file headers,
// section tables, segments) by embedding Chunk, and nest them with
// AddInclude so a parent's serialization delegates the child's bytes to the
// child:
//
//	root, _ := chunk.NewLoaded(props, 0, fileSize, nil)
//	sec, _ := chunk.NewLoaded(props, 0x40, 0x20, nil)
//	_ = root.AddInclude(sec)
//	_ = sec.SetData(patched)
//	_, _ = root.Write(out) // gaps from root, [0x40,0x60) from sec
//
// # Pages
//
// A Page pairs a header node with the body range it describes. Chunks()
// yields both, and Remove cascades to the header unless RemoveBody is used.
//
// # Dirty state
//
// Every mutation (SetData, SetSize, SetStart, SetEnd, Move, Resize, Remove)
// marks the chunk modified, reports the touched absolute ranges to
// Props.Dirty and notifies the chunk's Issuer through Affect.
//
// # Lifetime
//
// Chunks are released explicitly with Dispose, which returns the chunk's
// lease to Props.Registry exactly once. Registry.Count is a leak check for
// the structure that owns the tree; it does not affect correctness.
//
// # Thread Safety
//
// Chunks and sources are single-threaded. Only the Registry counters are
// safe to share.
package chunk
