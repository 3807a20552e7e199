package chunk

import "sync/atomic"

// Registry counts live chunks. Higher layers compare Count against a baseline
// to detect chunks that were never disposed.
//
// The counters are atomic; the chunks themselves are not safe for concurrent use.
type Registry struct {
	live    atomic.Int64
	created atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create records a new chunk and returns the lease that releases it.
func (r *Registry) Create() *Lease {
	r.live.Add(1)
	r.created.Add(1)
	return &Lease{r: r}
}

// Count returns the number of chunks created and not yet disposed.
func (r *Registry) Count() int64 {
	return r.live.Load()
}

// Created returns the number of chunks ever created through the registry.
func (r *Registry) Created() int64 {
	return r.created.Load()
}

// Lease is one chunk's contribution to a Registry.
type Lease struct {
	r        *Registry
	released atomic.Bool
}

// Release decrements the registry. Only the first call has an effect.
func (l *Lease) Release() {
	if l == nil || l.r == nil {
		return
	}
	if l.released.CompareAndSwap(false, true) {
		l.r.live.Add(-1)
	}
}

// Released reports whether Release has been called.
func (l *Lease) Released() bool {
	return l != nil && l.released.Load()
}
