// Copyright (c) 2025 The por-se Authors
//
// File: cone.go
// Brief: The per-event cone: latest same-thread event visible from e
//
// License: BSD-3-Clause

package event

// Cone maps each ThreadId ever active in [e] to the maximum-depth event of
// that thread that is causally <= e. It is built from the cones of an
// event's predecessors: merge every predecessor's cone (keeping the deeper
// entry per thread, see Merge), then self-map tid -> e.
type Cone struct {
	entries map[string]coneEntry
}

type coneEntry struct {
	tid   ThreadId
	id    ID
	depth uint32
}

// NewCone returns an empty cone.
func NewCone() Cone {
	return Cone{entries: make(map[string]coneEntry)}
}

// Get returns the event id of the latest event of tid visible from this
// cone's owner, and whether tid has any entry at all.
func (c Cone) Get(tid ThreadId) (ID, bool) {
	e, ok := c.entries[tid.Key()]
	if !ok {
		return InvalidID, false
	}
	return e.id, true
}

// Set installs or overwrites the entry for tid, caching depth so
// IsLessThan-style queries never need to dereference the arena.
func (c Cone) Set(tid ThreadId, id ID, depth uint32) {
	c.entries[tid.Key()] = coneEntry{tid: tid, id: id, depth: depth}
}

// GetDepth returns the depth of the latest event of tid visible from this
// cone, and whether tid has any entry at all.
func (c Cone) GetDepth(tid ThreadId) (uint32, bool) {
	e, ok := c.entries[tid.Key()]
	if !ok {
		return 0, false
	}
	return e.depth, true
}

// Len returns the number of threads represented in the cone.
func (c Cone) Len() int {
	return len(c.entries)
}

// ForEach calls f for every (ThreadId, ID) pair in the cone. Iteration
// order is unspecified.
func (c Cone) ForEach(f func(tid ThreadId, id ID)) {
	for _, e := range c.entries {
		f(e.tid, e.id)
	}
}

// Clone returns an independent copy of c.
func (c Cone) Clone() Cone {
	next := make(map[string]coneEntry, len(c.entries))
	for k, v := range c.entries {
		next[k] = v
	}
	return Cone{entries: next}
}

// Merge folds other into c, as when building a new cone from several
// predecessors (unfolding's buildCone): for each thread the entry with the
// greater depth is kept, so the result does not depend on merge order.
func (c Cone) Merge(other Cone) {
	for k, v := range other.entries {
		if cur, ok := c.entries[k]; !ok || v.depth > cur.depth {
			c.entries[k] = v
		}
	}
}
