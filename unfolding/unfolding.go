// Copyright (c) 2025 The por-se Authors
//
// File: unfolding.go
// Brief: The deduplicated event DAG shared by every explored configuration
//
// License: BSD-3-Clause

// Package unfolding implements the deduplicated union of every
// configuration ever constructed during exploration: a directed acyclic
// event graph keyed by (tid, depth, kind, ordered predecessor identities,
// local-path). Two structurally identical candidate events always resolve
// to the same arena slot.
package unfolding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/por-se/por-se-sub001/event"
)

// Candidate is the provisional, not-yet-owned event a Configuration method
// asks the Unfolding to canonicalise. One of these is constructed per event
// a commit-API call emits (SpawnThread from a non-root thread emits two:
// thread_create and thread_init; spec.md §4.3); Unfolding.Deduplicate either returns
// the existing matching event or installs Candidate as a new one.
type Candidate struct {
	Kind         event.Kind
	Tid          event.ThreadId
	Predecessors []event.ID
	Path         []event.PathElem // only meaningful for event.Local

	// LockID/CondID/OtherTid are not part of the canonical key (the
	// predecessor chain already pins down which resource instance is
	// involved); they are carried through so the constructed Event can
	// expose them directly, mirroring the grounding repo's trace
	// elements, which store their resource id inline.
	LockID   event.LockId
	CondID   event.CondId
	OtherTid event.ThreadId
}

// DedupResult is the outcome of Deduplicate: the canonical handle for the
// candidate, and whether it was newly inserted.
type DedupResult struct {
	ID    event.ID
	IsNew bool
}

// canonicalKey is the comparable projection of a Candidate used to look up
// whether an equivalent event already exists. Predecessor identity here is
// pointer-equivalent to semantic identity, because every predecessor ID
// this package is handed is itself already canonical.
type canonicalKey struct {
	tid   string
	depth uint32
	kind  event.Kind
	preds string
	path  string
}

// Unfolding owns the append-only event arena. Handles (event.ID) stay
// valid for the entire run; nothing is ever removed.
type Unfolding struct {
	events []*event.Event
	index  map[canonicalKey]event.ID
}

// New returns an empty unfolding.
func New() *Unfolding {
	return &Unfolding{
		index: make(map[canonicalKey]event.ID),
	}
}

// Event dereferences a handle. Panics on an out-of-range id, which can only
// happen on a caller bug (an id that didn't come from this Unfolding).
func (u *Unfolding) Event(id event.ID) *event.Event {
	return u.events[id]
}

// Len returns the number of distinct events ever canonicalised.
func (u *Unfolding) Len() int {
	return len(u.events)
}

func predecessorsKey(preds []event.ID) string {
	var b strings.Builder
	for i, p := range preds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(p)))
	}
	return b.String()
}

func pathKey(path []event.PathElem) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(p), 10))
	}
	return b.String()
}

func (u *Unfolding) depthOf(preds []event.ID) uint32 {
	var maxDepth uint32
	first := true
	for _, p := range preds {
		d := u.events[p].Depth()
		if first || d > maxDepth {
			maxDepth = d
			first = false
		}
	}
	if len(preds) == 0 {
		return 0
	}
	return maxDepth + 1
}

// buildCone unions the cones of every predecessor, then self-maps tid to
// the new event. This is equivalent to (and simpler than) "start from the
// same-thread predecessor's cone, then insert the rest": since every
// predecessor's cone already satisfies the invariant, the union over all
// of them yields the same result regardless of iteration order.
func (u *Unfolding) buildCone(preds []event.ID, tid event.ThreadId, id event.ID, depth uint32) event.Cone {
	cone := event.NewCone()
	for _, p := range preds {
		cone.Merge(u.events[p].Cone())
	}
	cone.Set(tid, id, depth)
	return cone
}

// Deduplicate canonicalises candidate: if an equivalent event already
// exists in the arena, its handle is returned with IsNew=false; otherwise
// candidate is constructed into the arena and returned with IsNew=true.
//
// Predecessors must all already be valid ids in this Unfolding (this is
// what makes predecessor-identity comparison a plain id comparison).
func (u *Unfolding) Deduplicate(candidate Candidate) (DedupResult, error) {
	for _, p := range candidate.Predecessors {
		if p < 0 || int(p) >= len(u.events) {
			return DedupResult{}, fmt.Errorf("unfolding: predecessor %d is not a member of this unfolding", p)
		}
	}

	depth := u.depthOf(candidate.Predecessors)

	key := canonicalKey{
		tid:   candidate.Tid.Key(),
		depth: depth,
		kind:  candidate.Kind,
		preds: predecessorsKey(candidate.Predecessors),
	}
	if candidate.Kind == event.Local {
		key.path = pathKey(candidate.Path)
	}

	if id, ok := u.index[key]; ok {
		return DedupResult{ID: id, IsNew: false}, nil
	}

	id := event.ID(len(u.events))
	cone := u.buildCone(candidate.Predecessors, candidate.Tid, id, depth)

	var path []event.PathElem
	if candidate.Kind == event.Local {
		path = append([]event.PathElem(nil), candidate.Path...)
	}

	preds := append([]event.ID(nil), candidate.Predecessors...)
	e := event.NewEvent(id, candidate.Kind, candidate.Tid, depth, preds, cone, path)
	e.WithLockID(candidate.LockID).WithCondID(candidate.CondID).WithOtherTid(candidate.OtherTid)

	u.events = append(u.events, e)
	u.index[key] = id

	for _, p := range preds {
		u.events[p].AddSuccessor(id)
	}

	return DedupResult{ID: id, IsNew: true}, nil
}
