// Copyright (c) 2025 The por-se Authors
//
// File: alternative.go
// Brief: compute_alternative(D): the coloured-BFS alternative search
//
// License: BSD-3-Clause

package conflict

import (
	"sort"

	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/unfolding"
)

// Colouring is the scratch space compute_alternative reuses across calls.
// Rather than clearing the visited set on every invocation, it stamps each
// event with the current generation and bumps the generation counter
// instead of sweeping, so repeated searches over the same (large) unfolding
// stay cheap.
type Colouring struct {
	stamp      map[event.ID]uint64
	generation uint64
}

// NewColouring returns empty scratch space.
func NewColouring() *Colouring {
	return &Colouring{stamp: make(map[event.ID]uint64)}
}

func (c *Colouring) reset() {
	c.generation++
}

func (c *Colouring) visit(id event.ID) bool {
	if c.stamp[id] == c.generation {
		return false
	}
	c.stamp[id] = c.generation
	return true
}

// Set is a membership set over event ids, used for both the current
// configuration and its disabled set D.
type Set map[event.ID]struct{}

// NewSet builds a Set from a slice of ids.
func NewSet(ids []event.ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) has(id event.ID) bool {
	_, ok := s[id]
	return ok
}

// Has reports whether id is a member of s. Exported for node.CreateRightBranches,
// which needs the same membership test outside this package.
func (s Set) Has(id event.ID) bool {
	return s.has(id)
}

// ComputeAlternative implements spec.md §4.4's compute_alternative(D): given
// the configuration C (config) and its disabled set D, find the first event
// j, by depth and then by id, such that
//
//  1. j is not already in C,
//  2. j is an immediate conflict of some event in D or of lastCommitted
//     (the "reshuffle" case: removing the most recently committed event
//     frees up whatever raced with it),
//  3. every event causally below j (including j itself) has no immediate
//     conflict with C outside of D.
//
// maxCSD bounds the context-switch degree of the schedule that would reach
// j; pass 0 to disable the bound. Returns (event.InvalidID, false) if no
// alternative exists.
func ComputeAlternative(
	u *unfolding.Unfolding,
	idx *Index,
	colouring *Colouring,
	config Set,
	lastCommitted event.ID,
	D []event.ID,
	maxCSD int,
) (event.ID, bool) {
	dSet := NewSet(D)

	seen := make(map[event.ID]struct{})
	var candidates []event.ID
	addFrom := func(from event.ID) {
		if from == event.InvalidID {
			return
		}
		for _, c := range idx.ImmediateConflicts(u, u.Event(from)) {
			if config.has(c) {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	for _, d := range D {
		addFrom(d)
	}
	addFrom(lastCommitted)

	sort.Slice(candidates, func(i, j int) bool {
		ei, ej := u.Event(candidates[i]), u.Event(candidates[j])
		if ei.Depth() != ej.Depth() {
			return ei.Depth() < ej.Depth()
		}
		return candidates[i] < candidates[j]
	})

	for _, j := range candidates {
		if maxCSD > 0 && contextSwitchDegree(u, config, j) > maxCSD {
			continue
		}
		if validAlternative(u, idx, colouring, config, dSet, j) {
			return j, true
		}
	}
	return event.InvalidID, false
}

// validAlternative colours C red (implicitly: "config") and D blue, then
// walks [j]'s causal closure checking that none of it conflicts with a red
// event outside the blue set.
func validAlternative(u *unfolding.Unfolding, idx *Index, colouring *Colouring, config, dSet Set, j event.ID) bool {
	colouring.reset()
	stack := []event.ID{j}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !colouring.visit(cur) {
			continue
		}
		curEvent := u.Event(cur)
		for _, conflict := range idx.ImmediateConflicts(u, curEvent) {
			if config.has(conflict) && !dSet.has(conflict) {
				return false
			}
		}
		for _, p := range curEvent.Predecessors() {
			stack = append(stack, p)
		}
	}
	return true
}

// contextSwitchDegree approximates the number of thread switches the
// schedule reaching j would add on top of C: the count of distinct threads
// appearing in j's causal closure restricted to events not already in C,
// minus one. This is a coarse over-approximation of the true CSD (spec.md
// §8's "CSD bound" property), adequate to bound search without needing the
// full replayed schedule.
func contextSwitchDegree(u *unfolding.Unfolding, config Set, j event.ID) int {
	colours := make(map[event.ID]struct{})
	tids := make(map[string]struct{})
	stack := []event.ID{j}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := colours[cur]; ok {
			continue
		}
		colours[cur] = struct{}{}
		if config.has(cur) {
			continue
		}
		e := u.Event(cur)
		tids[e.Tid().Key()] = struct{}{}
		for _, p := range e.Predecessors() {
			stack = append(stack, p)
		}
	}
	if len(tids) == 0 {
		return 0
	}
	return len(tids) - 1
}
