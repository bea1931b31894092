// Copyright (c) 2025 The por-se Authors
//
// File: index.go
// Brief: Reverse adjacency needed to compute immediate conflicts in O(1)
//
// License: BSD-3-Clause

package conflict

import (
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/unfolding"
)

// Index is the reverse-adjacency structure immediate-conflict computation
// needs: for a lock chain predecessor p, which lock_acquire/wait1 events
// competed to go next after p; for a wait1 w, which signal/broadcast
// events could have woken it. The Event.successors field is explicitly
// teardown-only and never read by algorithms (spec.md §3), so this index
// is the sanctioned way to ask "what else could have happened here" in
// O(1) instead of scanning the whole arena.
type Index struct {
	lockCompetitors map[event.ID][]event.ID
	cvCompetitors   map[event.ID][]event.ID
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		lockCompetitors: make(map[event.ID][]event.ID),
		cvCompetitors:   make(map[event.ID][]event.ID),
	}
}

// Record must be called exactly once for every newly-inserted event (i.e.
// whenever Unfolding.Deduplicate returns IsNew=true), in commit order.
func (ix *Index) Record(e *event.Event) {
	switch e.Kind() {
	case event.LockAcquire, event.Wait1:
		if p, ok := e.LockChainPredecessor(); ok {
			ix.lockCompetitors[p] = append(ix.lockCompetitors[p], e.ID())
		}
	case event.Signal:
		if target, ok := e.SignalTarget(); ok {
			ix.cvCompetitors[target] = append(ix.cvCompetitors[target], e.ID())
		}
	case event.Broadcast:
		for _, w := range e.NotifyingWaits() {
			ix.cvCompetitors[w] = append(ix.cvCompetitors[w], e.ID())
		}
	}
}

// ImmediateConflicts returns the events in immediate conflict with e, per
// spec.md §4.4: computed only for lock_acquire (competitors for the same
// lock-chain predecessor) and wait2 (other notifications that could have
// woken e's matching wait1 instead of the one that did).
func (ix *Index) ImmediateConflicts(u *unfolding.Unfolding, e *event.Event) []event.ID {
	switch e.Kind() {
	case event.LockAcquire:
		p, ok := e.LockChainPredecessor()
		if !ok {
			return nil
		}
		return without(ix.lockCompetitors[p], e.ID())
	case event.Wait2:
		w1, ok := e.Wait2Wait1()
		if !ok {
			return nil
		}
		notifier, _ := e.Wait2Notifier()
		return without(ix.cvCompetitors[w1], notifier)
	default:
		return nil
	}
}

func without(ids []event.ID, exclude event.ID) []event.ID {
	out := make([]event.ID, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
