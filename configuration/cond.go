// Copyright (c) 2025 The por-se Authors
//
// File: cond.go
// Brief: create_cond, destroy_cond, wait1, wait2, signal, broadcast
//
// License: BSD-3-Clause

package configuration

import (
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/unfolding"
)

// CreateCond assigns the next monotonic CondId and emits
// condition_variable_create.
func (c *Configuration) CreateCond(tid event.ThreadId) (event.CondId, error) {
	head, ok := c.threadHead(tid)
	if !ok {
		return event.NoCond, porerrors.Raise(porerrors.NewPrecondition("CreateCond", "thread is not alive"))
	}
	cid := event.CondId(c.condIDGen.Next())
	evt, err := c.commit("CreateCond", unfolding.Candidate{
		Kind:         event.CondCreate,
		Tid:          tid,
		Predecessors: []event.ID{head},
		CondID:       cid,
	})
	if err != nil {
		return event.NoCond, err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.condHeads[cid] = []event.ID{evt.ID()}
	return cid, nil
}

// DestroyCond emits condition_variable_destroy, citing every still-relevant
// cv op (the current cond_heads multiset) as a predecessor.
func (c *Configuration) DestroyCond(tid event.ThreadId, cid event.CondId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("DestroyCond", "thread is not alive"))
	}
	ops, ok := c.condHeads[cid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("DestroyCond", "condition variable does not exist"))
	}
	for _, id := range ops {
		if c.unf.Event(id).Kind() == event.Wait1 {
			return porerrors.Raise(porerrors.NewPrecondition("DestroyCond", "a waiter is still blocked"))
		}
	}

	preds := append([]event.ID{head}, ops...)
	evt, err := c.commit("DestroyCond", unfolding.Candidate{
		Kind:         event.CondDestroy,
		Tid:          tid,
		Predecessors: preds,
		CondID:       cid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	delete(c.condHeads, cid)
	return nil
}

// Wait1 emits wait1: tid must currently hold lid; the call releases lid
// (other threads may now acquire it) and blocks tid on cid until a matching
// wait2 is committed.
func (c *Configuration) Wait1(tid event.ThreadId, lid event.LockId, cid event.CondId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait1", "thread is not alive"))
	}
	lockHead, ok := c.lockHeads[lid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait1", "lock does not exist"))
	}
	lockEvt := c.unf.Event(lockHead)
	if !lockEvt.Tid().Equal(tid) || (lockEvt.Kind() != event.LockAcquire && lockEvt.Kind() != event.Wait2) {
		return porerrors.Raise(porerrors.NewPrecondition("Wait1", "lock is not held by this thread"))
	}
	ops, ok := c.condHeads[cid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait1", "condition variable does not exist"))
	}

	var priorNotifications []event.ID
	for _, id := range ops {
		switch c.unf.Event(id).Kind() {
		case event.Signal, event.Broadcast:
			priorNotifications = append(priorNotifications, id)
		}
	}

	preds := append([]event.ID{head, lockHead}, priorNotifications...)
	evt, err := c.commit("Wait1", unfolding.Candidate{
		Kind:         event.Wait1,
		Tid:          tid,
		Predecessors: preds,
		LockID:       lid,
		CondID:       cid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	// wait1 plays the role of an internal release: the lock is available
	// to others while tid is blocked.
	c.lockHeads[lid] = evt.ID()

	var remaining []event.ID
	for _, id := range ops {
		if c.unf.Event(id).Kind() == event.Signal || c.unf.Event(id).Kind() == event.Broadcast {
			continue // folded into wait1's predecessors, no longer outstanding
		}
		remaining = append(remaining, id)
	}
	c.condHeads[cid] = append(remaining, evt.ID())
	return nil
}

// Wait2 emits wait2 for tid's blocked wait1, reacquiring lid. It must be
// called only after a Signal/Broadcast has targeted this wait1 (the caller
// is expected to drive that from the notified thread's perspective). The
// matching wait1 is tid's current head, which must be a wait1 on cid.
func (c *Configuration) Wait2(tid event.ThreadId, cid event.CondId, lid event.LockId) error {
	ops, ok := c.condHeads[cid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "condition variable does not exist"))
	}
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "thread is not alive"))
	}
	if e := c.unf.Event(head); e.Kind() != event.Wait1 || e.CondID() != cid {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "thread has no pending wait1 on this cv"))
	}
	var wait1ID, notifierID event.ID = head, event.InvalidID
	// The notifier is whichever signal/broadcast targeted this wait1;
	// conflict.Index.Record links that at Signal/Broadcast commit time, but
	// Configuration itself only needs the id, recoverable by scanning the
	// notifications still tracked against this cv for one naming wait1ID.
	for _, id := range ops {
		e := c.unf.Event(id)
		if e.Kind() != event.Signal && e.Kind() != event.Broadcast {
			continue
		}
		for _, target := range e.NotifyingWaits() {
			if target == wait1ID {
				notifierID = id
			}
		}
	}
	if notifierID == event.InvalidID {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "wait1 has not been notified yet"))
	}

	lockHead, ok := c.lockHeads[lid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "lock does not exist"))
	}
	lockEvt := c.unf.Event(lockHead)
	if lockEvt.Kind() == event.LockAcquire || lockEvt.Kind() == event.Wait2 {
		return porerrors.Raise(porerrors.NewPrecondition("Wait2", "lock is held by another thread"))
	}

	evt, err := c.commit("Wait2", unfolding.Candidate{
		Kind:         event.Wait2,
		Tid:          tid,
		Predecessors: []event.ID{wait1ID, notifierID, lockHead},
		LockID:       lid,
		CondID:       cid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.lockHeads[lid] = evt.ID()

	// The notifier stays tracked: a broadcast may still have other wait1s
	// to wake.
	var remaining []event.ID
	for _, id := range ops {
		if id == wait1ID {
			continue
		}
		remaining = append(remaining, id)
	}
	c.condHeads[cid] = remaining
	return nil
}

// Signal emits signal: if a wait1 is currently blocked on cid, it becomes
// the notifying target; otherwise the signal is lost and cites the
// notifications still tracked for cid, which it supersedes.
func (c *Configuration) Signal(tid event.ThreadId, cid event.CondId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Signal", "thread is not alive"))
	}
	ops, ok := c.condHeads[cid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Signal", "condition variable does not exist"))
	}

	target := event.InvalidID
	for _, id := range ops {
		if c.unf.Event(id).Kind() == event.Wait1 {
			target = id
			break
		}
	}

	var preds []event.ID
	var remaining []event.ID
	if target != event.InvalidID {
		preds = []event.ID{head, target}
		for _, id := range ops {
			if id != target {
				remaining = append(remaining, id)
			}
		}
	} else {
		// lost signal: cite every signal/broadcast still tracked for cid,
		// lost ones included; whether one is already in [self] is not
		// checked.
		preds = []event.ID{head}
		for _, id := range ops {
			switch c.unf.Event(id).Kind() {
			case event.Signal, event.Broadcast:
				preds = append(preds, id)
			default:
				remaining = append(remaining, id)
			}
		}
	}

	evt, err := c.commit("Signal", unfolding.Candidate{
		Kind:         event.Signal,
		Tid:          tid,
		Predecessors: preds,
		CondID:       cid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.condHeads[cid] = append(remaining, evt.ID())
	return nil
}

// Broadcast emits broadcast: wakes every wait1 currently blocked on cid, or,
// if none are blocked, is lost the same way Signal is.
func (c *Configuration) Broadcast(tid event.ThreadId, cid event.CondId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Broadcast", "thread is not alive"))
	}
	ops, ok := c.condHeads[cid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Broadcast", "condition variable does not exist"))
	}

	var targets []event.ID
	for _, id := range ops {
		if c.unf.Event(id).Kind() == event.Wait1 {
			targets = append(targets, id)
		}
	}

	var preds []event.ID
	var remaining []event.ID
	if len(targets) > 0 {
		preds = append([]event.ID{head}, targets...)
		for _, id := range ops {
			isTarget := false
			for _, t := range targets {
				if id == t {
					isTarget = true
				}
			}
			if !isTarget {
				remaining = append(remaining, id)
			}
		}
	} else {
		// lost broadcast: the same selection as a lost Signal. Every
		// signal/broadcast still tracked for cid is cited; none is left out
		// for already being in [self], and no depth comparison is made.
		preds = []event.ID{head}
		for _, id := range ops {
			switch c.unf.Event(id).Kind() {
			case event.Signal, event.Broadcast:
				preds = append(preds, id)
			default:
				remaining = append(remaining, id)
			}
		}
	}

	evt, err := c.commit("Broadcast", unfolding.Candidate{
		Kind:         event.Broadcast,
		Tid:          tid,
		Predecessors: preds,
		CondID:       cid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.condHeads[cid] = append(remaining, evt.ID())
	return nil
}
