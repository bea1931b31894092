// Copyright (c) 2025 The por-se Authors
//
// File: lock.go
// Brief: create_lock, destroy_lock, acquire_lock, release_lock
//
// License: BSD-3-Clause

package configuration

import (
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/unfolding"
)

// CreateLock assigns the next monotonic LockId and emits lock_create.
func (c *Configuration) CreateLock(tid event.ThreadId) (event.LockId, error) {
	head, ok := c.threadHead(tid)
	if !ok {
		return event.NoLock, porerrors.Raise(porerrors.NewPrecondition("CreateLock", "thread is not alive"))
	}
	lid := event.LockId(c.lockIDGen.Next())
	evt, err := c.commit("CreateLock", unfolding.Candidate{
		Kind:         event.LockCreate,
		Tid:          tid,
		Predecessors: []event.ID{head},
		LockID:       lid,
	})
	if err != nil {
		return event.NoLock, err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.lockHeads[lid] = evt.ID()
	return lid, nil
}

// DestroyLock emits lock_destroy for lid, which must be released (or only
// just created).
func (c *Configuration) DestroyLock(tid event.ThreadId, lid event.LockId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("DestroyLock", "thread is not alive"))
	}
	lockHead, ok := c.lockHeads[lid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("DestroyLock", "lock does not exist"))
	}
	lastOp := c.unf.Event(lockHead)
	if lastOp.Kind() == event.LockAcquire || lastOp.Kind() == event.Wait2 {
		return porerrors.Raise(porerrors.NewPrecondition("DestroyLock", "lock is still held"))
	}

	preds := []event.ID{head}
	if lastOp.Kind() != event.LockCreate {
		preds = append(preds, lockHead)
	}
	evt, err := c.commit("DestroyLock", unfolding.Candidate{
		Kind:         event.LockDestroy,
		Tid:          tid,
		Predecessors: preds,
		LockID:       lid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	delete(c.lockHeads, lid)
	return nil
}

// AcquireLock emits lock_acquire. The lock must be released or newly
// created; if lid is absent from lock_heads (never created, or destroyed)
// it returns a PreconditionError: lock_create is not optional in this core
// (see DESIGN.md).
func (c *Configuration) AcquireLock(tid event.ThreadId, lid event.LockId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("AcquireLock", "thread is not alive"))
	}

	preds := []event.ID{head}
	if lockHead, ok := c.lockHeads[lid]; ok {
		lastOp := c.unf.Event(lockHead)
		if lastOp.Kind() == event.LockAcquire || lastOp.Kind() == event.Wait2 {
			return porerrors.Raise(porerrors.NewPrecondition("AcquireLock", "lock is already held"))
		}
		preds = append(preds, lockHead)
	} else {
		return porerrors.Raise(porerrors.NewPrecondition(
			"AcquireLock", "lock was never created (optional_creation_events is off)",
		))
	}

	evt, err := c.commit("AcquireLock", unfolding.Candidate{
		Kind:         event.LockAcquire,
		Tid:          tid,
		Predecessors: preds,
		LockID:       lid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.lockHeads[lid] = evt.ID()
	return nil
}

// ReleaseLock emits lock_release. lid's most recent lock event must be a
// lock_acquire or wait2 by tid; other events of tid (a signal, a local) may
// follow it. The release cites tid's head and the matching acquire (or, for
// a wait2, its wait1).
func (c *Configuration) ReleaseLock(tid event.ThreadId, lid event.LockId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("ReleaseLock", "thread is not alive"))
	}
	lockHead, ok := c.lockHeads[lid]
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("ReleaseLock", "lock does not exist"))
	}
	lockEvt := c.unf.Event(lockHead)
	if (lockEvt.Kind() != event.LockAcquire && lockEvt.Kind() != event.Wait2) || !lockEvt.Tid().Equal(tid) {
		return porerrors.Raise(porerrors.NewPrecondition(
			"ReleaseLock", "lock is not held by this thread (no acquire/wait2 by it on this lock)",
		))
	}

	match := lockHead
	if lockEvt.Kind() == event.Wait2 {
		if m, ok := lockEvt.Wait2Wait1(); ok {
			match = m
		}
	}

	evt, err := c.commit("ReleaseLock", unfolding.Candidate{
		Kind:         event.LockRelease,
		Tid:          tid,
		Predecessors: []event.ID{head, match},
		LockID:       lid,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	c.lockHeads[lid] = evt.ID()
	return nil
}
