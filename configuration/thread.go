// Copyright (c) 2025 The por-se Authors
//
// File: thread.go
// Brief: spawn_thread, stop_thread, join_thread
//
// License: BSD-3-Clause

package configuration

import (
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/unfolding"
)

// SpawnThread emits thread_create(source) (unless source is the root
// program_init pseudo-thread, which brings up the main thread directly)
// followed by thread_init(new tid), and returns the deterministically
// assigned child tid: the first spawn of source becomes (source,1), etc.
func (c *Configuration) SpawnThread(source event.ThreadId) (event.ThreadId, error) {
	var creator event.ID

	if source.IsRoot() {
		creator = c.programInit
	} else {
		head, ok := c.threadHead(source)
		if !ok || c.unf.Event(head).Kind() == event.ThreadExit {
			return event.ThreadId{}, porerrors.Raise(porerrors.NewPrecondition(
				"SpawnThread", "source thread is not alive",
			))
		}
		createEvt, err := c.commit("SpawnThread", unfolding.Candidate{
			Kind:         event.ThreadCreate,
			Tid:          source,
			Predecessors: []event.ID{head},
		})
		if err != nil {
			return event.ThreadId{}, err
		}
		c.threadHeads[source.Key()] = createEvt.ID()
		creator = createEvt.ID()
	}

	newTid := c.nextChildTid(source)

	initEvt, err := c.commit("SpawnThread", unfolding.Candidate{
		Kind:         event.ThreadInit,
		Tid:          newTid,
		Predecessors: []event.ID{creator},
		OtherTid:     source,
	})
	if err != nil {
		return event.ThreadId{}, err
	}
	c.threadHeads[newTid.Key()] = initEvt.ID()

	return newTid, nil
}

// StopThread emits thread_exit for tid. Precondition: tid alive.
func (c *Configuration) StopThread(tid event.ThreadId) error {
	head, ok := c.threadHead(tid)
	if !ok || c.unf.Event(head).Kind() == event.ThreadExit {
		return porerrors.Raise(porerrors.NewPrecondition("StopThread", "thread is not alive"))
	}
	evt, err := c.commit("StopThread", unfolding.Candidate{
		Kind:         event.ThreadExit,
		Tid:          tid,
		Predecessors: []event.ID{head},
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	return nil
}

// JoinThread emits thread_join for tid against joined, which must have
// already stopped.
func (c *Configuration) JoinThread(tid, joined event.ThreadId) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("JoinThread", "joining thread is not alive"))
	}
	joinedHead, ok := c.threadHead(joined)
	if !ok || c.unf.Event(joinedHead).Kind() != event.ThreadExit {
		return porerrors.Raise(porerrors.NewPrecondition("JoinThread", "joined thread has not stopped"))
	}
	evt, err := c.commit("JoinThread", unfolding.Candidate{
		Kind:         event.ThreadJoin,
		Tid:          tid,
		Predecessors: []event.ID{head, joinedHead},
		OtherTid:     joined,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	return nil
}
