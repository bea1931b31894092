// Copyright (c) 2025 The por-se Authors
//
// File: configuration.go
// Brief: Configuration: the maximal causally-closed, conflict-free set of
//        committed events, and the commit API driving it
//
// License: BSD-3-Clause

// Package configuration implements the per-state Configuration described in
// spec.md §3/§4.3: a causally closed, conflict-free set of committed
// events, the per-resource head maps that make each commit method's
// precondition check O(1), and the schedule/schedule_pos pair that lets the
// same commit methods serve both live exploration and catch-up replay.
package configuration

import (
	"github.com/por-se/por-se-sub001/conflict"
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/unfolding"
)

// Configuration is owned by exactly one Node (spec.md §3); right-child
// branching clones it via Clone.
type Configuration struct {
	unf *unfolding.Unfolding
	idx *conflict.Index

	programInit event.ID

	threadHeads map[string]event.ID
	lockHeads   map[event.LockId]event.ID
	condHeads   map[event.CondId][]event.ID

	childCounter map[string]uint16
	lockIDGen    *event.IDGenerator
	condIDGen    *event.IDGenerator

	schedule    []event.ID
	schedulePos int

	// standby is the interpreter-owned snapshot a Node attaches after a
	// successful commit; opaque to this package (spec.md §3, §4.5).
	standby any
}

// New creates a fresh configuration sharing unf and idx with every other
// configuration in the same exploration run, and commits the program_init
// event.
func New(unf *unfolding.Unfolding, idx *conflict.Index) *Configuration {
	c := &Configuration{
		unf:          unf,
		idx:          idx,
		threadHeads:  make(map[string]event.ID),
		lockHeads:    make(map[event.LockId]event.ID),
		condHeads:    make(map[event.CondId][]event.ID),
		childCounter: make(map[string]uint16),
		lockIDGen:    event.NewIDGenerator(),
		condIDGen:    event.NewIDGenerator(),
		schedulePos:  0,
	}

	res, err := unf.Deduplicate(unfolding.Candidate{
		Kind: event.ProgramInit,
		Tid:  event.RootThreadId(),
	})
	if err != nil {
		// program_init can only fail if the unfolding is corrupt; this is
		// unreachable on a fresh Unfolding.
		panic(err)
	}
	c.programInit = res.ID
	c.schedule = append(c.schedule, res.ID)
	c.schedulePos = 1
	return c
}

// Clone returns an independent copy sharing the same unfolding and conflict
// index (both append-only / additive, so sharing them is safe) but owning
// its own head maps and schedule, per spec.md §4.5's "copy-on-write when a
// right child diverges".
func (c *Configuration) Clone() *Configuration {
	clone := &Configuration{
		unf:          c.unf,
		idx:          c.idx,
		programInit:  c.programInit,
		threadHeads:  make(map[string]event.ID, len(c.threadHeads)),
		lockHeads:    make(map[event.LockId]event.ID, len(c.lockHeads)),
		condHeads:    make(map[event.CondId][]event.ID, len(c.condHeads)),
		childCounter: make(map[string]uint16, len(c.childCounter)),
		lockIDGen:    c.lockIDGen.Clone(),
		condIDGen:    c.condIDGen.Clone(),
		schedule:     append([]event.ID(nil), c.schedule...),
		schedulePos:  c.schedulePos,
		standby:      c.standby,
	}
	for k, v := range c.threadHeads {
		clone.threadHeads[k] = v
	}
	for k, v := range c.lockHeads {
		clone.lockHeads[k] = v
	}
	for k, v := range c.condHeads {
		clone.condHeads[k] = append([]event.ID(nil), v...)
	}
	for k, v := range c.childCounter {
		clone.childCounter[k] = v
	}
	return clone
}

// commit is the one place every commit-API method funnels through: it
// canonicalises candidate via the shared unfolding and either validates it
// against the pre-recorded schedule (catch-up mode) or extends the
// schedule (live mode), per spec.md §4.3.
func (c *Configuration) commit(op string, candidate unfolding.Candidate) (*event.Event, error) {
	res, err := c.unf.Deduplicate(candidate)
	if err != nil {
		return nil, porerrors.Raise(porerrors.NewInvariant("configuration."+op, err.Error()))
	}

	if c.schedulePos < len(c.schedule) {
		if c.schedule[c.schedulePos] != res.ID {
			return nil, porerrors.Raise(porerrors.NewInvariant(
				"configuration."+op,
				"catch-up divergence: interpreter emitted a different event than recorded",
			))
		}
	} else {
		c.schedule = append(c.schedule, res.ID)
		if res.IsNew && c.idx != nil {
			c.idx.Record(c.unf.Event(res.ID))
		}
	}
	c.schedulePos++
	return c.unf.Event(res.ID), nil
}

// ExtendSchedule appends ids to the schedule without running them through
// the commit funnel: used by node.CreateRightBranches to arrange for
// catch-up to expect exactly the sequence A = [j] \ configuration (spec.md
// §4.5), which the interpreter then reproduces one register call at a time
// via node.CatchUp. Callers must only extend a live configuration (c must
// satisfy IsLive() beforehand), since ids are appended past the current
// schedule end.
func (c *Configuration) ExtendSchedule(ids []event.ID) {
	c.schedule = append(c.schedule, ids...)
}

func (c *Configuration) nextChildTid(source event.ThreadId) event.ThreadId {
	k := c.childCounter[source.Key()]
	k++
	c.childCounter[source.Key()] = k
	return source.Child(k)
}

// --- Inspectors (spec.md §6) --------------------------------------------

// ThreadHeads returns the most recent committed event for every thread
// started so far (an exited thread keeps its thread_exit head), keyed by
// its ThreadId.Key() encoding.
func (c *Configuration) ThreadHeads() map[string]event.ID {
	out := make(map[string]event.ID, len(c.threadHeads))
	for k, v := range c.threadHeads {
		out[k] = v
	}
	return out
}

// LockHeads returns the most recent committed event for every live lock.
func (c *Configuration) LockHeads() map[event.LockId]event.ID {
	out := make(map[event.LockId]event.ID, len(c.lockHeads))
	for k, v := range c.lockHeads {
		out[k] = v
	}
	return out
}

// CondHeads returns, for every live condition variable, the multiset of
// blocked wait1s plus the most recent non-lost notifier and/or cv_create.
func (c *Configuration) CondHeads() map[event.CondId][]event.ID {
	out := make(map[event.CondId][]event.ID, len(c.condHeads))
	for k, v := range c.condHeads {
		out[k] = append([]event.ID(nil), v...)
	}
	return out
}

// ActiveThreads returns the ThreadIds whose head is neither thread_exit nor
// still blocked in wait1.
func (c *Configuration) ActiveThreads() []event.ThreadId {
	var out []event.ThreadId
	for _, id := range c.threadHeads {
		e := c.unf.Event(id)
		if e.Kind() == event.ThreadExit || e.Kind() == event.Wait1 {
			continue
		}
		out = append(out, e.Tid())
	}
	return out
}

// Schedule returns the commit order so far.
func (c *Configuration) Schedule() []event.ID {
	return append([]event.ID(nil), c.schedule...)
}

// SchedulePos returns the replay cursor; SchedulePos() == len(Schedule())
// means the configuration is live (not replaying a recorded prefix).
func (c *Configuration) SchedulePos() int {
	return c.schedulePos
}

// IsLive reports whether the configuration has caught up to its own
// recorded schedule and is ready to commit brand new events.
func (c *Configuration) IsLive() bool {
	return c.schedulePos >= len(c.schedule)
}

// Peek returns the next recorded event the interpreter is expected to
// reproduce during catch-up, or (InvalidID, false) when live.
func (c *Configuration) Peek() (event.ID, bool) {
	if c.IsLive() {
		return event.InvalidID, false
	}
	return c.schedule[c.schedulePos], true
}

// StandbyState returns the interpreter snapshot most recently attached via
// SetStandbyState.
func (c *Configuration) StandbyState() any {
	return c.standby
}

// SetStandbyState attaches an interpreter-owned snapshot, opaque to this
// package.
func (c *Configuration) SetStandbyState(s any) {
	c.standby = s
}

// ProgramInit returns the root event every configuration starts from.
func (c *Configuration) ProgramInit() event.ID {
	return c.programInit
}

// Unfolding returns the shared unfolding backing this configuration.
func (c *Configuration) Unfolding() *unfolding.Unfolding {
	return c.unf
}

func (c *Configuration) threadHead(tid event.ThreadId) (event.ID, bool) {
	id, ok := c.threadHeads[tid.Key()]
	return id, ok
}
