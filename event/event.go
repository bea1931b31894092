// Copyright (c) 2025 The por-se Authors
//
// File: event.go
// Brief: The immutable Event record and its arena
//
// License: BSD-3-Clause

package event

import "fmt"

// ID is an arena index. It eliminates the owning-cycle problem a
// pointer-based event graph would have: predecessor/cone links are plain
// integers, trivialising teardown (design notes, spec.md §9).
type ID int32

// InvalidID never names a real event.
const InvalidID ID = -1

// PathElem is one branch decision along a local block. Two local events
// with identical predecessors but different paths are distinct events.
type PathElem int64

// Metadata is the interpreter-owned, POR-opaque per-event cache. The core
// never reads or writes these fields for its own algorithms; it only
// carries them so the interpreter can stash a fingerprint value and a
// thread-local delta alongside the event that produced them.
type Metadata struct {
	FingerprintValue any
	ThreadDelta      any
}

// Event is immutable after construction except for the two bookkeeping
// fields explicitly called out as mutable by the spec: Successors (teardown
// only) and Color (transient graph marking, never read across algorithms
// that can run concurrently with whoever wrote it -- the core itself is
// single-threaded per §5).
type Event struct {
	id    ID
	kind  Kind
	tid   ThreadId
	depth uint32

	// predecessors holds exactly the slots of the shape table in spec.md
	// §3, in the documented order. Its length and meaning are a function
	// of kind; see the Kind-specific accessors below.
	predecessors []ID

	cone Cone

	// successors is maintained purely for teardown; no algorithm in
	// event/unfolding/configuration/conflict/node/fingerprint/race
	// observes it.
	successors map[ID]struct{}

	color uint32

	metadata Metadata

	// path is populated only for Kind == Local.
	path []PathElem

	// lockID is valid for every lock-chain kind (lock_create/destroy/
	// acquire/release, wait1, wait2), mirroring the grounding repo's own
	// TraceElementMutex.id field.
	lockID LockId

	// condID is valid for every condition-variable kind (cv_create/
	// destroy, wait1, wait2, signal, broadcast), mirroring the grounding
	// repo's own TraceElementCond.id field.
	condID CondId

	// otherTid is the spawning thread's tid for thread_init, or the
	// joined thread's tid for thread_join.
	otherTid ThreadId
}

// WithLockID attaches the lock identity to a lock-chain event and returns
// the receiver for chaining at construction time.
func (e *Event) WithLockID(id LockId) *Event {
	e.lockID = id
	return e
}

// LockID returns the lock identity attached by WithLockID.
func (e *Event) LockID() LockId { return e.lockID }

// WithCondID attaches the condition-variable identity to a cv event.
func (e *Event) WithCondID(id CondId) *Event {
	e.condID = id
	return e
}

// CondID returns the condition-variable identity attached by WithCondID.
func (e *Event) CondID() CondId { return e.condID }

// WithOtherTid attaches the spawning/joined thread identity to a
// thread_init or thread_join event.
func (e *Event) WithOtherTid(tid ThreadId) *Event {
	e.otherTid = tid
	return e
}

// OtherTid returns the thread identity attached by WithOtherTid.
func (e *Event) OtherTid() ThreadId { return e.otherTid }

// newEvent is called only by unfolding.Deduplicate, which is the sole
// place allowed to mint an ID and install a cone.
func newEvent(id ID, kind Kind, tid ThreadId, depth uint32, preds []ID, cone Cone, path []PathElem) *Event {
	return &Event{
		id:           id,
		kind:         kind,
		tid:          tid,
		depth:        depth,
		predecessors: preds,
		cone:         cone,
		successors:   make(map[ID]struct{}),
		path:         path,
	}
}

// NewEvent constructs an Event outside of an Unfolding's arena. It is used
// by unfolding.Deduplicate's candidate handling and is not meant to be
// called directly by consumers of the event package; exported because
// unfolding lives in a separate package and needs it.
func NewEvent(id ID, kind Kind, tid ThreadId, depth uint32, preds []ID, cone Cone, path []PathElem) *Event {
	return newEvent(id, kind, tid, depth, preds, cone, path)
}

// ID returns the event's arena index.
func (e *Event) ID() ID { return e.id }

// Kind returns the event's kind.
func (e *Event) Kind() Kind { return e.kind }

// Tid returns the thread that performed this event.
func (e *Event) Tid() ThreadId { return e.tid }

// Depth returns one more than the max predecessor depth (0 for
// program_init).
func (e *Event) Depth() uint32 { return e.depth }

// Predecessors returns the event's predecessor slots, in the canonical
// order documented by the Kind-specific accessors.
func (e *Event) Predecessors() []ID { return e.predecessors }

// Cone returns the event's cone (ThreadId -> latest same-thread event <= e).
func (e *Event) Cone() Cone { return e.cone }

// Path returns the branch-decision path for a Local event. It is empty for
// every other kind.
func (e *Event) Path() []PathElem { return e.path }

// Metadata returns the interpreter-owned cache attached to this event.
func (e *Event) Metadata() *Metadata { return &e.metadata }

// Color returns the transient graph-marking colour. Superseded in the
// conflict package by an explicit generation-counted scratch array (design
// notes, spec.md §9); retained here only so callers that want a
// lightweight single-pass marking don't need their own side table. No
// package of this module reads it.
func (e *Event) Color() uint32 { return e.color }

// SetColor overwrites the transient colour. Never read by any algorithm
// that might run "concurrently" with the writer; the core is
// single-threaded (spec.md §5).
func (e *Event) SetColor(c uint32) { e.color = c }

// AddSuccessor records a teardown-only back-edge. No algorithm in this
// module set observes successors.
func (e *Event) AddSuccessor(id ID) { e.successors[id] = struct{}{} }

// Successors returns the teardown back-edge set.
func (e *Event) Successors() map[ID]struct{} { return e.successors }

func (e *Event) String() string {
	return fmt.Sprintf("%s@%s#%d(depth=%d)", e.kind, e.tid, e.id, e.depth)
}

// --- Cone-based causal order -------------------------------------------

// IsLessThan reports whether e is causally at or below f: e's own thread
// has an entry in f's cone whose depth is at least e's. The test is on
// depth alone, so it also holds for e == f.
func (e *Event) IsLessThan(f *Event) bool {
	depth, ok := f.cone.GetDepth(e.tid)
	if !ok {
		return false
	}
	return depth >= e.depth
}

// IsLessThanEq reports e <= f (reflexive closure of IsLessThan).
func (e *Event) IsLessThanEq(f *Event) bool {
	if e.id == f.id {
		return true
	}
	return e.IsLessThan(f)
}

// IsConcurrent reports that neither e <= f nor f <= e.
func (e *Event) IsConcurrent(f *Event) bool {
	return !e.IsLessThanEq(f) && !f.IsLessThanEq(e)
}

// --- Kind-specific predecessor accessors -----------------------------

// SameThreadPredecessor returns the predecessor on e's own thread, for
// every kind that has one (every kind except program_init and
// thread_init, whose sole predecessor is the creator on a different
// thread).
func (e *Event) SameThreadPredecessor() (ID, bool) {
	switch e.kind {
	case ProgramInit:
		return InvalidID, false
	case ThreadInit:
		return InvalidID, false
	case Wait2:
		// wait2's same-thread continuity is the matching wait1 itself.
		if len(e.predecessors) > 0 {
			return e.predecessors[0], true
		}
		return InvalidID, false
	default:
		if len(e.predecessors) > 0 {
			return e.predecessors[0], true
		}
		return InvalidID, false
	}
}

// ThreadInitCreator returns thread_init's sole predecessor: the
// program_init event or the thread_create event that spawned this tid.
func (e *Event) ThreadInitCreator() (ID, bool) {
	if e.kind != ThreadInit || len(e.predecessors) == 0 {
		return InvalidID, false
	}
	return e.predecessors[0], true
}

// ThreadJoinExit returns thread_join's second predecessor: the thread_exit
// of the joined thread.
func (e *Event) ThreadJoinExit() (ID, bool) {
	if e.kind != ThreadJoin || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// LockLastOp returns lock_acquire/lock_destroy's optional "last op on
// lock" predecessor.
func (e *Event) LockLastOp() (ID, bool) {
	if !(e.kind == LockAcquire || e.kind == LockDestroy) || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// LockReleaseMatch returns lock_release's matching lock_acquire or wait1.
func (e *Event) LockReleaseMatch() (ID, bool) {
	if e.kind != LockRelease || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// Wait1Acquire returns wait1's matching lock_acquire predecessor.
func (e *Event) Wait1Acquire() (ID, bool) {
	if e.kind != Wait1 || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// Wait1PriorNotifications returns wait1's "prior non-lost notifications
// not in [self]" predecessors (index 2 onward).
func (e *Event) Wait1PriorNotifications() []ID {
	if e.kind != Wait1 || len(e.predecessors) < 3 {
		return nil
	}
	return e.predecessors[2:]
}

// Wait2Wait1 returns wait2's matching wait1 (always predecessors[0]).
func (e *Event) Wait2Wait1() (ID, bool) {
	if e.kind != Wait2 || len(e.predecessors) == 0 {
		return InvalidID, false
	}
	return e.predecessors[0], true
}

// Wait2Notifier returns wait2's notifying signal/broadcast predecessor.
func (e *Event) Wait2Notifier() (ID, bool) {
	if e.kind != Wait2 || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// Wait2Release returns wait2's "release unblocking the lock" predecessor.
func (e *Event) Wait2Release() (ID, bool) {
	if e.kind != Wait2 || len(e.predecessors) < 3 {
		return InvalidID, false
	}
	return e.predecessors[2], true
}

// SignalTarget returns a notifying signal's target wait1.
func (e *Event) SignalTarget() (ID, bool) {
	if e.kind != Signal || len(e.predecessors) < 2 {
		return InvalidID, false
	}
	return e.predecessors[1], true
}

// LostNotifications returns, for a lost signal or a lost broadcast, the
// set of earlier non-lost notifications on the same cv not already in
// [self]. For broadcast it instead returns the wait1s being woken when the
// broadcast is notifying; NotifyingWaits distinguishes the two cases.
func (e *Event) LostNotifications() []ID {
	if !(e.kind == Signal || e.kind == Broadcast) || len(e.predecessors) < 2 {
		return nil
	}
	return e.predecessors[1:]
}

// NotifyingWaits is an alias of LostNotifications used when a broadcast is
// notifying (rather than lost); the predecessor slot is shared because the
// two cases are mutually exclusive for a given broadcast event.
func (e *Event) NotifyingWaits() []ID {
	return e.LostNotifications()
}

// LockChainPredecessor returns the prior event on this event's lock chain,
// if any: lock_create has none (it starts a chain); lock_acquire and
// lock_destroy chain through LockLastOp; lock_release chains through its
// matching acquire/wait1; wait1 chains through its matching acquire;
// wait2 chains through the release that unblocked it. conflict.Index.Record
// groups lock_acquire/wait1 events that share this predecessor as competing
// for the lock; conflict.Independent itself compares LockID.
func (e *Event) LockChainPredecessor() (ID, bool) {
	switch e.kind {
	case LockAcquire, LockDestroy:
		return e.LockLastOp()
	case LockRelease:
		return e.LockReleaseMatch()
	case Wait1:
		return e.Wait1Acquire()
	case Wait2:
		return e.Wait2Release()
	default:
		return InvalidID, false
	}
}

// CondDestroyOps returns cv_destroy's "all still-relevant cv ops"
// predecessors (index 1 onward).
func (e *Event) CondDestroyOps() []ID {
	if e.kind != CondDestroy || len(e.predecessors) < 2 {
		return nil
	}
	return e.predecessors[1:]
}
