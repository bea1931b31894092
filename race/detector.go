// Copyright (c) 2025 The por-se Authors
//
// File: detector.go
// Brief: EpochMemoryAccesses, Detector.TrackAccess, Detector.IsRace
//
// License: BSD-3-Clause

package race

import (
	"github.com/por-se/por-se-sub001/configuration"
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/solver"
	"github.com/por-se/por-se-sub001/timing"
)

// EpochMemoryAccesses is the access table attached to one committed event:
// Map<ObjectId, ObjectAccesses>.
type EpochMemoryAccesses struct {
	objects map[ObjectId]*ObjectAccesses
}

func newEpoch() *EpochMemoryAccesses {
	return &EpochMemoryAccesses{objects: make(map[ObjectId]*ObjectAccesses)}
}

// clone returns a shallow copy: the per-object tables are shared until
// register mutates one (copy-on-write at the ObjectAccesses level).
func (e *EpochMemoryAccesses) clone() *EpochMemoryAccesses {
	next := &EpochMemoryAccesses{objects: make(map[ObjectId]*ObjectAccesses, len(e.objects))}
	for k, v := range e.objects {
		next.objects[k] = v
	}
	return next
}

// Detector owns the per-event epoch table and acts as the copy-on-write
// owner token for ObjectAccesses. A single instance is shared across every
// live configuration in an exploration run; IsRace takes the configuration
// explicitly per call rather than binding one at construction.
type Detector struct {
	epochs map[event.ID]*EpochMemoryAccesses
}

// NewDetector returns a detector with an empty epoch table.
func NewDetector() *Detector {
	return &Detector{epochs: make(map[event.ID]*EpochMemoryAccesses)}
}

// TrackAccess registers mop, committed as eventID whose same-thread
// predecessor is prevEventID, and returns the resulting epoch. prevEventID
// may be event.InvalidID for a thread's first tracked access.
func (d *Detector) TrackAccess(prevEventID, eventID event.ID, mop MemoryOp) *EpochMemoryAccesses {
	var base *EpochMemoryAccesses
	if prev, ok := d.epochs[prevEventID]; ok {
		base = prev.clone()
	} else {
		base = newEpoch()
	}

	oa, ok := base.objects[mop.Object]
	if !ok {
		oa = newObjectAccesses(d)
	}
	base.objects[mop.Object] = oa.register(d, mop, eventID)

	d.epochs[eventID] = base
	return base
}

// candidate is a flattened view of one prior access visible to a race
// query, whether it came from the alloc/free collapse or the operation
// list.
type candidate struct {
	allocFree   bool
	kind        AccessKind
	instruction string
	offset      Offset
	numBytes    uint64
	event       event.ID
	thread      event.ThreadId
}

func (oa *ObjectAccesses) candidates(threadOfEvent event.ThreadId) []candidate {
	if oa.collapsed {
		return []candidate{{allocFree: true, instruction: oa.allocFreeInstruction, thread: threadOfEvent}}
	}
	out := make([]candidate, 0, len(oa.ops))
	for _, op := range oa.ops {
		out = append(out, candidate{
			kind:        op.kind,
			instruction: op.instruction,
			offset:      op.offset,
			numBytes:    op.numBytes,
			event:       op.event,
			thread:      threadOfEvent,
		})
	}
	return out
}

// RaceResult is the outcome of IsRace (spec.md §6).
type RaceResult struct {
	IsRace             bool
	RacingInstruction  string
	RacingThread       event.ThreadId
	CanBeSafe          bool
	ConditionToBeSafe  solver.Expr
	NewConstraint      solver.Expr
}

// IsRace implements spec.md §4.6's is_race(node, solver, mop): the fast
// concrete-offset path first, falling through to the solver path only for
// candidates with a symbolic offset. Returns nil when the solver could not
// decide (timeout), which the caller must propagate without further
// computation.
func (d *Detector) IsRace(cfg *configuration.Configuration, operatingHead event.ID, mop MemoryOp, s solver.Solver) *RaceResult {
	timing.Start(timing.RaceQuery)
	defer timing.Stop(timing.RaceQuery)

	unf := cfg.Unfolding()
	operating := unf.Event(operatingHead)

	var candidates []candidate
	for _, headID := range cfg.ThreadHeads() {
		head := unf.Event(headID)
		if head.Tid().Equal(operating.Tid()) {
			continue
		}
		cur := headID
		for {
			evt := unf.Event(cur)
			if evt.IsLessThan(operating) {
				break
			}
			if epoch, ok := d.epochs[cur]; ok {
				if oa, ok2 := epoch.objects[mop.Object]; ok2 {
					candidates = append(candidates, oa.candidates(evt.Tid())...)
				}
			}
			p, ok := evt.SameThreadPredecessor()
			if !ok {
				break
			}
			cur = p
		}
	}

	return evaluate(candidates, mop, s)
}

func evaluate(candidates []candidate, mop MemoryOp, s solver.Solver) *RaceResult {
	var symbolic []candidate

	for _, c := range candidates {
		if c.allocFree || mop.IsAllocFree {
			return &RaceResult{
				IsRace:            true,
				RacingInstruction: c.instruction,
				RacingThread:      c.thread,
				CanBeSafe:         false,
			}
		}
		if c.kind == Read && mop.Kind == Read {
			continue
		}
		if c.offset.Symbolic() || mop.Offset.Symbolic() {
			symbolic = append(symbolic, c)
			continue
		}
		if overlaps(c, mop) {
			return &RaceResult{
				IsRace:            true,
				RacingInstruction: c.instruction,
				RacingThread:      c.thread,
				CanBeSafe:         false,
			}
		}
	}

	if len(symbolic) == 0 {
		return &RaceResult{IsRace: false}
	}
	if s == nil {
		return nil
	}
	return evaluateSymbolic(symbolic, mop, s)
}

func overlaps(c candidate, mop MemoryOp) bool {
	cLow, cHigh := c.offset.Low, c.offset.Low+int64(c.numBytes)
	mLow, mHigh := mop.Offset.Low, mop.Offset.Low+int64(mop.NumBytes)
	return cLow < mHigh && mLow < cHigh
}

// evaluateSymbolic builds queryIsSafeForAll = AND over candidates of
// (endOf(mop) < offset(cand) OR endOf(cand) < offset(mop)) and consults the
// solver, per spec.md §4.6.
func evaluateSymbolic(candidates []candidate, mop MemoryOp, s solver.Solver) *RaceResult {
	mopEnd := solver.Range{Low: mop.Offset.Low + int64(mop.NumBytes), High: mop.Offset.High + int64(mop.NumBytes)}
	mopStart := solver.Range{Low: mop.Offset.Low, High: mop.Offset.High}

	var terms []solver.Expr
	for _, c := range candidates {
		candEnd := solver.Range{Low: c.offset.Low + int64(c.numBytes), High: c.offset.High + int64(c.numBytes)}
		candStart := solver.Range{Low: c.offset.Low, High: c.offset.High}
		// mop entirely before cand, or cand entirely before mop.
		mopBeforeCand := solver.LessThan(mopEnd, candStart)
		candBeforeMop := solver.LessThan(candEnd, mopStart)
		terms = append(terms, solver.Or(mopBeforeCand, candBeforeMop))
	}
	query := solver.And(terms...)

	mustSafe, ok := s.MustBeTrue(query)
	if !ok {
		return nil
	}
	if mustSafe {
		return &RaceResult{IsRace: false, NewConstraint: query}
	}

	mayBeUnsafe, ok := s.MayBeTrue(query)
	if !ok {
		return nil
	}
	if !mayBeUnsafe {
		// Unconditional race: walk candidates to find a witness with
		// mayBeFalse(notOverlapping) returning true (spec.md §4.6).
		witness, ok := findUnconditionalWitness(candidates, terms, s)
		if !ok {
			return nil
		}
		return &RaceResult{
			IsRace:            true,
			RacingInstruction: witness.instruction,
			RacingThread:      witness.thread,
			CanBeSafe:         false,
		}
	}

	return &RaceResult{
		IsRace:            true,
		CanBeSafe:         true,
		ConditionToBeSafe: query,
	}
}

// findUnconditionalWitness picks the candidate whose own "not overlapping"
// term the solver confirms can be false, per spec.md §4.6: when the whole
// query can never be true (mayBeTrue==false), at least one conjunct must be
// falsifiable, but it need not be the first one tried, so each candidate's
// term is checked with MayBeFalse in turn rather than assuming candidates[0].
// Returns (zero, false) if the solver could not decide any of them (timeout).
func findUnconditionalWitness(candidates []candidate, terms []solver.Expr, s solver.Solver) (candidate, bool) {
	for i, term := range terms {
		mayBeFalse, ok := s.MayBeFalse(term)
		if !ok {
			return candidate{}, false
		}
		if mayBeFalse {
			return candidates[i], true
		}
	}
	return candidate{}, false
}
