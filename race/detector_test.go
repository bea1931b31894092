// Copyright (c) 2025 The por-se Authors
//
// File: detector_test.go
// Brief: Fast-path / solver-path race queries (spec.md §4.6, §8 scenario 5)
//
// License: BSD-3-Clause

package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/solver"
)

func TestConcreteOffsetOverlapIsARace(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)

	// Thread A writes bytes [0,4); thread B writes bytes [2,6): overlap.
	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, Kind: Write, Instruction: "A", Offset: Concrete(0), NumBytes: 4,
	})
	require.NotNil(t, epochA)

	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Write, Instruction: "B", Offset: Concrete(2), NumBytes: 4,
	}, nil)
	require.NotNil(t, res)
	assert.True(t, res.IsRace)
	assert.False(t, res.CanBeSafe)
	assert.Equal(t, "A", res.RacingInstruction)
}

func TestConcreteOffsetNoOverlapIsNotARace(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)

	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, Kind: Write, Instruction: "A", Offset: Concrete(0), NumBytes: 4,
	})
	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Write, Instruction: "B", Offset: Concrete(8), NumBytes: 4,
	}, nil)
	require.NotNil(t, res)
	assert.False(t, res.IsRace)
}

func TestTwoReadsNeverRace(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)
	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, Kind: Read, Instruction: "A", Offset: Concrete(0), NumBytes: 4,
	})
	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Read, Instruction: "B", Offset: Concrete(0), NumBytes: 4,
	}, nil)
	require.NotNil(t, res)
	assert.False(t, res.IsRace)
}

func TestAllocFreeRacesWithEveryAccess(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)
	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, IsAllocFree: true, Instruction: "free",
	})
	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Read, Instruction: "B", Offset: Concrete(0), NumBytes: 4,
	}, nil)
	require.NotNil(t, res)
	assert.True(t, res.IsRace)
	assert.False(t, res.CanBeSafe)
	assert.Equal(t, "free", res.RacingInstruction)
}

// TestSymbolicOffsetRaceConditionalOnDisjointness is spec.md §8 scenario 5:
// T1 writes arr[i] with symbolic i in [0,3]; T2 writes arr[0]. Fast path
// bails (symbolic offset); the solver path returns a race that can be made
// safe by the condition i != 0.
func TestSymbolicOffsetRaceConditionalOnDisjointness(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)

	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, Kind: Write, Instruction: "T1", Offset: Offset{Low: 0, High: 3}, NumBytes: 1,
	})
	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))

	s := solver.NewRangeSolver()
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Write, Instruction: "T2", Offset: Concrete(0), NumBytes: 1,
	}, s)

	require.NotNil(t, res)
	assert.True(t, res.IsRace)
	assert.True(t, res.CanBeSafe)
	assert.NotNil(t, res.ConditionToBeSafe)
}

// TestUnconditionalRaceWitnessSkipsAlwaysSafeCandidate exercises
// evaluateSymbolic's MayBeTrue(query)==false branch (spec.md §4.6: "walk
// candidates to find a witness with mayBeFalse(notOverlapping) returning
// true") with two candidates where the first candidate's own term can
// never be false (it never overlaps mop) and only the second candidate's
// term can. Naively returning candidates[0] would misreport the witness as
// the always-safe access instead of the one that actually always overlaps.
func TestUnconditionalRaceWitnessSkipsAlwaysSafeCandidate(t *testing.T) {
	mop := MemoryOp{Offset: Concrete(10), NumBytes: 1}

	alwaysSafe := candidate{instruction: "alwaysSafe", offset: Concrete(0), numBytes: 2}
	alwaysOverlaps := candidate{instruction: "alwaysOverlaps", offset: Concrete(9), numBytes: 4}

	s := solver.NewRangeSolver()
	res := evaluateSymbolic([]candidate{alwaysSafe, alwaysOverlaps}, mop, s)

	require.NotNil(t, res)
	assert.True(t, res.IsRace)
	assert.False(t, res.CanBeSafe)
	assert.Equal(t, "alwaysOverlaps", res.RacingInstruction, "witness must be the candidate whose own term can actually be false, not candidates[0]")
}

func TestSolverTimeoutPropagatesAsNil(t *testing.T) {
	d := NewDetector()
	obj := ObjectId(1)
	epochA := d.TrackAccess(event.InvalidID, 10, MemoryOp{
		Object: obj, Kind: Write, Instruction: "T1", Offset: Offset{Low: 0, High: 3}, NumBytes: 1,
	})
	candsA := epochA.objects[obj].candidates(event.RootThreadId().Child(1))

	// nil solver passed for a symbolic candidate means "no solver
	// available", which the fast path must surface as unknown (nil),
	// never a definite answer.
	res := evaluate(candsA, MemoryOp{
		Object: obj, Kind: Write, Instruction: "T2", Offset: Concrete(0), NumBytes: 1,
	}, nil)
	assert.Nil(t, res)

	// A solver that times out on every query also yields unknown (nil).
	res = evaluate(candsA, MemoryOp{
		Object: obj, Kind: Write, Instruction: "T2", Offset: Concrete(0), NumBytes: 1,
	}, timeoutSolver{})
	assert.Nil(t, res)
}

// timeoutSolver answers every query with ok=false, as a timed-out solver
// would.
type timeoutSolver struct{}

func (timeoutSolver) MustBeTrue(solver.Expr) (bool, bool) { return false, false }
func (timeoutSolver) MayBeTrue(solver.Expr) (bool, bool)  { return false, false }
func (timeoutSolver) MayBeFalse(solver.Expr) (bool, bool) { return false, false }
func (timeoutSolver) Simplify(e solver.Expr) solver.Expr  { return e }
