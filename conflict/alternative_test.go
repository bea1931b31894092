// Copyright (c) 2025 The por-se Authors
//
// File: alternative_test.go
// Brief: compute_alternative and the CSD bound (spec.md §4.4, §8)
//
// License: BSD-3-Clause

package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/unfolding"
)

// buildCompetingAcquires builds root -> init(T1), init(T2), lock_create(by
// T1), and two *competing* lock_acquire candidates that both chain directly
// off lock_create: acq1 (T1) and acq2 (T2). Since both name the same
// lock-chain predecessor, conflict.Index records them as immediate
// conflicts of one another -- this is spec.md §8 scenario 2's classic race
// on a lock, built directly against the unfolding the way a Node's
// right-branch search would encounter it after both orders have been
// explored at least once.
func buildCompetingAcquires(t *testing.T) (u *unfolding.Unfolding, idx *Index, lockCreate, acq1, acq2 event.ID) {
	t.Helper()
	u = unfolding.New()
	idx = NewIndex()

	record := func(c unfolding.Candidate) event.ID {
		res, err := u.Deduplicate(c)
		require.NoError(t, err)
		if res.IsNew {
			idx.Record(u.Event(res.ID))
		}
		return res.ID
	}

	root := record(unfolding.Candidate{Kind: event.ProgramInit, Tid: event.RootThreadId()})
	t1 := event.RootThreadId().Child(1)
	t2 := event.RootThreadId().Child(2)
	init1 := record(unfolding.Candidate{Kind: event.ThreadInit, Tid: t1, Predecessors: []event.ID{root}})
	init2 := record(unfolding.Candidate{Kind: event.ThreadInit, Tid: t2, Predecessors: []event.ID{root}})

	lockCreate = record(unfolding.Candidate{Kind: event.LockCreate, Tid: t1, Predecessors: []event.ID{init1}, LockID: 1})

	acq1 = record(unfolding.Candidate{
		Kind: event.LockAcquire, Tid: t1, Predecessors: []event.ID{lockCreate, lockCreate}, LockID: 1,
	})
	acq2 = record(unfolding.Candidate{
		Kind: event.LockAcquire, Tid: t2, Predecessors: []event.ID{init2, lockCreate}, LockID: 1,
	})

	return u, idx, lockCreate, acq1, acq2
}

func TestImmediateConflictsOfCompetingAcquires(t *testing.T) {
	u, idx, _, acq1, acq2 := buildCompetingAcquires(t)

	assert.Equal(t, []event.ID{acq2}, idx.ImmediateConflicts(u, u.Event(acq1)))
	assert.Equal(t, []event.ID{acq1}, idx.ImmediateConflicts(u, u.Event(acq2)))
}

// TestComputeAlternativeFindsTheOtherAcquireOrder: a configuration that
// committed acq1 (T1 acquires first), with D={acq1} (the right-child's
// disabled set per spec.md §4.5's "add the parent's committed event to
// D"), must surface acq2 as the alternative: the other thread's competing
// acquire, per spec.md §8 scenario 2.
func TestComputeAlternativeFindsTheOtherAcquireOrder(t *testing.T) {
	u, idx, lockCreate, acq1, acq2 := buildCompetingAcquires(t)
	colouring := NewColouring()

	config := NewSet([]event.ID{0, 1, lockCreate, acq1})
	j, ok := ComputeAlternative(u, idx, colouring, config, acq1, []event.ID{acq1}, 0)
	require.True(t, ok)
	assert.Equal(t, acq2, j)
}

// Without D disabling acq1, acq2 conflicts with the committed acq1 and is
// rejected: spec.md §4.4's "no immediate conflict with any event in the
// current configuration except those listed in D".
func TestComputeAlternativeRejectsConflictingCandidateWithoutD(t *testing.T) {
	u, idx, lockCreate, acq1, _ := buildCompetingAcquires(t)
	colouring := NewColouring()

	config := NewSet([]event.ID{0, 1, lockCreate, acq1})
	_, ok := ComputeAlternative(u, idx, colouring, config, acq1, nil, 0)
	assert.False(t, ok)
}

func TestCSDBoundRejectsCandidatesAboveMaxCSD(t *testing.T) {
	u, idx, lockCreate, acq1, acq2 := buildCompetingAcquires(t)
	colouring := NewColouring()

	config := NewSet([]event.ID{0, 1, lockCreate, acq1})

	// acq2's closure outside config is {acq2, init(T2)}, all on T2: a
	// degree of 0, which a bound of 1 admits.
	j, ok := ComputeAlternative(u, idx, colouring, config, acq1, []event.ID{acq1}, 1)
	require.True(t, ok)
	assert.Equal(t, acq2, j)

	// CSD=0 (disabled bound sentinel) behaves the same as no bound: 0 means
	// "unbounded", per spec.md §6's max-csd default semantics, not an
	// always-reject value.
	j, ok = ComputeAlternative(u, idx, colouring, config, acq1, []event.ID{acq1}, 0)
	require.True(t, ok)
	assert.Equal(t, acq2, j)

	// With only acq1 in the configuration, acq2's closure outside it spans
	// T2, T1 and the root thread: a degree of 2, which a bound of 1 rejects.
	_, ok = ComputeAlternative(u, idx, colouring, NewSet([]event.ID{acq1}), acq1, []event.ID{acq1}, 1)
	assert.False(t, ok)
}
