// Copyright (c) 2025 The por-se Authors
//
// File: unfolding_test.go
// Brief: Canonicalisation: same candidate dedups, differing candidate
//        (predecessor or local path) mints a new event (spec.md §8)
//
// License: BSD-3-Clause

package unfolding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/por-se/por-se-sub001/event"
)

func TestDeduplicateSameCandidateReturnsSameHandle(t *testing.T) {
	u := New()
	root, err := u.Deduplicate(Candidate{Kind: event.ProgramInit, Tid: event.RootThreadId()})
	require.NoError(t, err)
	require.True(t, root.IsNew)

	t1 := event.RootThreadId().Child(1)
	first, err := u.Deduplicate(Candidate{
		Kind:         event.ThreadInit,
		Tid:          t1,
		Predecessors: []event.ID{root.ID},
	})
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := u.Deduplicate(Candidate{
		Kind:         event.ThreadInit,
		Tid:          t1,
		Predecessors: []event.ID{root.ID},
	})
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, u.Len())
}

func TestDeduplicateDifferingPredecessorMintsNewEvent(t *testing.T) {
	u := New()
	root, _ := u.Deduplicate(Candidate{Kind: event.ProgramInit, Tid: event.RootThreadId()})
	t1 := event.RootThreadId().Child(1)
	init1, _ := u.Deduplicate(Candidate{Kind: event.ThreadInit, Tid: t1, Predecessors: []event.ID{root.ID}})
	local1, _ := u.Deduplicate(Candidate{Kind: event.Local, Tid: t1, Predecessors: []event.ID{init1.ID}})

	a, err := u.Deduplicate(Candidate{
		Kind: event.Local, Tid: t1, Predecessors: []event.ID{local1.ID}, Path: []event.PathElem{1},
	})
	require.NoError(t, err)
	require.True(t, a.IsNew)

	b, err := u.Deduplicate(Candidate{
		Kind: event.Local, Tid: t1, Predecessors: []event.ID{local1.ID}, Path: []event.PathElem{0},
	})
	require.NoError(t, err)
	require.True(t, b.IsNew)
	assert.NotEqual(t, a.ID, b.ID)

	// Same path as `a`, same predecessor: dedups back to `a`.
	c, err := u.Deduplicate(Candidate{
		Kind: event.Local, Tid: t1, Predecessors: []event.ID{local1.ID}, Path: []event.PathElem{1},
	})
	require.NoError(t, err)
	assert.False(t, c.IsNew)
	assert.Equal(t, a.ID, c.ID)

	// Same path as `a`, different predecessor: a new event.
	d, err := u.Deduplicate(Candidate{
		Kind: event.Local, Tid: t1, Predecessors: []event.ID{init1.ID}, Path: []event.PathElem{1},
	})
	require.NoError(t, err)
	assert.True(t, d.IsNew)
	assert.NotEqual(t, a.ID, d.ID)
}

func TestDeduplicateRejectsUnknownPredecessor(t *testing.T) {
	u := New()
	_, err := u.Deduplicate(Candidate{
		Kind:         event.Local,
		Tid:          event.RootThreadId(),
		Predecessors: []event.ID{42},
	})
	assert.Error(t, err)
}

func TestDepthIsMaxPredecessorDepthPlusOne(t *testing.T) {
	u := New()
	root, _ := u.Deduplicate(Candidate{Kind: event.ProgramInit, Tid: event.RootThreadId()})
	assert.Equal(t, uint32(0), u.Event(root.ID).Depth())

	t1 := event.RootThreadId().Child(1)
	init1, _ := u.Deduplicate(Candidate{Kind: event.ThreadInit, Tid: t1, Predecessors: []event.ID{root.ID}})
	assert.Equal(t, uint32(1), u.Event(init1.ID).Depth())
}
