// Copyright (c) 2025 The por-se Authors
//
// File: event_test.go
// Brief: Depth/cone/order invariants (spec.md §8)
//
// License: BSD-3-Clause

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRoot(id ID) *Event {
	cone := NewCone()
	cone.Set(RootThreadId(), id, 0)
	return newEvent(id, ProgramInit, RootThreadId(), 0, nil, cone, nil)
}

func mkChild(id ID, kind Kind, tid ThreadId, preds []*Event) *Event {
	var maxDepth uint32
	var predIDs []ID
	cone := NewCone()
	for i, p := range preds {
		predIDs = append(predIDs, p.ID())
		cone.Merge(p.Cone())
		if i == 0 || p.Depth() > maxDepth {
			maxDepth = p.Depth()
		}
	}
	depth := maxDepth + 1
	cone.Set(tid, id, depth)
	return newEvent(id, kind, tid, depth, predIDs, cone, nil)
}

func TestDepthIsOneMoreThanMaxPredecessorDepth(t *testing.T) {
	root := mkRoot(0)
	assert.Equal(t, uint32(0), root.Depth())

	t1 := RootThreadId().Child(1)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})
	assert.Equal(t, uint32(1), init1.Depth())

	local1 := mkChild(2, Local, t1, []*Event{init1})
	assert.Equal(t, uint32(2), local1.Depth())

	// A join-like event with two predecessors of differing depth takes the
	// max, per spec.md §3/§8.
	t2 := RootThreadId().Child(2)
	init2 := mkChild(3, ThreadInit, t2, []*Event{root})
	local2a := mkChild(4, Local, t2, []*Event{init2})
	local2b := mkChild(5, Local, t2, []*Event{local2a})
	join := mkChild(6, ThreadJoin, t1, []*Event{local1, local2b})
	assert.Equal(t, local2b.Depth()+1, join.Depth())
}

func TestConeOfOwnTidIsSelf(t *testing.T) {
	root := mkRoot(0)
	id, ok := root.Cone().Get(RootThreadId())
	require.True(t, ok)
	assert.Equal(t, root.ID(), id)

	t1 := RootThreadId().Child(1)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})
	id, ok = init1.Cone().Get(t1)
	require.True(t, ok)
	assert.Equal(t, init1.ID(), id)
}

func TestConeEntryIsLessThanOrEqualOwner(t *testing.T) {
	root := mkRoot(0)
	t1 := RootThreadId().Child(1)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})
	local1 := mkChild(2, Local, t1, []*Event{init1})
	local2 := mkChild(3, Local, t1, []*Event{local1})

	local2.Cone().ForEach(func(tid ThreadId, id ID) {
		// every cone entry of local2 must be <= local2 along that thread.
		var e *Event
		switch id {
		case root.ID():
			e = root
		case init1.ID():
			e = init1
		case local1.ID():
			e = local1
		case local2.ID():
			e = local2
		}
		require.NotNil(t, e)
		assert.True(t, e.IsLessThanEq(local2))
	})
}

func TestSameThreadOrderMatchesDepthOrder(t *testing.T) {
	root := mkRoot(0)
	t1 := RootThreadId().Child(1)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})
	local1 := mkChild(2, Local, t1, []*Event{init1})
	local2 := mkChild(3, Local, t1, []*Event{local1})

	assert.True(t, init1.IsLessThan(local1))
	assert.True(t, init1.Depth() <= local1.Depth())
	assert.True(t, local1.IsLessThan(local2))
	assert.True(t, local1.Depth() <= local2.Depth())
	assert.False(t, local2.IsLessThan(local1))
	assert.False(t, local2.Depth() <= local1.Depth())
}

func TestConcurrentEventsOnDifferentThreads(t *testing.T) {
	root := mkRoot(0)
	t1 := RootThreadId().Child(1)
	t2 := RootThreadId().Child(2)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})
	init2 := mkChild(2, ThreadInit, t2, []*Event{root})
	local1 := mkChild(3, Local, t1, []*Event{init1})
	local2 := mkChild(4, Local, t2, []*Event{init2})

	assert.True(t, local1.IsConcurrent(local2))
	assert.True(t, local2.IsConcurrent(local1))
	assert.False(t, local1.IsLessThanEq(local2))
	assert.False(t, local2.IsLessThanEq(local1))
}

func TestThreadIdOrderingAndChild(t *testing.T) {
	root := RootThreadId()
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Size())

	c1 := root.Child(1)
	c2 := root.Child(2)
	assert.True(t, root.Less(c1))
	assert.True(t, c1.Less(c2))
	assert.Equal(t, "(1)", c1.String())
	assert.Equal(t, "()", root.String())

	gc := c1.Child(1)
	assert.Equal(t, 2, gc.Size())
	assert.Equal(t, uint16(1), gc.At(0))
	assert.Equal(t, uint16(1), gc.At(1))
}

func TestLocalPathDistinguishesEvents(t *testing.T) {
	root := mkRoot(0)
	t1 := RootThreadId().Child(1)
	init1 := mkChild(1, ThreadInit, t1, []*Event{root})

	a := newEvent(2, Local, t1, 2, []ID{init1.ID()}, NewCone(), []PathElem{1})
	b := newEvent(3, Local, t1, 2, []ID{init1.ID()}, NewCone(), []PathElem{0})
	assert.NotEqual(t, a.Path(), b.Path())
}
