// Copyright (c) 2025 The por-se Authors
//
// File: rightbranch.go
// Brief: create_right_branches(B): alternative search and schedule grafting
//
// License: BSD-3-Clause

package node

import (
	"sort"

	"github.com/por-se/por-se-sub001/budget"
	"github.com/por-se/por-se-sub001/conflict"
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/timing"
	"github.com/por-se/por-se-sub001/unfolding"
)

// CreateRightBranches implements spec.md §4.5's create_right_branches(B):
// for every node in B whose committed event has immediate conflicts, it
// looks for an alternative j via conflict.ComputeAlternative. Where one
// exists, it builds A = [j] \ configuration, sorts A topologically, and
// extends the new right child's schedule with A -- grafting the replay
// lazily: the returned nodes are leaves ready for CatchUp to drive through
// register, rather than a pre-built chain of left children. maxCSD bounds
// the context-switch degree of candidate alternatives (0 disables the
// bound). Nodes whose alternative search fails are not materialised at all,
// since there is nothing further to explore from them.
//
// Stops early (returning whatever was already built) if budget.WasCanceled.
func CreateRightBranches(B []*Node, idx *conflict.Index, colouring *conflict.Colouring, maxCSD int) []*Node {
	var leaves []*Node

	for _, n := range B {
		if budget.WasCanceled() {
			break
		}

		unf := n.config.Unfolding()
		evt := unf.Event(n.committedEvent)
		if len(idx.ImmediateConflicts(unf, evt)) == 0 {
			continue
		}

		right := n.MakeRightChild()

		timing.Start(timing.ConflictBFS)
		configSet := conflict.NewSet(right.config.Schedule())
		j, ok := conflict.ComputeAlternative(unf, idx, colouring, configSet, n.committedEvent, right.disabled, maxCSD)
		timing.Stop(timing.ConflictBFS)
		if !ok {
			n.right = nil
			continue
		}

		a := closureNotInConfig(unf, configSet, j)
		sortTopological(unf, a)
		right.config.ExtendSchedule(a)
		leaves = append(leaves, right)
	}

	return leaves
}

// closureNotInConfig collects every event causally <= j that is not already
// a member of configSet: spec.md §4.5's "A = [j] \ configuration".
func closureNotInConfig(u *unfolding.Unfolding, configSet conflict.Set, j event.ID) []event.ID {
	visited := make(map[event.ID]struct{})
	var out []event.ID
	stack := []event.ID{j}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		if configSet.Has(cur) {
			continue
		}
		out = append(out, cur)
		for _, p := range u.Event(cur).Predecessors() {
			stack = append(stack, p)
		}
	}
	return out
}

// sortTopological orders ids so that every event appears after all of its
// predecessors: depth strictly increases along any causal chain, so sorting
// by (depth, id) is a valid topological order.
func sortTopological(u *unfolding.Unfolding, ids []event.ID) {
	sort.Slice(ids, func(i, j int) bool {
		ei, ej := u.Event(ids[i]), u.Event(ids[j])
		if ei.Depth() != ej.Depth() {
			return ei.Depth() < ej.Depth()
		}
		return ids[i] < ids[j]
	})
}
