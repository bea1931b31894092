// Copyright (c) 2025 The por-se Authors
//
// File: node.go
// Brief: Node: the exploration tree, copy-on-write over Configuration
//
// License: BSD-3-Clause

// Package node implements the exploration tree of spec.md §4.5: each Node
// owns a Configuration (copy-on-write relative to its parent), the disabled
// set D inherited from its parent, and up to one left child (commit one
// more event) and one right child (explore an alternative to this node's
// own committed event). create_right_branches grafts alternative subtrees
// by extending a right child's configuration schedule; CatchUp then drives
// the replay one register call at a time; Backtrack reclaims spent subtrees
// as exploration moves on.
package node

import (
	"github.com/por-se/por-se-sub001/configuration"
	"github.com/por-se/por-se-sub001/event"
)

// RegisterFunc performs one configuration commit-API method (or an atomic
// group of them, reporting only the last) on cfg -- a configuration freshly
// cloned for the node being built -- and returns the committed event plus
// an optional interpreter-owned standby snapshot, per spec.md §4.5. During
// catch-up the caller is expected to consult cfg.Peek() to decide which
// operation to reproduce.
type RegisterFunc func(cfg *configuration.Configuration) (event.ID, any, error)

// Node is one point in the exploration tree.
type Node struct {
	parent *Node

	config         *configuration.Configuration
	committedEvent event.ID
	disabled       []event.ID

	left, right *Node

	standby  any
	sweepBit bool
}

// NewRoot wraps cfg (expected to hold only program_init) as the tree's
// root, which starts out as the exploration frontier.
func NewRoot(cfg *configuration.Configuration) *Node {
	return &Node{config: cfg, committedEvent: event.InvalidID, sweepBit: true}
}

// Parent returns n's parent, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Configuration returns the configuration committed up to and including n.
func (n *Node) Configuration() *configuration.Configuration { return n.config }

// CommittedEvent returns the event committed to reach n from its parent, or
// event.InvalidID at the root.
func (n *Node) CommittedEvent() event.ID { return n.committedEvent }

// D returns the disabled set owned by n.
func (n *Node) D() []event.ID { return n.disabled }

// Left returns n's left child, or nil.
func (n *Node) Left() *Node { return n.left }

// Right returns n's right child, or nil.
func (n *Node) Right() *Node { return n.right }

// StandbyState returns the interpreter snapshot attached when n was built,
// or nil.
func (n *Node) StandbyState() any { return n.standby }

// SweepBit reports whether n is the current exploration frontier.
func (n *Node) SweepBit() bool { return n.sweepBit }

// MakeLeftChild clones n's configuration, runs register on the clone to
// commit one more event (or one atomic group), and attaches the result as
// n.left. The sweep bit propagates from n to the new child and is cleared
// on n (spec.md §4.5): "left child = commit one more event".
func (n *Node) MakeLeftChild(register RegisterFunc) (*Node, error) {
	clone := n.config.Clone()
	evID, standby, err := register(clone)
	if err != nil {
		return nil, err
	}
	child := &Node{
		parent:         n,
		config:         clone,
		committedEvent: evID,
		disabled:       n.disabled,
		standby:        standby,
		sweepBit:       n.sweepBit,
	}
	n.sweepBit = false
	n.left = child
	return child, nil
}

// MakeRightChild clones n's PARENT's configuration -- i.e. the configuration
// from before n's own event was committed -- without committing any further
// event, and adds n's own committed event to the disabled set, per spec.md
// §4.5's "right child = explore alternative". A Configuration is defined as
// conflict-free (configuration.go's package doc); since n.committedEvent by
// construction has an immediate conflict (CreateRightBranches only calls
// this when one exists), cloning n's own configuration would leave the
// conflicting event physically committed -- its head-map effects (e.g. a
// lock marked held) would then make the alternative's replay fail a
// precondition it should never have hit. Cloning the parent's configuration
// instead gives catch-up a configuration that genuinely never saw
// n.committedEvent, while D still remembers it so compute_alternative may
// treat it as disabled rather than conflicting. It is the base
// create_right_branches' alternative search runs from, and is attached as
// n.right.
func (n *Node) MakeRightChild() *Node {
	base := n.config
	if n.parent != nil {
		base = n.parent.config
	}
	clone := base.Clone()
	child := &Node{
		parent:         n,
		config:         clone,
		committedEvent: event.InvalidID,
		disabled:       append(append([]event.ID(nil), n.disabled...), n.committedEvent),
	}
	n.right = child
	return child
}

// DistanceToLastStandbyState walks up from n counting steps until a node
// carrying a standby snapshot is found, returning that distance (0 if n
// itself has one). Returns the distance to the root if no ancestor has a
// standby snapshot.
func (n *Node) DistanceToLastStandbyState() int {
	d := 0
	cur := n
	for cur.standby == nil && cur.parent != nil {
		cur = cur.parent
		d++
	}
	return d
}
