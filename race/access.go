// Copyright (c) 2025 The por-se Authors
//
// File: access.go
// Brief: ObjectAccesses: per-object operation list with alloc/free collapse
//        and copy-on-write mutation
//
// License: BSD-3-Clause

// Package race implements the online data-race detector of spec.md §4.6:
// per-epoch, per-object access tracking, a fast concrete-offset path, and a
// solver-assisted symbolic-offset path.
package race

import "github.com/por-se/por-se-sub001/event"

// ObjectId identifies a tracked memory object (the interpreter's own
// allocation identity; opaque to this package).
type ObjectId uint64

// AccessKind distinguishes a read from a write memory operation.
type AccessKind int

const (
	Read AccessKind = iota
	Write
)

// Offset is a memory operation's byte offset into its object, expressed as
// an inclusive range: Low == High for a concrete offset, Low < High for a
// symbolic one known to lie in that interval (spec.md §8 scenario 5's
// `i ∈ [0,3]`). This mirrors solver.Range directly so the solver path needs
// no translation layer.
type Offset struct {
	Low, High int64
}

// Symbolic reports whether o spans more than one possible value.
func (o Offset) Symbolic() bool {
	return o.Low != o.High
}

// Concrete builds a non-symbolic offset.
func Concrete(v int64) Offset {
	return Offset{Low: v, High: v}
}

// MemoryOp is one memory access the race detector is asked to track or
// query.
type MemoryOp struct {
	Object      ObjectId
	Kind        AccessKind
	Instruction string
	Offset      Offset
	NumBytes    uint64
	IsAllocFree bool
}

// savedAccess is one entry of an object's operation list.
type savedAccess struct {
	kind        AccessKind
	instruction string
	offset      Offset
	numBytes    uint64
	event       event.ID
}

// ObjectAccesses is the per-event, per-object access record. Once any
// access collapses it to alloc/free, the operation list is discarded
// entirely and every subsequent access on this object races.
type ObjectAccesses struct {
	allocFreeInstruction string
	collapsed            bool
	ops                  []savedAccess
	owner                *Detector // copy-on-write owner token
}

func newObjectAccesses(owner *Detector) *ObjectAccesses {
	return &ObjectAccesses{owner: owner}
}

// cow returns oa if owner already owns it, or an independent clone
// otherwise (spec.md §4.6's copy-on-write access lists).
func (oa *ObjectAccesses) cow(owner *Detector) *ObjectAccesses {
	if oa.owner == owner {
		return oa
	}
	return &ObjectAccesses{
		allocFreeInstruction: oa.allocFreeInstruction,
		collapsed:            oa.collapsed,
		ops:                  append([]savedAccess(nil), oa.ops...),
		owner:                owner,
	}
}

// register folds mop (committed at eventID) into oa, returning the
// (possibly cloned) updated ObjectAccesses. See spec.md §4.6 for the exact
// merge rules.
func (oa *ObjectAccesses) register(owner *Detector, mop MemoryOp, eventID event.ID) *ObjectAccesses {
	next := oa.cow(owner)

	if mop.IsAllocFree {
		next.collapsed = true
		next.allocFreeInstruction = mop.Instruction
		next.ops = nil
		return next
	}
	if next.collapsed {
		return next // already collapsed; alloc/free instruction stands
	}

	incoming := savedAccess{
		kind:        mop.Kind,
		instruction: mop.Instruction,
		offset:      mop.Offset,
		numBytes:    mop.NumBytes,
		event:       eventID,
	}

	for i, saved := range next.ops {
		switch {
		case saved.kind == incoming.kind && covers(incoming, saved):
			// same kind, saved access embedded in incoming -> replace.
			next.ops[i] = incoming
			return next
		case saved.kind == Write && (covers(saved, incoming) || covers(incoming, saved)):
			// incoming embedded in a saved write, or a saved write extended
			// by incoming -> nothing to do, the saved write is kept as the
			// more conflict-prone entry; no kind match required here.
			return next
		case saved.kind == Read && incoming.kind == Write && covers(incoming, saved):
			next.ops[i] = incoming
			return next
		}
	}

	next.ops = append(next.ops, incoming)
	return next
}

// covers reports whether a's byte range contains b's byte range. Symbolic
// offsets are never decided as covering (conservative: falls through to
// "append a new entry" rather than risk silently dropping one).
func covers(a, b savedAccess) bool {
	if a.offset.Symbolic() || b.offset.Symbolic() {
		return false
	}
	aLow, aHigh := a.offset.Low, a.offset.Low+int64(a.numBytes)
	bLow, bHigh := b.offset.Low, b.offset.Low+int64(b.numBytes)
	return aLow <= bLow && bHigh <= aHigh
}
