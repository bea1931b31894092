// Copyright (c) 2025 The por-se Authors
//
// File: fingerprint.go
// Brief: Fingerprint: symbolic-reference counting, Delta, verified combine
//
// License: BSD-3-Clause

package fingerprint

import (
	"sort"

	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/timing"
)

// SymbolicArray names a symbolic array object a fragment's expression may
// reference (opaque identity; the caller supplies a stable name/pointer
// encoding).
type SymbolicArray string

// Delta records a set of fragment operations for later reversal (e.g.
// stack-frame rollback): spec.md §4.1's "call sites may ask the fingerprint
// to record changes in a Delta object".
type Delta struct {
	added   []Fragment
	removed []Fragment
}

// Fingerprint is the per-state identifier: a combine Value plus the
// symbolic-reference ledger described in spec.md §4.1.
type Fingerprint struct {
	value Value
	refs  map[SymbolicArray]uint64
}

// New returns an empty fingerprint using the given Value implementation
// (typically NewHashValue() or NewBagValue()).
func New(value Value) *Fingerprint {
	return &Fingerprint{value: value, refs: make(map[SymbolicArray]uint64)}
}

// Value returns the live combine value.
func (fp *Fingerprint) Value() Value {
	return fp.value
}

func (fp *Fingerprint) addRefs(arrays []SymbolicArray) {
	for _, a := range arrays {
		fp.refs[a]++
	}
}

func (fp *Fingerprint) removeRefs(arrays []SymbolicArray) {
	for _, a := range arrays {
		if fp.refs[a] > 0 {
			fp.refs[a]--
		}
		if fp.refs[a] == 0 {
			delete(fp.refs, a)
		}
	}
}

// AddToValue folds f into the live value and bumps refs for the symbolic
// arrays it references, with no delta recorded.
func (fp *Fingerprint) AddToValue(f Fragment, refs ...SymbolicArray) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	fp.value.Add(f)
	fp.addRefs(refs)
}

// RemoveFromValue undoes a prior AddToValue, with no delta recorded.
func (fp *Fingerprint) RemoveFromValue(f Fragment, refs ...SymbolicArray) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	fp.value.Remove(f)
	fp.removeRefs(refs)
}

// AddToValueAndDelta folds f into the live value and records the operation
// in d for later reversal via RemoveDelta.
func (fp *Fingerprint) AddToValueAndDelta(d *Delta, f Fragment, refs ...SymbolicArray) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	fp.value.Add(f)
	fp.addRefs(refs)
	d.added = append(d.added, f)
}

// RemoveFromValueAndDelta undoes f from the live value and records the
// removal in d.
func (fp *Fingerprint) RemoveFromValueAndDelta(d *Delta, f Fragment, refs ...SymbolicArray) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	fp.value.Remove(f)
	fp.removeRefs(refs)
	d.removed = append(d.removed, f)
}

// AddToDeltaOnly records f as added in d without touching the live value,
// for bookkeeping a change that will be applied elsewhere.
func (fp *Fingerprint) AddToDeltaOnly(d *Delta, f Fragment) {
	d.added = append(d.added, f)
}

// RemoveFromDeltaOnly records f as removed in d without touching the live
// value.
func (fp *Fingerprint) RemoveFromDeltaOnly(d *Delta, f Fragment) {
	d.removed = append(d.removed, f)
}

// AddDelta applies every fragment d recorded as added/removed to the live
// value (replaying the delta forward).
func (fp *Fingerprint) AddDelta(d *Delta) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	for _, f := range d.added {
		fp.value.Add(f)
	}
	for _, f := range d.removed {
		fp.value.Remove(f)
	}
}

// RemoveDelta undoes d: fragments it recorded as added are removed, and
// fragments it recorded as removed are re-added. This is the rollback
// operation spec.md §8 calls out: AddToValueAndDelta(F); RemoveDelta(D)
// equals doing nothing to the value.
func (fp *Fingerprint) RemoveDelta(d *Delta) {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)
	for _, f := range d.added {
		fp.value.Remove(f)
	}
	for _, f := range d.removed {
		fp.value.Add(f)
	}
}

// WithConstraints produces the state identifier including a tag-10
// path-constraint fragment built by concatenating exprOf(a) for every array
// a with outstanding symbolic references, in array-name order. Arrays
// reachable only through another array's constraints are not followed (no
// transitive closure is computed), and no ordering by expression hash is
// applied. The fragment is applied as a temporary delta and then removed so
// it never permanently alters the state (spec.md §4.1).
func (fp *Fingerprint) WithConstraints(exprOf func(SymbolicArray) string) string {
	timing.Start(timing.Fingerprint)
	defer timing.Stop(timing.Fingerprint)

	if len(fp.refs) == 0 {
		return fp.value.ToString()
	}

	arrays := make([]SymbolicArray, 0, len(fp.refs))
	for a := range fp.refs {
		arrays = append(arrays, a)
	}
	sort.Slice(arrays, func(i, j int) bool { return arrays[i] < arrays[j] })

	var expr string
	for _, a := range arrays {
		expr += exprOf(a)
	}
	constraint := NewPathConstraint(expr)

	fp.value.Add(constraint)
	s := fp.value.ToString()
	fp.value.Remove(constraint)
	return s
}

// --- Verified (debug-only dual) ------------------------------------------

// Verified maintains both the hash and the bag variant simultaneously.
// Equal asserts that the two variants agree about whether the current state
// equals another one, since a disagreement would mean one of them has a
// bug; Remove asserts that no bag count goes negative. Add checks nothing.
// Checked only when built with -tags por_debug (porerrors.Raise is a no-op
// otherwise).
type Verified struct {
	Hash *HashValue
	Bag  *BagValue
}

// NewVerified returns a dual value starting at the identity element of
// both variants.
func NewVerified() *Verified {
	return &Verified{Hash: NewHashValue(), Bag: NewBagValue()}
}

func (v *Verified) Add(f Fragment) {
	v.Hash.Add(f)
	v.Bag.Add(f)
}

func (v *Verified) Remove(f Fragment) {
	v.Hash.Remove(f)
	v.Bag.Remove(f)
	if v.Bag.Underflowed() {
		porerrors.Raise(porerrors.NewInvariant("fingerprint.Verified.Remove", "bag underflow"))
	}
}

func (v *Verified) Clone() Value {
	return &Verified{
		Hash: v.Hash.Clone().(*HashValue),
		Bag:  v.Bag.Clone().(*BagValue),
	}
}

// Equal checks both variants agree; a disagreement is an invariant
// violation, not a quiet false.
func (v *Verified) Equal(other Value) bool {
	o, ok := other.(*Verified)
	if !ok {
		return false
	}
	hashEqual := v.Hash.Equal(o.Hash)
	bagEqual := v.Bag.Equal(o.Bag)
	if hashEqual != bagEqual {
		porerrors.Raise(porerrors.NewInvariant(
			"fingerprint.Verified.Equal", "hash/bag combine disagreement",
		))
	}
	return hashEqual
}

func (v *Verified) ToString() string {
	return v.Hash.ToString()
}
