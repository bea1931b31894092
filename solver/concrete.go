// Copyright (c) 2025 The por-se Authors
//
// File: concrete.go
// Brief: A reference Solver over concrete integer ranges
//
// License: BSD-3-Clause

package solver

// Range is a closed interval [Low, High] over a symbolic integer, e.g. an
// offset known to lie in [0,3]. A concrete value is represented as
// Low == High.
type Range struct {
	Low, High int64
}

// ConcreteExpr asserts that a symbolic value constrained to lie in Value
// differs from *NotEqual (nil means no such constraint, i.e. always true).
// This is narrow by design -- enough to express spec.md §8 scenario 5's
// `i != 0` strengthening constraint, not a general arithmetic solver.
type ConcreteExpr struct {
	Value    Range
	NotEqual *int64
}

func (ConcreteExpr) isExpr() {}

// LessThanExpr asserts that some value in A is strictly less than some
// value in B, treating A and B as independently ranging over their
// intervals -- the primitive the race detector's queryIsSafeForAll needs
// (spec.md §4.6's endOf(x) < offset(y) terms).
type LessThanExpr struct {
	A, B Range
}

func (LessThanExpr) isExpr() {}

// LessThan builds a LessThanExpr.
func LessThan(a, b Range) Expr {
	return LessThanExpr{A: a, B: b}
}

// RangeSolver implements Solver by reasoning directly over Range bounds. It
// never times out (always returns ok=true), which is appropriate for a
// reference/testing backend.
type RangeSolver struct{}

// NewRangeSolver returns a ready-to-use reference solver.
func NewRangeSolver() *RangeSolver {
	return &RangeSolver{}
}

// evalTriple returns (mustBeTrue, mayBeTrue, mayBeFalse) for e, recursively
// over And/Or/Not composition.
func evalTriple(e Expr) (mustTrue, mayTrue, mayFalse bool, ok bool) {
	switch v := e.(type) {
	case ConcreteExpr:
		if v.NotEqual == nil {
			return true, true, false, true
		}
		must := *v.NotEqual < v.Value.Low || *v.NotEqual > v.Value.High
		mFalse := v.Value.Low <= *v.NotEqual && *v.NotEqual <= v.Value.High
		return must, must || v.Value.Low != v.Value.High, mFalse, true

	case LessThanExpr:
		must := v.A.High < v.B.Low
		mTrue := v.A.Low < v.B.High
		mFalse := !must
		return must, mTrue, mFalse, true

	case andExpr:
		allMust, allMayTrue, anyMayFalse := true, true, false
		for _, op := range v.operands {
			m, mt, mf, ok := evalTriple(op)
			if !ok {
				return false, false, false, false
			}
			allMust = allMust && m
			allMayTrue = allMayTrue && mt
			anyMayFalse = anyMayFalse || mf
		}
		return allMust, allMayTrue, anyMayFalse, true

	case orExpr:
		anyMust, anyMayTrue, allMayFalse := false, false, true
		for _, op := range v.operands {
			m, mt, mf, ok := evalTriple(op)
			if !ok {
				return false, false, false, false
			}
			anyMust = anyMust || m
			anyMayTrue = anyMayTrue || mt
			allMayFalse = allMayFalse && mf
		}
		return anyMust, anyMayTrue, allMayFalse, true

	case notExpr:
		_, mt, mf, ok := evalTriple(v.operand)
		if !ok {
			return false, false, false, false
		}
		return !mt, mf, mt, true

	default:
		return false, false, false, false
	}
}

// MustBeTrue reports whether e holds under every assignment.
func (s *RangeSolver) MustBeTrue(e Expr) (bool, bool) {
	must, _, _, ok := evalTriple(e)
	return must, ok
}

// MayBeTrue reports whether e holds under some assignment.
func (s *RangeSolver) MayBeTrue(e Expr) (bool, bool) {
	_, may, _, ok := evalTriple(e)
	return may, ok
}

// MayBeFalse reports whether e can fail to hold under some assignment.
func (s *RangeSolver) MayBeFalse(e Expr) (bool, bool) {
	_, _, mayFalse, ok := evalTriple(e)
	return mayFalse, ok
}

// Simplify returns e unchanged; no simplification is performed.
func (s *RangeSolver) Simplify(e Expr) Expr {
	return e
}
