// Copyright (c) 2025 The por-se Authors
//
// File: threadid.go
// Brief: ThreadId, the totally ordered name of a subject-program thread
//
// License: BSD-3-Clause

package event

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ThreadId is a non-empty sequence of 16-bit local indices; the empty
// sequence denotes the program-init pseudo-thread. (p, k) denotes the k-th
// thread spawned by p, so a ThreadId is the path from the root thread to
// this one.
//
// ThreadId is an immutable value type: Child always returns a new value,
// never mutates the receiver's backing array.
type ThreadId struct {
	path []uint16
}

// RootThreadId is the program-init pseudo-thread.
func RootThreadId() ThreadId {
	return ThreadId{}
}

// Child returns the ThreadId of the k-th thread ever spawned by t (1-based,
// matching the spec's "first spawn of source becomes (source,1)").
func (t ThreadId) Child(k uint16) ThreadId {
	next := make([]uint16, len(t.path)+1)
	copy(next, t.path)
	next[len(t.path)] = k
	return ThreadId{path: next}
}

// Size returns the length of the index sequence (0 for the root thread).
func (t ThreadId) Size() int {
	return len(t.path)
}

// At returns the i-th local index (0-based). Panics if i is out of range,
// matching Go slice semantics for indexing.
func (t ThreadId) At(i int) uint16 {
	return t.path[i]
}

// IsRoot reports whether t is the program-init pseudo-thread.
func (t ThreadId) IsRoot() bool {
	return len(t.path) == 0
}

// Equal reports whether t and o name the same thread.
func (t ThreadId) Equal(o ThreadId) bool {
	if len(t.path) != len(o.path) {
		return false
	}
	for i := range t.path {
		if t.path[i] != o.path[i] {
			return false
		}
	}
	return true
}

// Less implements the ThreadId total order: lexicographic over the index
// sequence, with a shorter prefix ordering before a longer sequence sharing
// that prefix (so the root thread is less than every other thread).
func (t ThreadId) Less(o ThreadId) bool {
	n := len(t.path)
	if len(o.path) < n {
		n = len(o.path)
	}
	for i := 0; i < n; i++ {
		if t.path[i] != o.path[i] {
			return t.path[i] < o.path[i]
		}
	}
	return len(t.path) < len(o.path)
}

// Key returns a comparable, deterministic encoding of t suitable for use as
// a map key (ThreadId itself embeds a slice and is not comparable).
func (t ThreadId) Key() string {
	buf := make([]byte, 2*len(t.path))
	for i, v := range t.path {
		binary.BigEndian.PutUint16(buf[2*i:], v)
	}
	return string(buf)
}

// String renders t the way the spec's (p,k) notation implies: a
// parenthesised, comma-separated list of local indices, e.g. "()" for the
// root thread and "(1,2)" for the 2nd thread spawned by the 1st thread
// spawned by root.
func (t ThreadId) String() string {
	parts := make([]string, len(t.path))
	for i, v := range t.path {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
