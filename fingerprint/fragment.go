// Copyright (c) 2025 The por-se Authors
//
// File: fragment.go
// Brief: Fragment: one typed, hashable contribution to a state fingerprint
//
// License: BSD-3-Clause

// Package fingerprint implements the content-addressable state identifier
// of spec.md §4.1: a fragment-based hash with an abelian combine operator,
// exposed both as a constant-space Blake2b XOR-hash and as a verifiable
// reference-counted bag, behind one Value interface so tests can
// cross-check the two.
package fingerprint

import (
	"encoding/binary"
	"fmt"
)

// Tag identifies a fragment's kind, per spec.md §4.1's tag-1..16 scheme.
type Tag byte

const (
	TagWriteConcrete Tag = iota + 1
	TagWriteSymbolic
	TagLocalConcrete
	TagLocalSymbolic
	TagArgumentConcrete
	TagArgumentSymbolic
	TagProgramCounter
	TagStackFrame
	TagExternalCallCounter
	TagPathConstraint
	TagAcquiredLock
	TagThreadState
	TagWaitingRelation1
	TagWaitingRelation2
	TagWaitingRelation3
	TagWaitingRelation4
)

// Fragment is a typed byte sequence: a one-byte tag followed by
// tag-specific encoded fields (addresses, length-prefixed thread ids,
// stack-frame indices, opaque object pointers, or a symbolic expression's
// canonical pretty-print).
type Fragment struct {
	Tag   Tag
	bytes []byte
}

// key returns a comparable string usable as a bag/map key: the tag and
// payload concatenated, which is exactly the fragment's encoded form.
func (f Fragment) key() string {
	buf := make([]byte, 1+len(f.bytes))
	buf[0] = byte(f.Tag)
	copy(buf[1:], f.bytes)
	return string(buf)
}

// Bytes returns the fragment's encoded byte sequence, tag byte first.
func (f Fragment) Bytes() []byte {
	out := make([]byte, 1+len(f.bytes))
	out[0] = byte(f.Tag)
	copy(out[1:], f.bytes)
	return out
}

func (f Fragment) String() string {
	return fmt.Sprintf("tag=%d/%x", f.Tag, f.bytes)
}

// NewWriteConcrete builds a tag-1 fragment: a concrete write of numBytes at
// address, to an opaque object identified by objectID.
func NewWriteConcrete(objectID uint64, address uint64, numBytes uint32) Fragment {
	buf := make([]byte, 8+8+4)
	binary.LittleEndian.PutUint64(buf[0:], objectID)
	binary.LittleEndian.PutUint64(buf[8:], address)
	binary.LittleEndian.PutUint32(buf[16:], numBytes)
	return Fragment{Tag: TagWriteConcrete, bytes: buf}
}

// NewWriteSymbolic builds a tag-2 fragment: a symbolic write, identified by
// the object and the canonical pretty-print of the offset/value expression.
func NewWriteSymbolic(objectID uint64, expr string) Fragment {
	buf := make([]byte, 8+len(expr))
	binary.LittleEndian.PutUint64(buf[0:], objectID)
	copy(buf[8:], expr)
	return Fragment{Tag: TagWriteSymbolic, bytes: buf}
}

// NewLocalConcrete builds a tag-3 fragment for a concrete local variable's
// current value at the given stack-frame index.
func NewLocalConcrete(frameIndex uint32, localIndex uint32, value uint64) Fragment {
	buf := make([]byte, 4+4+8)
	binary.LittleEndian.PutUint32(buf[0:], frameIndex)
	binary.LittleEndian.PutUint32(buf[4:], localIndex)
	binary.LittleEndian.PutUint64(buf[8:], value)
	return Fragment{Tag: TagLocalConcrete, bytes: buf}
}

// NewLocalSymbolic builds a tag-4 fragment for a symbolic local variable.
func NewLocalSymbolic(frameIndex uint32, localIndex uint32, expr string) Fragment {
	buf := make([]byte, 4+4+len(expr))
	binary.LittleEndian.PutUint32(buf[0:], frameIndex)
	binary.LittleEndian.PutUint32(buf[4:], localIndex)
	copy(buf[8:], expr)
	return Fragment{Tag: TagLocalSymbolic, bytes: buf}
}

// NewProgramCounter builds a tag-7 fragment for a thread's current
// instruction pointer, length-prefixed by the thread-id key.
func NewProgramCounter(tidKey string, pc uint64) Fragment {
	buf := make([]byte, 2+len(tidKey)+8)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(tidKey)))
	copy(buf[2:], tidKey)
	binary.LittleEndian.PutUint64(buf[2+len(tidKey):], pc)
	return Fragment{Tag: TagProgramCounter, bytes: buf}
}

// NewStackFrame builds a tag-8 fragment for a thread's call-stack shape.
func NewStackFrame(tidKey string, depth uint32) Fragment {
	buf := make([]byte, 2+len(tidKey)+4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(tidKey)))
	copy(buf[2:], tidKey)
	binary.LittleEndian.PutUint32(buf[2+len(tidKey):], depth)
	return Fragment{Tag: TagStackFrame, bytes: buf}
}

// NewExternalCallCounter builds a tag-9 fragment: the number of times an
// external function has been called from a given site.
func NewExternalCallCounter(siteID uint64, count uint64) Fragment {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:], siteID)
	binary.LittleEndian.PutUint64(buf[8:], count)
	return Fragment{Tag: TagExternalCallCounter, bytes: buf}
}

// NewPathConstraint builds a tag-10 fragment from a path-constraint
// expression's canonical pretty-print. Used only transiently, as the
// temporary delta described in spec.md §4.1 (added, hashed, then removed).
func NewPathConstraint(expr string) Fragment {
	return Fragment{Tag: TagPathConstraint, bytes: []byte(expr)}
}

// NewAcquiredLock builds a tag-11 fragment recording that a thread holds a
// lock.
func NewAcquiredLock(tidKey string, lockID uint64) Fragment {
	buf := make([]byte, 2+len(tidKey)+8)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(tidKey)))
	copy(buf[2:], tidKey)
	binary.LittleEndian.PutUint64(buf[2+len(tidKey):], lockID)
	return Fragment{Tag: TagAcquiredLock, bytes: buf}
}

// NewThreadState builds a tag-12 fragment recording a thread's coarse
// execution state (runnable/blocked/exited, etc., encoded by the caller).
func NewThreadState(tidKey string, state byte) Fragment {
	buf := make([]byte, 2+len(tidKey)+1)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(tidKey)))
	copy(buf[2:], tidKey)
	buf[2+len(tidKey)] = state
	return Fragment{Tag: TagThreadState, bytes: buf}
}

// NewWaitingRelation builds one of the four tag-13..16 waiting-relation
// fragments (which slot is used is the caller's concern; all four share an
// encoding of (waiter, resource)).
func NewWaitingRelation(slot int, tidKey string, resourceID uint64) Fragment {
	tag := TagWaitingRelation1
	switch slot {
	case 1:
		tag = TagWaitingRelation2
	case 2:
		tag = TagWaitingRelation3
	case 3:
		tag = TagWaitingRelation4
	}
	buf := make([]byte, 2+len(tidKey)+8)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(tidKey)))
	copy(buf[2:], tidKey)
	binary.LittleEndian.PutUint64(buf[2+len(tidKey):], resourceID)
	return Fragment{Tag: tag, bytes: buf}
}
