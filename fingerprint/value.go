// Copyright (c) 2025 The por-se Authors
//
// File: value.go
// Brief: Value: the abelian combine of fragments, hash and bag variants
//
// License: BSD-3-Clause

package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Value is a combined fingerprint supporting add/remove of fragments with
// the abelian-group law add∘remove = remove∘add = identity (spec.md §4.1).
type Value interface {
	// Add folds f into the value.
	Add(f Fragment)
	// Remove undoes a prior Add of f. Removing a fragment never added is a
	// programming error (see porerrors.Raise in the verified variant).
	Remove(f Fragment)
	// Clone returns an independent copy.
	Clone() Value
	// Equal reports whether two values of the same concrete type combine
	// to the same state.
	Equal(other Value) bool
	// ToString renders a stable, printable digest.
	ToString() string
}

// --- Hash variant: constant-space Blake2b XOR -----------------------------

// HashValue is the fixed-size 32-byte hash variant: fragments are hashed
// individually with Blake2b-256 and combined by byte-wise XOR, so Add and
// Remove are the same operation (XOR is its own inverse).
type HashValue struct {
	digest [32]byte
}

// NewHashValue returns the identity element (all-zero digest).
func NewHashValue() *HashValue {
	return &HashValue{}
}

func fragmentDigest(f Fragment) [32]byte {
	return blake2b.Sum256(f.Bytes())
}

// Add folds f's Blake2b-256 digest into the running XOR.
func (v *HashValue) Add(f Fragment) {
	d := fragmentDigest(f)
	for i := range v.digest {
		v.digest[i] ^= d[i]
	}
}

// Remove is identical to Add: XOR is its own inverse.
func (v *HashValue) Remove(f Fragment) {
	v.Add(f)
}

// Clone returns an independent copy.
func (v *HashValue) Clone() Value {
	c := *v
	return &c
}

// Equal reports digest equality. other must also be a *HashValue.
func (v *HashValue) Equal(other Value) bool {
	o, ok := other.(*HashValue)
	if !ok {
		return false
	}
	return v.digest == o.digest
}

// ToString renders a lower-case hex digest, per spec.md §6.
func (v *HashValue) ToString() string {
	return hex.EncodeToString(v.digest[:])
}

// --- Bag variant: reference-counted multiset ------------------------------

// BagValue is the verifiable reference-counted-multiset variant:
// Map<Fragment, count>, additive/subtractive merging, zero-count entries
// removed.
type BagValue struct {
	counts map[string]int64
	byKey  map[string]Fragment
}

// NewBagValue returns the identity element (empty bag).
func NewBagValue() *BagValue {
	return &BagValue{
		counts: make(map[string]int64),
		byKey:  make(map[string]Fragment),
	}
}

// Add increments f's count.
func (v *BagValue) Add(f Fragment) {
	k := f.key()
	v.counts[k]++
	v.byKey[k] = f
}

// Remove decrements f's count, dropping the entry once it reaches zero. In
// the verified build a negative count (removing more than was added) is an
// invariant violation; this package does not panic on it directly (the
// por_debug panic boundary lives in porerrors.Raise, consulted by
// fingerprint.NewVerified, not by the bare bag on its own).
func (v *BagValue) Remove(f Fragment) {
	k := f.key()
	v.counts[k]--
	if v.counts[k] == 0 {
		delete(v.counts, k)
		delete(v.byKey, k)
	}
}

// Underflowed reports whether any fragment's count has gone negative.
func (v *BagValue) Underflowed() bool {
	for _, c := range v.counts {
		if c < 0 {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (v *BagValue) Clone() Value {
	c := &BagValue{
		counts: make(map[string]int64, len(v.counts)),
		byKey:  make(map[string]Fragment, len(v.byKey)),
	}
	for k, n := range v.counts {
		c.counts[k] = n
	}
	for k, f := range v.byKey {
		c.byKey[k] = f
	}
	return c
}

// Equal reports multiset equality. other must also be a *BagValue.
func (v *BagValue) Equal(other Value) bool {
	o, ok := other.(*BagValue)
	if !ok {
		return false
	}
	if len(v.counts) != len(o.counts) {
		return false
	}
	for k, n := range v.counts {
		if o.counts[k] != n {
			return false
		}
	}
	return true
}

// ToString renders a stable digest by hashing the sorted (key, count)
// pairs, so two bags that combine to the same multiset render identically
// regardless of insertion order.
func (v *BagValue) ToString() string {
	keys := make([]string, 0, len(v.counts))
	for k := range v.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	var n [8]byte
	for _, k := range keys {
		h.Write([]byte(k))
		binary.LittleEndian.PutUint64(n[:], uint64(v.counts[k]))
		h.Write(n[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
