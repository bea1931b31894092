//go:build por_debug

// Copyright (c) 2025 The por-se Authors
//
// File: raise_debug.go
// Brief: Debug build: fatal errors panic immediately
//
// License: BSD-3-Clause

package porerrors

// Raise panics with err in debug builds, surfacing precondition/invariant
// violations at the point of failure instead of propagating them up as a
// plain error return.
func Raise(err error) error {
	if err != nil {
		panic(err)
	}
	return err
}
