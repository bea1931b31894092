// Copyright (c) 2025 The por-se Authors
//
// File: timing.go
// Brief: Phase timers for the POR core's hot loops
//
// License: BSD-3-Clause

// Package timing accumulates wall-clock time spent in the core's hot loops
// (fingerprint combine, conflict BFS, race detector queries) the same way
// the grounding analyzer accumulates named phases for its stats output. It
// is purely observational: nothing in the core changes behaviour based on
// what timing records.
package timing

import (
	"sync"
	"time"
)

// Phase identifies one of the timed hot loops.
type Phase int

const (
	// Fingerprint is time spent combining/removing fragments and hashing
	// symbolic-reference closures.
	Fingerprint Phase = iota
	// ConflictBFS is time spent in the coloured BFS of compute_alternative.
	ConflictBFS
	// RaceQuery is time spent in the race detector's fast or solver path.
	RaceQuery
	// CatchUp is time spent replaying a prefix during catch-up.
	CatchUp

	numPhases
)

func (p Phase) String() string {
	switch p {
	case Fingerprint:
		return "fingerprint"
	case ConflictBFS:
		return "conflict-bfs"
	case RaceQuery:
		return "race-query"
	case CatchUp:
		return "catch-up"
	default:
		return "unknown"
	}
}

// Timer accumulates elapsed time across repeated Start/Stop pairs. It is not
// safe for concurrent use by itself; the core is single-threaded per §5.
type Timer struct {
	startTime time.Time
	elapsed   time.Duration
	running   bool
}

// Start begins timing. A second call while already running is a no-op.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.startTime = time.Now()
	t.running = true
}

// Stop ends timing and accumulates the elapsed duration.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.elapsed += time.Since(t.startTime)
	t.running = false
}

// Elapsed returns the accumulated duration, including any in-flight Start.
func (t *Timer) Elapsed() time.Duration {
	if t.running {
		return t.elapsed + time.Since(t.startTime)
	}
	return t.elapsed
}

// Reset clears the accumulated duration.
func (t *Timer) Reset() {
	t.running = false
	t.elapsed = 0
}

var (
	mu     sync.Mutex
	timers [numPhases]Timer
)

// Start begins timing the given phase.
func Start(p Phase) {
	mu.Lock()
	defer mu.Unlock()
	timers[p].Start()
}

// Stop ends timing the given phase.
func Stop(p Phase) {
	mu.Lock()
	defer mu.Unlock()
	timers[p].Stop()
}

// Report returns the accumulated duration per phase, keyed by phase name.
func Report() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, numPhases)
	for p := Phase(0); p < numPhases; p++ {
		out[p.String()] = timers[p].Elapsed()
	}
	return out
}

// ResetAll clears every phase timer. Primarily used by tests.
func ResetAll() {
	mu.Lock()
	defer mu.Unlock()
	for i := range timers {
		timers[i].Reset()
	}
}
