// Copyright (c) 2025 The por-se Authors
//
// File: budget.go
// Brief: Memory-pressure supervisor for the unfolding/node arena
//
// License: BSD-3-Clause

// Package budget watches system RAM while the unfolding grows and signals
// the node/exploration layer to stop scheduling new alternatives before the
// process is OOM-killed. It is adapted from the grounding repo's memory
// supervisor, which cancels a subject-program recording on the same
// threshold; here it watches the POR exploration itself, since an unfolding
// that never cuts off is exactly the kind of unbounded growth that policy
// was built for.
package budget

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/mem"

	"github.com/por-se/por-se-sub001/porlog"
)

var (
	wasCanceled    atomic.Bool
	wasCanceledRAM atomic.Bool
)

// LimitFraction is the fraction of total RAM that must remain available
// before the supervisor cancels exploration. Mirrors the grounding repo's
// hard-coded 0.02 threshold (available RAM dropping below 2% of total
// triggers a cancel). Overridable via POR_MEMORY_LIMIT_FRACTION.
var LimitFraction = 0.02

func init() {
	if raw := os.Getenv("POR_MEMORY_LIMIT_FRACTION"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 && f < 1 {
			LimitFraction = f
		}
	}
}

// Supervise polls memory and swap usage once a second and cancels
// exploration when available RAM drops below LimitFraction of total RAM, or
// when swap usage grows by more than 1GB since Supervise started. It is
// meant to run in its own goroutine for the lifetime of an exploration run;
// it never touches the (single-threaded) core data structures directly,
// it only flips the atomic flags WasCanceled/WasCanceledRAM consult.
func Supervise(stop <-chan struct{}) {
	v, err := mem.VirtualMemory()
	if err != nil {
		porlog.Errorf("budget: error getting memory info: %v", err)
		return
	}
	s, err := mem.SwapMemory()
	if err != nil {
		porlog.Errorf("budget: error getting swap info: %v", err)
		return
	}

	thresholdRAM := uint64(float64(v.Total) * LimitFraction)
	thresholdSwap := uint64(1000 * 1024 * 1024) // 1GB
	startSwap := s.Used

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		v, err = mem.VirtualMemory()
		if err != nil {
			porlog.Errorf("budget: error getting memory info: %v", err)
			continue
		}
		s, err = mem.SwapMemory()
		if err != nil {
			porlog.Errorf("budget: error getting swap info: %v", err)
			continue
		}

		if v.Available < thresholdRAM {
			cancel()
			return
		}
		if s.Used > thresholdSwap+startSwap {
			cancel()
			return
		}
	}
}

func cancel() {
	wasCanceled.Store(true)
	wasCanceledRAM.Store(true)
	porlog.Error("budget: exploration canceled, not enough RAM")
}

// WasCanceled reports whether exploration was canceled for any reason.
func WasCanceled() bool {
	return wasCanceled.Load()
}

// WasCanceledRAM reports whether the cancellation was specifically due to
// low RAM (as opposed to some other future cancellation reason).
func WasCanceledRAM() bool {
	return wasCanceledRAM.Load()
}

// Cancel cancels exploration for a reason other than low RAM (e.g. a host
// deadline). Node.CreateRightBranches consults WasCanceled to stop
// scheduling new alternatives; node.CatchUp does not consult it.
func Cancel() {
	wasCanceled.Store(true)
}

// Reset clears the cancellation flags. Primarily used by tests.
func Reset() {
	wasCanceled.Store(false)
	wasCanceledRAM.Store(false)
}
