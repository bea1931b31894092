// Copyright (c) 2025 The por-se Authors
//
// File: catchup.go
// Brief: CatchUp: replay a node's recorded schedule via register
//
// License: BSD-3-Clause

package node

import "github.com/por-se/por-se-sub001/timing"

// CatchUp drives n's configuration through its recorded schedule by calling
// register repeatedly until the configuration is live again, per spec.md
// §4.5: "Catch-up: replays events along schedule[schedule_pos..] using the
// same register closure, validating that the interpreter reproduces
// exactly those events." Each successful replay step is materialised as a
// real left child, so a CreateRightBranches alternative grafts lazily
// rather than as a pre-built chain. Catch-up divergence surfaces as
// whatever error the underlying commit call returns (an invariant
// violation, per spec.md §7) -- a fatal break the caller must not retry.
func CatchUp(n *Node, register RegisterFunc) (*Node, error) {
	timing.Start(timing.CatchUp)
	defer timing.Stop(timing.CatchUp)

	cur := n
	for !cur.config.IsLive() {
		next, err := cur.MakeLeftChild(register)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	return cur, nil
}
