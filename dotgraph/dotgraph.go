// Copyright (c) 2025 The por-se Authors
//
// File: dotgraph.go
// Brief: Configuration.ToDOTGraph: a DOT rendering of a committed schedule
//
// License: BSD-3-Clause

// Package dotgraph renders a configuration's schedule as a Graphviz DOT
// graph (spec.md §6): one cluster per thread, one box per event, grey edges
// along each thread's own depth order, blue edges for every other
// predecessor link, and invisible spacer nodes bridging non-consecutive
// depths within a thread so clusters line up visually. This is a
// persisted-artefact exporter, not a hot path, so it uses stdlib fmt/io
// only -- no example in the retrieval pack reaches for a dedicated
// graphviz-writing library for this kind of lightweight text emission.
package dotgraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/unfolding"
)

// Schedule is the minimal view ToDOTGraph needs from a configuration: the
// commit-ordered list of events. configuration.Configuration.Schedule()
// satisfies this directly.
type Schedule = []event.ID

// Write renders schedule (as committed against unf) to w as a DOT graph.
func Write(w io.Writer, unf *unfolding.Unfolding, schedule Schedule) error {
	byThread := make(map[string][]event.ID)
	var threadOrder []string
	for _, id := range schedule {
		e := unf.Event(id)
		key := e.Tid().Key()
		if _, ok := byThread[key]; !ok {
			threadOrder = append(threadOrder, key)
		}
		byThread[key] = append(byThread[key], id)
	}
	sort.Slice(threadOrder, func(i, j int) bool {
		return threadOrder[i] < threadOrder[j]
	})

	if _, err := fmt.Fprintln(w, "digraph unfolding {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=TB;"); err != nil {
		return err
	}

	for ci, key := range threadOrder {
		ids := byThread[key]
		tid := unf.Event(ids[0]).Tid()
		if _, err := fmt.Fprintf(w, "  subgraph cluster_%d {\n", ci); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    label=%q;\n", tid.String()); err != nil {
			return err
		}

		var prevDepth uint32
		var havePrev bool
		for _, id := range ids {
			e := unf.Event(id)
			if havePrev {
				for d := prevDepth + 1; d < e.Depth(); d++ {
					if _, err := fmt.Fprintf(w, "    spacer_%d_%d [shape=point, style=invis];\n", ci, d); err != nil {
						return err
					}
				}
			}
			if _, err := fmt.Fprintf(w, "    e%d [shape=box, label=%q];\n", id, nodeLabel(e)); err != nil {
				return err
			}
			prevDepth = e.Depth()
			havePrev = true
		}

		for i := 1; i < len(ids); i++ {
			if _, err := fmt.Fprintf(w, "    e%d -> e%d [color=grey];\n", ids[i-1], ids[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "  }"); err != nil {
			return err
		}
	}

	for _, id := range schedule {
		e := unf.Event(id)
		for _, p := range e.Predecessors() {
			if unf.Event(p).Tid().Equal(e.Tid()) {
				continue // already drawn as a grey intra-thread edge
			}
			if _, err := fmt.Fprintf(w, "  e%d -> e%d [color=blue];\n", p, id); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func nodeLabel(e *event.Event) string {
	return fmt.Sprintf("%s\\n#%d depth=%d", e.Kind(), e.ID(), e.Depth())
}
