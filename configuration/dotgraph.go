// Copyright (c) 2025 The por-se Authors
//
// File: dotgraph.go
// Brief: Configuration.ToDOTGraph
//
// License: BSD-3-Clause

package configuration

import (
	"io"

	"github.com/por-se/por-se-sub001/dotgraph"
)

// ToDOTGraph renders the configuration's committed schedule as a Graphviz
// DOT graph (spec.md §6).
func (c *Configuration) ToDOTGraph(w io.Writer) error {
	return dotgraph.Write(w, c.unf, c.schedule)
}
