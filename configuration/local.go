// Copyright (c) 2025 The por-se Authors
//
// File: local.go
// Brief: local: branch-path bookkeeping for non-concurrency-relevant steps
//
// License: BSD-3-Clause

package configuration

import (
	"github.com/por-se/por-se-sub001/event"
	"github.com/por-se/por-se-sub001/porerrors"
	"github.com/por-se/por-se-sub001/unfolding"
)

// Local records a branch-decision path along a local block. Two calls with
// the same predecessor but different paths produce two distinct unfolding
// events; the same path produces the same event.
func (c *Configuration) Local(tid event.ThreadId, path []event.PathElem) error {
	head, ok := c.threadHead(tid)
	if !ok {
		return porerrors.Raise(porerrors.NewPrecondition("Local", "thread is not alive"))
	}
	evt, err := c.commit("Local", unfolding.Candidate{
		Kind:         event.Local,
		Tid:          tid,
		Predecessors: []event.ID{head},
		Path:         path,
	})
	if err != nil {
		return err
	}
	c.threadHeads[tid.Key()] = evt.ID()
	return nil
}
