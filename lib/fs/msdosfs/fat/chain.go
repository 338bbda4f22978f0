// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fat

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

// Walker follows a cluster chain one entry at a time.
//
//	w := fat.Walk(t, start)
//	for w.Next() {
//		use(w.Cluster(), w.Value())
//	}
//	if err := w.Err(); err != nil { ... }
//
// The walk ends after the first cluster whose entry does not link to another cluster.  That entry
// value is reported by Terminal.  A Walker cannot be restarted.
type Walker struct {
	t        *Table
	next     uint32
	cluster  uint32
	value    uint32
	terminal uint32
	steps    int
	done     bool
	err      error
}

// Walk returns a Walker over the chain starting at start.  A start which is not a data cluster
// yields an empty chain whose terminal value is start itself.
func Walk(t *Table, start uint32) *Walker {
	w := &Walker{t: t, next: start}
	if !t.isLink(start) {
		w.done = true
		w.terminal = start
	}
	return w
}

func (t *Table) isLink(v uint32) bool {
	return Classify(t.Width(), v).Kind == Next && v < t.ClusterCount()
}

// Next advances to the next cluster of the chain.  It returns false when the chain has ended or
// the walk failed.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	if w.steps >= int(w.t.ClusterCount()) {
		w.done = true
		w.err = errors.Wrapf(fs.ErrChainLoop, "chain at cluster %#x exceeds %d steps", w.next, w.steps)
		return false
	}

	v, err := w.t.Get(w.next)
	if err != nil {
		w.done = true
		w.err = err
		return false
	}
	w.cluster, w.value = w.next, v
	w.steps++

	switch e := Classify(w.t.Width(), v); {
	case e.Kind != Next:
		w.done = true
		w.terminal = v
	case v >= w.t.ClusterCount():
		w.done = true
		w.terminal = v
		w.err = &EntryError{Op: "follow", Index: w.cluster, Value: v, Err: fs.ErrIndexOutOfRange}
	default:
		w.next = v
	}
	return true
}

// Cluster returns the current cluster.
func (w *Walker) Cluster() uint32 {
	return w.cluster
}

// Value returns the FAT entry of the current cluster.
func (w *Walker) Value() uint32 {
	return w.value
}

// Terminal returns the entry value which ended the chain.  It is only meaningful once Next has
// returned false.
func (w *Walker) Terminal() uint32 {
	return w.terminal
}

// Steps returns the number of clusters visited so far.
func (w *Walker) Steps() int {
	return w.steps
}

// Err returns the error which ended the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// Chain returns every cluster of the chain starting at start and the value which terminated it.
// On error the clusters visited before the failure are returned alongside it.
func Chain(t *Table, start uint32) ([]uint32, uint32, error) {
	var clusters []uint32
	w := Walk(t, start)
	for w.Next() {
		clusters = append(clusters, w.Cluster())
	}
	if glog.V(2) {
		glog.Infof("Chain from %#x: %d clusters, terminal %#x", start, len(clusters), w.Terminal())
	}
	return clusters, w.Terminal(), w.Err()
}

// ChainLength returns the number of bytes allocated to the chain starting at start.
func ChainLength(t *Table, start uint32) (uint32, error) {
	w := Walk(t, start)
	for w.Next() {
	}
	if err := w.Err(); err != nil {
		return 0, err
	}
	return uint32(w.Steps()) * t.Geometry().ClusterSize(), nil
}
