// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fat

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultPerRow is the number of entries per row of the FAT map.
const DefaultPerRow = 8

// Dump writes the FAT map of the working table: entries 0 up to the cluster count, perRow entries
// per row, each row prefixed with the index of its first entry.
func (t *Table) Dump(w io.Writer, perRow int) error {
	if perRow <= 0 {
		perRow = DefaultPerRow
	}
	bw := bufio.NewWriter(w)
	for i := uint32(0); i < t.ClusterCount(); i++ {
		v, err := t.Get(i)
		if err != nil {
			return err
		}
		if i%uint32(perRow) == 0 {
			fmt.Fprintf(bw, "\n->$(%5x):", i)
		}
		fmt.Fprintf(bw, "%5x", v)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// Stats counts the entries of the working table by kind.
type Stats struct {
	Free     uint32
	Used     uint32
	Bad      uint32
	Reserved uint32
}

// Stats classifies the entries of every data cluster.
func (t *Table) Stats() (Stats, error) {
	var s Stats
	for i := uint32(2); i < t.ClusterCount(); i++ {
		e, err := t.Entry(i)
		if err != nil {
			return s, err
		}
		switch e.Kind {
		case Free:
			s.Free++
		case Bad:
			s.Bad++
		case Next, EndOfChain:
			s.Used++
		default:
			s.Reserved++
		}
	}
	return s, nil
}
