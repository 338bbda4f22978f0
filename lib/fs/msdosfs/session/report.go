// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/glog"

	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/direntry"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
)

// writeChain writes the clusters of the chain starting at start and the value ending it.
func writeChain(w io.Writer, t *fat.Table, start uint32) error {
	clusters, terminal, err := fat.Chain(t, start)
	for _, c := range clusters {
		fmt.Fprintf(w, "%5x", c)
	}
	if err != nil {
		fmt.Fprintln(w)
		return err
	}
	_, err = fmt.Fprintf(w, "%5x\n", terminal)
	return err
}

// EntryReport writes directory entry i followed by its cluster chain.
func (s *Session) EntryReport(w io.Writer, i int) error {
	e, err := s.Entry(i)
	if err != nil {
		return err
	}
	if err := e.Format(w); err != nil {
		return err
	}
	return writeChain(w, s.fats, e.StartCluster())
}

// ChainReport writes every directory entry in use, or every entry if all is set, each followed
// by its cluster chain.  A broken chain is reported and the listing continues; the first such
// error is returned.
func (s *Session) ChainReport(w io.Writer, all bool) error {
	if !s.LoggedIn() {
		return fs.ErrNotLoggedIn
	}
	bw := bufio.NewWriter(w)
	var first error
	for i := 0; i < s.dir.Len(); i++ {
		e, _ := s.dir.At(i)
		if e.Status() == direntry.NeverUsed && !all {
			continue
		}
		fmt.Fprintf(bw, "->$(%4x) ", i)
		if err := e.Format(bw); err != nil {
			return err
		}
		if err := writeChain(bw, s.fats, e.StartCluster()); err != nil {
			glog.Warningf("Directory entry %#x: %v", i, err)
			if first == nil {
				first = err
			}
		}
	}
	bw.WriteByte('\n')
	if err := bw.Flush(); err != nil {
		return err
	}
	return first
}

// CandidateLength returns the length implied by the cluster chain of directory entry i.  The
// entry is not modified; see CommitLength.
func (s *Session) CandidateLength(i int) (uint32, error) {
	e, err := s.Entry(i)
	if err != nil {
		return 0, err
	}
	return fat.ChainLength(s.fats, e.StartCluster())
}

// CommitLength stores length in directory entry i.
func (s *Session) CommitLength(i int, length uint32) error {
	e, err := s.Entry(i)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting length of directory entry %#x to %#x", i, length)
	e.SetLength(length)
	return nil
}
