// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

const (
	hexPerRow   = 16
	asciiPerRow = 64
)

// ReadCluster reads the data of cluster from the device.
func (s *Session) ReadCluster(cluster uint32) ([]byte, error) {
	if !s.LoggedIn() {
		return nil, fs.ErrNotLoggedIn
	}
	if cluster >= s.geom.ClusterCount() {
		return nil, errors.Wrapf(fs.ErrIndexOutOfRange, "cluster %#x past the last cluster %#x", cluster, s.geom.ClusterCount()-1)
	}
	off, err := s.geom.ClusterLocationData(cluster)
	if err != nil {
		return nil, err
	}
	return s.sio.ReadBytes(off, int64(s.geom.ClusterSize()))
}

func gutter(b byte) byte {
	if b < ' ' {
		return '.'
	}
	return b
}

// HexView writes the data of cluster as rows of 16 hex bytes followed by their characters.
func (s *Session) HexView(w io.Writer, cluster uint32) error {
	data, err := s.ReadCluster(cluster)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for off := 0; off < len(data); off += hexPerRow {
		row := data[off:]
		if len(row) > hexPerRow {
			row = row[:hexPerRow]
		}
		fmt.Fprintf(bw, "\n->$(%4x) ", off)
		for _, b := range row {
			fmt.Fprintf(bw, "%3x", b)
		}
		bw.WriteString("  ")
		for _, b := range row {
			bw.WriteByte(gutter(b))
		}
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// ASCIIView writes the data of cluster as rows of 64 characters.
func (s *Session) ASCIIView(w io.Writer, cluster uint32) error {
	data, err := s.ReadCluster(cluster)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for off, b := range data {
		if off%asciiPerRow == 0 {
			fmt.Fprintf(bw, "\n->$(%4x) ", off)
		}
		bw.WriteByte(gutter(b))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
