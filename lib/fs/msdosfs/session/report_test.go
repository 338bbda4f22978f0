// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

func TestChainReport(t *testing.T) {
	s, _ := setUp(t, false)

	var buf bytes.Buffer
	if err := s.ChainReport(&buf, false); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"->$(   0) <used>      A    HELLO   .TXT   $(     9c4)  17. 3.94  12.30.15 ",
		"    2    3    4  fff",
		"->$(   1) <used>           EMPTY   .DAT   $(       0)   0. 0.80   0. 0. 0 ",
		"    0",
		"",
		"",
	}
	if diff := cmp.Diff(want, strings.Split(buf.String(), "\n")); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := s.EntryReport(&buf, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "    2    3    4  fff\n") {
		t.Errorf("EntryReport = %q", buf.String())
	}
}

func TestChainReportLoop(t *testing.T) {
	s, _ := setUp(t, false)
	table, _ := s.FAT()
	if err := table.Put(4, 2); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.ChainReport(&buf, false); errors.Cause(err) != fs.ErrChainLoop {
		t.Errorf("ChainReport = %v, want %v", err, fs.ErrChainLoop)
	}
	if !strings.Contains(buf.String(), "EMPTY") {
		t.Error("listing stopped at the broken chain")
	}
}

func TestLengthRecomputation(t *testing.T) {
	s, _ := setUp(t, false)

	length, err := s.CandidateLength(0)
	if err != nil {
		t.Fatal(err)
	}
	if length != 3*1024 {
		t.Errorf("CandidateLength(0) = %d, want %d", length, 3*1024)
	}
	if e, _ := s.Entry(0); e.Length() != 2500 {
		t.Errorf("CandidateLength modified the entry: %d", e.Length())
	}
	if err := s.CommitLength(0, length); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Entry(0); e.Length() != 3*1024 {
		t.Errorf("length after CommitLength = %d", e.Length())
	}

	if length, err := s.CandidateLength(1); err != nil || length != 0 {
		t.Errorf("CandidateLength of an empty file = %d, %v", length, err)
	}
	table, _ := s.FAT()
	table.Put(3, 3)
	if _, err := s.CandidateLength(0); errors.Cause(err) != fs.ErrChainLoop {
		t.Errorf("CandidateLength of a looping chain = %v, want %v", err, fs.ErrChainLoop)
	}
	if _, err := s.CandidateLength(112); errors.Cause(err) != fs.ErrIndexOutOfRange {
		t.Errorf("CandidateLength(112) = %v, want %v", err, fs.ErrIndexOutOfRange)
	}
}

func TestReadCluster(t *testing.T) {
	s, _ := setUp(t, false)
	data, err := s.ReadCluster(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1024 || !bytes.HasPrefix(data, []byte("Hello, FAT\n")) {
		t.Errorf("ReadCluster(2) = %d bytes, want 1024 starting with the file data", len(data))
	}
	// The last cluster ends at the last sector of the volume.
	if data, err := s.ReadCluster(714); err != nil || len(data) != 1024 {
		t.Errorf("ReadCluster(714) = %d bytes, %v", len(data), err)
	}
}

func TestViews(t *testing.T) {
	s, _ := setUp(t, false)

	var buf bytes.Buffer
	if err := s.HexView(&buf, 2); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	// 1024 byte clusters: a leading newline, 64 rows and a trailing newline.
	if len(lines) != 66 {
		t.Fatalf("HexView wrote %d lines, want 66", len(lines))
	}
	want := "->$(   0)  48 65 6c 6c 6f 2c 20 46 41 54  a"
	if !strings.HasPrefix(lines[1], want) {
		t.Errorf("first hex row = %q, want prefix %q", lines[1], want)
	}
	if !strings.Contains(lines[1], "  Hello, FAT.") {
		t.Errorf("first hex row gutter = %q", lines[1])
	}

	buf.Reset()
	if err := s.ASCIIView(&buf, 2); err != nil {
		t.Fatal(err)
	}
	lines = strings.Split(buf.String(), "\n")
	if len(lines) != 18 || !strings.HasPrefix(lines[1], "->$(   0) Hello, FAT.") {
		t.Errorf("ASCIIView: %d lines, first %q", len(lines), lines[1])
	}

	if err := s.HexView(&buf, 715); errors.Cause(err) != fs.ErrIndexOutOfRange {
		t.Errorf("HexView(715) = %v, want %v", err, fs.ErrIndexOutOfRange)
	}
	if err := s.ASCIIView(&buf, 1); errors.Cause(err) != fs.ErrIndexOutOfRange {
		t.Errorf("ASCIIView(1) = %v, want %v", err, fs.ErrIndexOutOfRange)
	}
}
