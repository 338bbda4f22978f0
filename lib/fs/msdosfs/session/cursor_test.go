// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"testing"

	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

func TestCursorNavigation(t *testing.T) {
	s, _ := setUp(t, false)
	c := s.Cursor()

	if err := c.PrevFATEntry(); errors.Cause(err) != fs.ErrIndexOutOfRange {
		t.Errorf("PrevFATEntry at 0 = %v", err)
	}
	if err := c.PrevDirEntry(); errors.Cause(err) != fs.ErrIndexOutOfRange {
		t.Errorf("PrevDirEntry at 0 = %v", err)
	}
	if err := c.SelectFATEntry(714); err != nil {
		t.Fatal(err)
	}
	if err := c.NextFATEntry(); errors.Cause(err) != fs.ErrIndexOutOfRange || c.FATEntry() != 714 {
		t.Errorf("NextFATEntry at the last cluster = %v, entry %#x", err, c.FATEntry())
	}
	if err := c.SelectDirEntry(111); err != nil {
		t.Fatal(err)
	}
	if err := c.NextDirEntry(); errors.Cause(err) != fs.ErrIndexOutOfRange || c.DirEntry() != 111 {
		t.Errorf("NextDirEntry at the last entry = %v, entry %d", err, c.DirEntry())
	}
	if err := c.PrevDirEntry(); err != nil || c.DirEntry() != 110 {
		t.Errorf("PrevDirEntry = %v, entry %d", err, c.DirEntry())
	}
}

func TestCursorFollow(t *testing.T) {
	s, _ := setUp(t, false)
	c := s.Cursor()
	if err := c.GotoStartCluster(); err != nil {
		t.Fatal(err)
	}

	var visited []uint32
	for {
		visited = append(visited, c.FATEntry())
		ok, err := c.Follow()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
	}
	if len(visited) != 3 || visited[0] != 2 || visited[2] != 4 {
		t.Errorf("followed %v, want [2 3 4]", visited)
	}
}

func TestCursorFollowKeepsSelection(t *testing.T) {
	s, _ := setUp(t, false)
	c := s.Cursor()
	table, _ := s.FAT()
	if err := table.Put(101, 1); err != nil {
		t.Fatal(err)
	}
	// 100 is free, 101 holds a reserved value and 4 ends the chain of HELLO.TXT.
	for _, i := range []uint32{100, 101, 4} {
		if err := c.SelectFATEntry(i); err != nil {
			t.Fatal(err)
		}
		ok, err := c.Follow()
		if err != nil || ok {
			t.Errorf("Follow from %#x = %v, %v; want false, nil", i, ok, err)
		}
		if c.FATEntry() != i {
			t.Errorf("Follow from %#x moved to %#x", i, c.FATEntry())
		}
	}
}

func TestLinkEntryRange(t *testing.T) {
	s, _ := setUp(t, false)
	for _, cluster := range []uint32{1, 715, 0x10005} {
		if err := s.LinkEntry(0, cluster); errors.Cause(err) != fs.ErrValueOutOfRange {
			t.Errorf("LinkEntry(0, %#x) = %v, want %v", cluster, err, fs.ErrValueOutOfRange)
		}
		if e, _ := s.Entry(0); e.StartCluster() != 2 {
			t.Errorf("LinkEntry(0, %#x) moved the start cluster to %#x", cluster, e.StartCluster())
		}
	}
	for _, cluster := range []uint32{714, 0} {
		if err := s.LinkEntry(0, cluster); err != nil {
			t.Errorf("LinkEntry(0, %#x) = %v", cluster, err)
		}
		if e, _ := s.Entry(0); e.StartCluster() != cluster {
			t.Errorf("start cluster = %#x, want %#x", e.StartCluster(), cluster)
		}
	}
}

func TestCursorSaveAndLink(t *testing.T) {
	s, _ := setUp(t, false)
	c := s.Cursor()

	// Move the end of HELLO.TXT from cluster 4 to cluster 9.
	if err := c.SelectFATEntry(4); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveValue(); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectFATEntry(9); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveEntry(); err != nil {
		t.Fatal(err)
	}
	if err := c.RestoreValue(); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectFATEntry(3); err != nil {
		t.Fatal(err)
	}
	if err := c.CopySavedEntry(); err != nil {
		t.Fatal(err)
	}
	if entry, value := c.Saved(); entry != 9 || value != 0xFFF {
		t.Errorf("Saved() = %#x, %#x", entry, value)
	}

	table, _ := s.FAT()
	if v, _ := table.Get(3); v != 9 {
		t.Errorf("entry 3 = %#x, want 9", v)
	}
	if v, _ := table.Get(9); v != 0xFFF {
		t.Errorf("entry 9 = %#x, want 0xfff", v)
	}

	// Attach the empty file to the chain starting at 9.
	if err := c.SelectDirEntry(1); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectFATEntry(9); err != nil {
		t.Fatal(err)
	}
	if err := c.LinkDirEntry(); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Entry(1); e.StartCluster() != 9 {
		t.Errorf("entry 1 starts at %#x, want 9", e.StartCluster())
	}

	if err := c.SetValue(0x500); errors.Cause(err) != fs.ErrValueOutOfRange {
		t.Errorf("SetValue past the last cluster = %v, want %v", err, fs.ErrValueOutOfRange)
	}
}

func TestCursorNeedsLogin(t *testing.T) {
	c := New(Options{}).Cursor()
	if err := c.SelectFATEntry(2); err != fs.ErrNotLoggedIn {
		t.Errorf("SelectFATEntry = %v, want %v", err, fs.ErrNotLoggedIn)
	}
	if _, err := c.Follow(); err != fs.ErrNotLoggedIn {
		t.Errorf("Follow = %v, want %v", err, fs.ErrNotLoggedIn)
	}
	if err := c.LinkDirEntry(); err != fs.ErrNotLoggedIn {
		t.Errorf("LinkDirEntry = %v, want %v", err, fs.ErrNotLoggedIn)
	}
}
