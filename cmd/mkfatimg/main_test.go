// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/bootrecord"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/image"
)

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		name      string
		args      []string
		expected  image.Params
		expectErr bool
	}{
		{
			name:     "default preset",
			args:     []string{"a.img"},
			expected: image.Floppy144M(),
		},
		{
			name: "hard disk with three FATs",
			args: []string{"--preset", "16M", "--fats", "3", "--oem", "FATEDIT", "hd.img"},
			expected: func() image.Params {
				p := image.HardDisk16M()
				p.NumFATs = 3
				p.OEMName = "FATEDIT"
				return p
			}(),
		},
		{
			name: "forced width",
			args: []string{"--preset=720k", "--width=16", "--exact-dir-sectors", "a.img"},
			expected: func() image.Params {
				p := image.Floppy720K()
				p.Width = 16
				p.ExactDirSectors = true
				return p
			}(),
		},
		{name: "missing output", args: []string{"--preset", "720k"}, expectErr: true},
		{name: "two outputs", args: []string{"a.img", "b.img"}, expectErr: true},
		{name: "unknown preset", args: []string{"--preset", "2.88m", "a.img"}, expectErr: true},
		{name: "bad width", args: []string{"--width", "32", "a.img"}, expectErr: true},
		{name: "long OEM name", args: []string{"--oem", "TOOLONGNAME", "a.img"}, expectErr: true},
		{name: "unknown flag", args: []string{"--size", "1", "a.img"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := parseArgs(tc.args)
			if tc.expectErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", cmd)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.expected, cmd.params); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.img")
	cmd, err := parseArgs([]string{"--preset", "720k", out})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.write(); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1440*512 {
		t.Fatalf("image is %d bytes, want %d", len(data), 1440*512)
	}
	g, err := bootrecord.Resolve(data[:512])
	if err != nil {
		t.Fatal(err)
	}
	if g.Width() != bootrecord.FAT12 || g.ClusterCount() != 715 {
		t.Errorf("resolved %s with %d clusters", g.Width(), g.ClusterCount())
	}

	if err := cmd.write(); err == nil {
		t.Error("overwrote an existing image without --force")
	}
	cmd.force = true
	if err := cmd.write(); err != nil {
		t.Errorf("write with --force: %v", err)
	}
}
