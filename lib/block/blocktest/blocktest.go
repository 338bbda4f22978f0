// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package blocktest checks implementations of block.Device against the contract the sector
// adapter relies on.
package blocktest

import (
	"bytes"
	"math/rand"
	"testing"

	"fuchsia.googlesource.com/fatedit/lib/block"
)

const numIterations = 100

// span picks a random block-aligned range [off, off+count) inside dev.
func span(dev block.Device, r *rand.Rand) (off, count int64) {
	blockSize := dev.BlockSize()
	numBlocks := dev.Size() / blockSize
	start := r.Int63n(numBlocks)
	count = r.Int63n(numBlocks-start) * blockSize
	if count == 0 {
		count = blockSize
	}
	return start * blockSize, count
}

func checkMirror(t *testing.T, dev block.Device, buf []byte) {
	if int64(len(buf)) != dev.Size() {
		t.Fatalf("len(buf) = %v; want %v\n", len(buf), dev.Size())
	}
}

// ReadAt reads random spans of dev and compares them with buf, which must hold the same
// contents as dev.
func ReadAt(t *testing.T, dev block.Device, r *rand.Rand, buf []byte) {
	checkMirror(t, dev, buf)

	for i := 0; i < numIterations; i++ {
		off, count := span(dev, r)
		actual := make([]byte, count)
		if _, err := dev.ReadAt(actual, off); err != nil {
			t.Errorf("Error reading %v bytes from offset %#x: %v\n", count, off, err)
			continue
		}
		if !bytes.Equal(actual, buf[off:off+count]) {
			t.Errorf("Mismatched byte slices for %v byte read from offset %#x\n", count, off)
		}
	}
}

// WriteAt writes random data over random spans of dev, mirroring every write into buf, and then
// verifies the whole device against buf.
func WriteAt(t *testing.T, dev block.Device, r *rand.Rand, buf []byte) {
	checkMirror(t, dev, buf)

	for i := 0; i < numIterations; i++ {
		off, count := span(dev, r)
		data := make([]byte, count)
		r.Read(data)
		if _, err := dev.WriteAt(data, off); err != nil {
			t.Errorf("Error writing %v bytes at offset %#x: %v\n", count, off, err)
			continue
		}
		copy(buf[off:], data)
	}

	actual := make([]byte, dev.Size())
	if _, err := dev.ReadAt(actual, 0); err != nil {
		t.Error("Error reading contents of device: ", err)
	}
	if !bytes.Equal(actual, buf) {
		t.Error("Device contents differ from expected contents")
	}
}

// ErrorPaths verifies that dev rejects unaligned and out of bounds requests.
func ErrorPaths(t *testing.T, dev block.Device) {
	blockSize := dev.BlockSize()
	cases := []struct {
		desc string
		p    []byte
		off  int64
	}{
		{"an unaligned offset", []byte{}, blockSize + 1},
		{"an unaligned len(p)", make([]byte, blockSize-1), blockSize},
		{"an out of bounds range", make([]byte, 2*blockSize), dev.Size() - blockSize},
	}
	for _, c := range cases {
		if _, err := dev.ReadAt(c.p, c.off); err == nil {
			t.Errorf("dev.ReadAt returned a nil error for %s", c.desc)
		}
		if _, err := dev.WriteAt(c.p, c.off); err == nil {
			t.Errorf("dev.WriteAt returned a nil error for %s", c.desc)
		}
	}
}
