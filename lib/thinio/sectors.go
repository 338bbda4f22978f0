// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package thinio provides sector-addressed I/O on a block.Device.
//
// FAT metadata is addressed in logical sectors whose size comes from the boot sector, while a
// block.Device only accepts requests aligned to its own block size.  SectorIO bridges the two,
// reading whole device blocks and trimming them, and performing read-modify-write cycles when a
// sector span does not cover whole blocks.
package thinio

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/block"
	"fuchsia.googlesource.com/fatedit/lib/fs"
)

// DefaultSectorSize is the logical sector size assumed until the boot sector has been parsed.
const DefaultSectorSize = 512

type errKind int

const (
	readErr errKind = iota
	writeErr
	rangeErr
	flushErr
)

// devError describes a failed device operation.  Its Cause is fs.ErrIO.
type devError struct {
	kind errKind
	off  int64
	len  int64
	err  error
}

func (de *devError) Error() string {
	switch de.kind {
	case readErr:
		return fmt.Sprintf("failed to read %d bytes at offset %#x: %v", de.len, de.off, de.err)
	case writeErr:
		return fmt.Sprintf("failed to write %d bytes at offset %#x: %v", de.len, de.off, de.err)
	case rangeErr:
		return fmt.Sprintf("range [%#x, %#x) lies outside the device", de.off, de.off+de.len)
	case flushErr:
		return fmt.Sprintf("failed to flush device: %v", de.err)
	default:
		return "unknown error"
	}
}

// Cause returns fs.ErrIO so that callers can match the error with errors.Cause.
func (de *devError) Cause() error {
	return fs.ErrIO
}

// SectorIO reads and writes runs of logical sectors on a block.Device.
type SectorIO struct {
	dev        block.Device
	sectorSize int64
}

// New returns a SectorIO for dev using DefaultSectorSize.
func New(dev block.Device) *SectorIO {
	if glog.V(1) {
		glog.Infof("Sector I/O on %s: %d bytes, block size %d\n", dev.Path(), dev.Size(), dev.BlockSize())
	}
	return &SectorIO{dev: dev, sectorSize: DefaultSectorSize}
}

// Device returns the underlying block.Device.
func (s *SectorIO) Device() block.Device {
	return s.dev
}

// SectorSize returns the logical sector size in bytes.
func (s *SectorIO) SectorSize() int64 {
	return s.sectorSize
}

// SetSectorSize changes the logical sector size.  n must be positive.
func (s *SectorIO) SetSectorSize(n int64) error {
	if n <= 0 {
		return errors.Errorf("invalid sector size %d", n)
	}
	s.sectorSize = n
	return nil
}

// ReadSectors reads count sectors starting at sector start.
func (s *SectorIO) ReadSectors(count, start int64) ([]byte, error) {
	if count < 0 || start < 0 {
		return nil, &devError{kind: rangeErr, off: start * s.sectorSize, len: count * s.sectorSize}
	}
	glog.V(2).Infof("Reading %d sectors from sector %d", count, start)
	return s.ReadBytes(start*s.sectorSize, count*s.sectorSize)
}

// WriteSectors writes buf starting at sector start.  len(buf) must be a multiple of the sector
// size.
func (s *SectorIO) WriteSectors(start int64, buf []byte) error {
	if int64(len(buf))%s.sectorSize != 0 {
		return errors.Errorf("len(buf) (%d) is not a multiple of the sector size %d", len(buf), s.sectorSize)
	}
	if start < 0 {
		return &devError{kind: rangeErr, off: start * s.sectorSize, len: int64(len(buf))}
	}
	glog.V(2).Infof("Writing %d sectors at sector %d", int64(len(buf))/s.sectorSize, start)
	return s.WriteBytes(start*s.sectorSize, buf)
}

// align returns the smallest block-aligned range covering [off, off+n).
func (s *SectorIO) align(off, n int64) (int64, int64) {
	bs := s.dev.BlockSize()
	start := off - off%bs
	end := off + n
	if r := end % bs; r != 0 {
		end += bs - r
	}
	return start, end
}

func (s *SectorIO) inBounds(start, end int64) bool {
	return start >= 0 && end <= s.dev.Size()
}

// ReadBytes reads n bytes at byte offset off, regardless of block alignment.
func (s *SectorIO) ReadBytes(off, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	start, end := s.align(off, n)
	if !s.inBounds(start, end) {
		return nil, &devError{kind: rangeErr, off: off, len: n}
	}
	buf := make([]byte, end-start)
	if _, err := s.dev.ReadAt(buf, start); err != nil {
		return nil, &devError{kind: readErr, off: start, len: end - start, err: err}
	}
	return buf[off-start : off-start+n], nil
}

// WriteBytes writes p at byte offset off.  Partial device blocks are read first so that bytes
// outside p are preserved.
func (s *SectorIO) WriteBytes(off int64, p []byte) error {
	n := int64(len(p))
	if n == 0 {
		return nil
	}
	start, end := s.align(off, n)
	if !s.inBounds(start, end) {
		return &devError{kind: rangeErr, off: off, len: n}
	}

	buf := p
	if start != off || end != off+n {
		if glog.V(2) {
			glog.Infof("Read-modify-write of [%#x, %#x) for a %d byte write at %#x\n", start, end, n, off)
		}
		buf = make([]byte, end-start)
		if _, err := s.dev.ReadAt(buf, start); err != nil {
			return &devError{kind: readErr, off: start, len: end - start, err: err}
		}
		copy(buf[off-start:], p)
	}
	if _, err := s.dev.WriteAt(buf, start); err != nil {
		return &devError{kind: writeErr, off: start, len: end - start, err: err}
	}
	return nil
}

// Flush flushes the underlying device.
func (s *SectorIO) Flush() error {
	if err := s.dev.Flush(); err != nil {
		return &devError{kind: flushErr, err: err}
	}
	return nil
}

// Close closes the underlying device.
func (s *SectorIO) Close() error {
	return s.dev.Close()
}
