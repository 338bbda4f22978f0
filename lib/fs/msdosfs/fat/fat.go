// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fat contains the File Allocation Table of a FAT12 or FAT16 volume: the entry codec,
// the chain walker and FAT copy mirroring.
//
// A Table works on an in-memory copy of the FAT region.  Nothing in this package performs I/O
// or locking; callers serialize access to a Table.
package fat

import (
	"fmt"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/bootrecord"
)

const (
	// Values at or above the reserved threshold are sentinels, never links.
	reservedFAT12 = 0x00000FF0
	reservedFAT16 = 0x0000FFF0

	// "BAD CLUSTER" indicates that this cluster is prone to disk errors.
	badFAT12 = 0x00000FF7
	badFAT16 = 0x0000FFF7

	// An entry value of "eof..." or higher indicates the end of a file.
	eofFAT12 = 0x00000FF8
	eofFAT16 = 0x0000FFF8

	// Largest end of chain marker, the value written when a chain is terminated.
	lastFAT12 = 0x00000FFF
	lastFAT16 = 0x0000FFFF

	freeValue = 0
)

// Mask returns the mask of valid entry bits for width.
func Mask(width bootrecord.FATType) uint32 {
	if width == bootrecord.FAT16 {
		return bitops.Mask(16)
	}
	return bitops.Mask(12)
}

// ReservedThreshold returns the smallest sentinel value for width.
func ReservedThreshold(width bootrecord.FATType) uint32 {
	if width == bootrecord.FAT16 {
		return reservedFAT16
	}
	return reservedFAT12
}

// BadValue returns the entry value marking a bad cluster.
func BadValue(width bootrecord.FATType) uint32 {
	if width == bootrecord.FAT16 {
		return badFAT16
	}
	return badFAT12
}

// EOFValue returns the entry value written to terminate a chain.
// Notably, every value from the EOF threshold up means "end of file".
func EOFValue(width bootrecord.FATType) uint32 {
	if width == bootrecord.FAT16 {
		return lastFAT16
	}
	return lastFAT12
}

func eofThreshold(width bootrecord.FATType) uint32 {
	if width == bootrecord.FAT16 {
		return eofFAT16
	}
	return eofFAT12
}

// Kind tags the meaning of a FAT entry value.
type Kind int

// Entry kinds.
const (
	Free Kind = iota
	Reserved
	Bad
	Next
	EndOfChain
)

func (k Kind) String() string {
	switch k {
	case Free:
		return "free"
	case Reserved:
		return "reserved"
	case Bad:
		return "bad"
	case Next:
		return "next"
	case EndOfChain:
		return "end of chain"
	default:
		return "unknown"
	}
}

// Entry is the logical view of a FAT entry value.
type Entry struct {
	Kind  Kind
	Value uint32
}

// Classify interprets v as an entry of the given width.
func Classify(width bootrecord.FATType, v uint32) Entry {
	switch {
	case v == freeValue:
		return Entry{Free, v}
	case v < bootrecord.NumReservedClusters:
		return Entry{Reserved, v}
	case v < ReservedThreshold(width):
		return Entry{Next, v}
	case v >= eofThreshold(width):
		return Entry{EndOfChain, v}
	case v == BadValue(width):
		return Entry{Bad, v}
	default:
		return Entry{Reserved, v}
	}
}

func (e Entry) String() string {
	switch e.Kind {
	case Next:
		return fmt.Sprintf("next %#x", e.Value)
	case Reserved:
		return fmt.Sprintf("reserved %#x", e.Value)
	default:
		return e.Kind.String()
	}
}

// EntryError records a rejected codec operation and the entry it addressed.
type EntryError struct {
	Op    string
	Index uint32
	Value uint32
	Err   error
}

func (e *EntryError) Error() string {
	if e.Op == "put" {
		return fmt.Sprintf("FAT put %#x at entry %#x: %v", e.Value, e.Index, e.Err)
	}
	return fmt.Sprintf("FAT %s entry %#x: %v", e.Op, e.Index, e.Err)
}

// Cause returns the underlying fs error, for use with errors.Cause.
func (e *EntryError) Cause() error {
	return e.Err
}
