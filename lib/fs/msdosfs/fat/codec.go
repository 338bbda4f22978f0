// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fat

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/bootrecord"
)

// Layout of a FAT12 entry pair (2k, 2k+1) packed into three bytes [b0, b1, b2]:
//
//	even: b0 | (b1 & 0x0F) << 8
//	odd:  b2 << 4 | (b1 & 0xF0) >> 4
const (
	fat12LowNibble  = 0x0F
	fat12HighNibble = 0xF0
	fat12NibbleBits = 4
	fat12ByteBits   = 8
)

// fat12Pos returns the offset of the 3-byte block holding index.
func fat12Pos(index uint32) int {
	return 3 * int(index>>1)
}

// checkIndex verifies that index addresses an entry stored inside buf.
func checkIndex(buf []byte, width bootrecord.FATType, index uint32, op string) error {
	n := len(buf)
	var limit uint32
	var end int
	switch width {
	case bootrecord.FAT12:
		limit = uint32(n*2/3)
		end = fat12Pos(index) + 2
		if index%2 == 1 {
			end++
		}
	case bootrecord.FAT16:
		limit = uint32(n / 2)
		end = 2*int(index) + 2
	default:
		return &EntryError{Op: op, Index: index, Err: fs.ErrUnsupportedFatWidth}
	}
	if index > limit || end > n {
		return &EntryError{Op: op, Index: index, Err: fs.ErrIndexOutOfRange}
	}
	return nil
}

// GetEntry returns entry index of the table copy held in buf.
func GetEntry(buf []byte, width bootrecord.FATType, index uint32) (uint32, error) {
	if err := checkIndex(buf, width, index, "get"); err != nil {
		return 0, err
	}
	if width == bootrecord.FAT16 {
		return uint32(bitops.GetLE16(buf[2*index:])), nil
	}

	pos := fat12Pos(index)
	if index%2 == 0 {
		return uint32(buf[pos]) | uint32(buf[pos+1]&fat12LowNibble)<<fat12ByteBits, nil
	}
	return uint32(buf[pos+2])<<fat12NibbleBits | uint32(buf[pos+1]&fat12HighNibble)>>fat12NibbleBits, nil
}

// PutEntry stores value as entry index of the table copy held in buf.
//
// value must either link to a cluster (value < clusterCount) or be a sentinel at or above the
// reserved threshold; anything in between fails with fs.ErrValueOutOfRange.  A rejected write
// leaves buf untouched.  Writing a FAT12 entry preserves the entry sharing its middle byte.
func PutEntry(buf []byte, width bootrecord.FATType, index, value, clusterCount uint32) error {
	if err := checkIndex(buf, width, index, "put"); err != nil {
		err.(*EntryError).Value = value
		return err
	}
	if value > Mask(width) || (value >= clusterCount && value < ReservedThreshold(width)) {
		return &EntryError{Op: "put", Index: index, Value: value, Err: fs.ErrValueOutOfRange}
	}

	if width == bootrecord.FAT16 {
		bitops.PutLE16(buf[2*index:], uint16(value))
		return nil
	}

	pos := fat12Pos(index)
	if index%2 == 0 {
		buf[pos] = byte(value)
		buf[pos+1] = buf[pos+1]&fat12HighNibble | byte(value>>fat12ByteBits)&fat12LowNibble
	} else {
		buf[pos+1] = buf[pos+1]&fat12LowNibble | byte(value<<fat12NibbleBits)&fat12HighNibble
		buf[pos+2] = byte(value >> fat12NibbleBits)
	}
	return nil
}

// Table holds the FAT region of a volume: NumFATs copies of FATLength bytes each.  Copy 0 is the
// working table read and written by Get and Put.
type Table struct {
	region  []byte
	g       *bootrecord.Geometry
	slotLen int
}

// New wraps region, which must hold every FAT copy described by g.  The Table shares region's
// memory.
func New(region []byte, g *bootrecord.Geometry) (*Table, error) {
	if !g.Resolved() {
		return nil, fs.ErrGeometryUnresolved
	}
	if w := g.Width(); w != bootrecord.FAT12 && w != bootrecord.FAT16 {
		return nil, errors.Wrapf(fs.ErrUnsupportedFatWidth, "%d-bit FAT", w)
	}
	slotLen := g.FATLength()
	if need := slotLen * int(g.NumFATs()); len(region) < need {
		return nil, errors.Wrapf(fs.ErrIndexOutOfRange, "FAT region holds %d bytes, need %d", len(region), need)
	}
	glog.V(2).Infof("FAT region: %d copies of %d bytes, %s", g.NumFATs(), slotLen, g.Width())
	return &Table{region: region, g: g, slotLen: slotLen}, nil
}

// Geometry returns the geometry the table was created with.
func (t *Table) Geometry() *bootrecord.Geometry {
	return t.g
}

// Width returns the entry width.
func (t *Table) Width() bootrecord.FATType {
	return t.g.Width()
}

// ClusterCount returns the cluster number one past the last cluster of the volume.
func (t *Table) ClusterCount() uint32 {
	return t.g.ClusterCount()
}

// NumSlots returns the number of FAT copies.
func (t *Table) NumSlots() int {
	return int(t.g.NumFATs())
}

// Bytes returns the whole FAT region.
func (t *Table) Bytes() []byte {
	return t.region
}

// Slot returns the bytes of FAT copy n.
func (t *Table) Slot(n int) ([]byte, error) {
	if n < 0 || n >= t.NumSlots() {
		return nil, errors.Wrapf(fs.ErrInvalidFatNumber, "FAT %d of %d", n, t.NumSlots())
	}
	return t.region[n*t.slotLen : (n+1)*t.slotLen], nil
}

func (t *Table) working() []byte {
	return t.region[:t.slotLen]
}

// NumEntries returns the number of entries one FAT copy can hold.
func (t *Table) NumEntries() uint32 {
	if t.Width() == bootrecord.FAT16 {
		return uint32(t.slotLen / 2)
	}
	return uint32(t.slotLen * 2 / 3)
}

// Get returns the value of entry index of the working table.
func (t *Table) Get(index uint32) (uint32, error) {
	v, err := GetEntry(t.working(), t.Width(), index)
	if err != nil {
		return 0, err
	}
	if glog.V(2) {
		glog.Infof("Got entry %#x = %#x", index, v)
	}
	return v, nil
}

// GetSlot returns the value of entry index of FAT copy n.
func (t *Table) GetSlot(n int, index uint32) (uint32, error) {
	slot, err := t.Slot(n)
	if err != nil {
		return 0, err
	}
	return GetEntry(slot, t.Width(), index)
}

// Entry returns the classified value of entry index of the working table.
func (t *Table) Entry(index uint32) (Entry, error) {
	v, err := t.Get(index)
	if err != nil {
		return Entry{}, err
	}
	return Classify(t.Width(), v), nil
}

// Put sets entry index of the working table to value.  See PutEntry.
func (t *Table) Put(index, value uint32) error {
	glog.V(2).Infof("Setting entry %#x to value %#x", index, value)
	return PutEntry(t.working(), t.Width(), index, value, t.ClusterCount())
}
