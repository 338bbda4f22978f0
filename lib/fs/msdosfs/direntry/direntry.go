// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package direntry reads and edits the 32-byte short directory entries of a FAT12/FAT16 root
// directory in place.
package direntry

import (
	"strings"

	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/fs"
)

const (
	// DirentrySize is the size of a directory entry.
	DirentrySize = 32

	nameLen = 8
	extLen  = 3

	maxStartCluster = 0xFFFF
)

// Offsets of the fields of a directory entry.
const (
	offName       = 0
	offExt        = 8
	offAttributes = 11
	offTime       = 22
	offDate       = 24
	offCluster    = 26
	offSize       = 28
)

const (
	// Special values for the first byte of the name.
	charNeverUsed = 0x00
	charDeleted   = 0xE5

	// Format of the time field.
	timeSecondMask  = 0x1F // seconds, stored undivided
	timeSecondShift = 0
	timeMinuteMask  = 0x7E0
	timeMinuteShift = 5
	timeHourMask    = 0xF800
	timeHourShift   = 11

	// Format of the date field.
	dateDayMask    = 0x1F
	dateDayShift   = 0
	dateMonthMask  = 0x1E0
	dateMonthShift = 5
	dateYearMask   = 0xFE00 // year - 1980
	dateYearShift  = 9

	// YearBase is the year stored as zero.
	YearBase = 1980
)

// Status is derived from the first byte of the name.
type Status int

// Entry states.
const (
	NeverUsed Status = iota
	Deleted
	Active
)

func (s Status) String() string {
	switch s {
	case NeverUsed:
		return "empty"
	case Deleted:
		return "deleted"
	default:
		return "used"
	}
}

// Attr is the attribute byte of a directory entry.
type Attr uint8

// Attribute bits.
const (
	AttrReadOnly  Attr = 0x01
	AttrHidden    Attr = 0x02
	AttrSystem    Attr = 0x04
	AttrVolume    Attr = 0x08
	AttrDirectory Attr = 0x10
	AttrArchive   Attr = 0x20
	AttrBit6      Attr = 0x40
	AttrBit7      Attr = 0x80
)

// FlagLetters names the attribute bits, lowest bit first.
const FlagLetters = "RHSVDA67"

// AttrByLetter returns the attribute bit named by letter.  Letters are case-insensitive.
func AttrByLetter(letter rune) (Attr, error) {
	i := strings.IndexRune(FlagLetters, letter)
	if i < 0 {
		i = strings.IndexRune(FlagLetters, letter-'a'+'A')
	}
	if i < 0 {
		return 0, errors.Wrapf(fs.ErrInvalidAttribute, "%q (valid: %s)", letter, FlagLetters)
	}
	return Attr(1 << uint(i)), nil
}

// Entry is a view of one directory entry.  Mutations write through to the underlying buffer.
type Entry struct {
	b []byte
}

// View returns the entry stored in buf, which must be DirentrySize bytes long.
func View(buf []byte) Entry {
	if len(buf) != DirentrySize {
		panic("Buffer is not the size of a dirent -- cannot read")
	}
	return Entry{b: buf}
}

// Bytes returns the underlying record.
func (e Entry) Bytes() []byte {
	return e.b
}

// RawName returns the 11 bytes of name and extension, blank filled.
func (e Entry) RawName() []byte {
	return e.b[offName : offExt+extLen]
}

// Name returns the name without trailing blanks.
func (e Entry) Name() string {
	return strings.TrimRight(string(e.b[offName:offName+nameLen]), " ")
}

// Ext returns the extension without trailing blanks.
func (e Entry) Ext() string {
	return strings.TrimRight(string(e.b[offExt:offExt+extLen]), " ")
}

// Status reports whether the entry was never used, deleted or is in use.
func (e Entry) Status() Status {
	switch e.b[offName] {
	case charNeverUsed:
		return NeverUsed
	case charDeleted:
		return Deleted
	default:
		return Active
	}
}

// Attributes returns the attribute byte.
func (e Entry) Attributes() Attr {
	return Attr(e.b[offAttributes])
}

// IsDir reports whether the entry describes a subdirectory.
func (e Entry) IsDir() bool {
	return e.Attributes()&AttrDirectory != 0
}

// Time returns the hour, minute and second of the last write.
func (e Entry) Time() (hour, minute, second int) {
	t := bitops.GetLE16(e.b[offTime:])
	hour = int((t & timeHourMask) >> timeHourShift)
	minute = int((t & timeMinuteMask) >> timeMinuteShift)
	second = int((t & timeSecondMask) >> timeSecondShift)
	return hour, minute, second
}

// Date returns the year, month and day of the last write.
func (e Entry) Date() (year, month, day int) {
	d := bitops.GetLE16(e.b[offDate:])
	year = int((d&dateYearMask)>>dateYearShift) + YearBase
	month = int((d & dateMonthMask) >> dateMonthShift)
	day = int((d & dateDayMask) >> dateDayShift)
	return year, month, day
}

// StartCluster returns the first cluster of the entry's chain.
func (e Entry) StartCluster() uint32 {
	return uint32(bitops.GetLE16(e.b[offCluster:]))
}

// Length returns the file length in bytes.
func (e Entry) Length() uint32 {
	return bitops.GetLE32(e.b[offSize:])
}

func pad(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// Rename sets the name and extension, truncated or blank padded to 8 and 3 bytes.
func (e Entry) Rename(name, ext string) {
	copy(e.b[offName:], pad(name, nameLen))
	copy(e.b[offExt:], pad(ext, extLen))
}

// SetTime stores the time of the last write.  Each field is masked to its width.
func (e Entry) SetTime(hour, minute, second int) {
	var t uint16
	t |= (uint16(hour) << timeHourShift) & timeHourMask
	t |= (uint16(minute) << timeMinuteShift) & timeMinuteMask
	t |= (uint16(second) << timeSecondShift) & timeSecondMask
	bitops.PutLE16(e.b[offTime:], t)
}

// SetDate stores the date of the last write.  Each field is masked to its width; the year is
// stored relative to 1980.
func (e Entry) SetDate(year, month, day int) {
	var d uint16
	d |= (uint16(year-YearBase) << dateYearShift) & dateYearMask
	d |= (uint16(month) << dateMonthShift) & dateMonthMask
	d |= (uint16(day) << dateDayShift) & dateDayMask
	bitops.PutLE16(e.b[offDate:], d)
}

// ToggleAttribute flips the attribute bits in a.
func (e Entry) ToggleAttribute(a Attr) {
	e.b[offAttributes] ^= byte(a)
}

// ToggleAttributes flips the attribute named by each letter of flags (see FlagLetters).  Nothing
// is changed if any letter is unknown.
func (e Entry) ToggleAttributes(flags string) error {
	var mask Attr
	for _, r := range flags {
		a, err := AttrByLetter(r)
		if err != nil {
			return err
		}
		mask ^= a
	}
	e.ToggleAttribute(mask)
	return nil
}

// MarkDeleted marks the entry as deleted.  The rest of the name is kept so the entry can be
// recovered by renaming it.
func (e Entry) MarkDeleted() {
	e.b[offName] = charDeleted
}

// SetLength sets the file length.
func (e Entry) SetLength(length uint32) {
	bitops.PutLE32(e.b[offSize:], length)
}

// LinkStartCluster attaches the entry to the chain starting at cluster.  Clusters that do not fit
// the 16-bit field are refused with fs.ErrValueOutOfRange and the entry is left unchanged.
//
// This is destructive: the chain previously referenced by the entry is orphaned, and the new
// chain may already belong to another entry.
func (e Entry) LinkStartCluster(cluster uint32) error {
	if cluster > maxStartCluster {
		return errors.Wrapf(fs.ErrValueOutOfRange, "start cluster %#x does not fit in 16 bits", cluster)
	}
	bitops.PutLE16(e.b[offCluster:], uint16(cluster))
	return nil
}
