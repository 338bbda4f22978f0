// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package image synthesizes FAT12 and FAT16 volumes.  mkfatimg writes them out, and the tests of
// the msdosfs packages build their fixtures with it.
//
// The package only manipulates bytes, so that the packages it helps test can use it without
// import cycles.
package image

import (
	"fmt"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/block/fake"
)

// Params describes the boot sector of a synthesized volume.
type Params struct {
	OEMName           string
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntries       uint16
	TotalSectors      uint32 // Stored in the 32-bit field when it does not fit in 16 bits.
	Media             uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint16

	// Width is 12 or 16.  Zero selects 16 for volumes of at least 20740 sectors.
	Width int
	// ExactDirSectors sizes the root directory with the parsed sector size instead of assuming
	// 512-byte sectors.
	ExactDirSectors bool
}

// Floppy720K describes a 720 KiB double density diskette.
func Floppy720K() Params {
	return Params{
		OEMName:           "MSDOS3.3",
		BytesPerSector:    512,
		SectorsPerCluster: 2,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntries:       112,
		TotalSectors:      1440,
		Media:             0xF9,
		SectorsPerFAT:     3,
		SectorsPerTrack:   9,
		NumHeads:          2,
	}
}

// Floppy144M describes a 1.44 MiB high density diskette.
func Floppy144M() Params {
	return Params{
		OEMName:           "MSDOS5.0",
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntries:       224,
		TotalSectors:      2880,
		Media:             0xF0,
		SectorsPerFAT:     9,
		SectorsPerTrack:   18,
		NumHeads:          2,
	}
}

// HardDisk16M describes a 16 MiB FAT16 partition.
func HardDisk16M() Params {
	return Params{
		OEMName:           "MSDOS5.0",
		BytesPerSector:    512,
		SectorsPerCluster: 4,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntries:       512,
		TotalSectors:      32768,
		Media:             0xF8,
		SectorsPerFAT:     32,
		SectorsPerTrack:   32,
		NumHeads:          2,
		HiddenSectors:     32,
	}
}

func (p Params) width() int {
	if p.Width != 0 {
		return p.Width
	}
	if p.TotalSectors >= 20740 {
		return 16
	}
	return 12
}

// DirSectors returns the size of the root directory in sectors.
func (p Params) DirSectors() int {
	if p.ExactDirSectors {
		bps := int(p.BytesPerSector)
		return (int(p.RootEntries)*32 + bps - 1) / bps
	}
	return (int(p.RootEntries) << 5) >> 9
}

// DataOffset returns the first sector of the data area.
func (p Params) DataOffset() int {
	return int(p.ReservedSectors) + int(p.NumFATs)*int(p.SectorsPerFAT) + p.DirSectors()
}

// ClusterCount returns the cluster number one past the last cluster.
func (p Params) ClusterCount() int {
	return (int(p.TotalSectors)-p.DataOffset())/int(p.SectorsPerCluster) + 2
}

// BootSector returns the boot sector described by p.
func BootSector(p Params) []byte {
	size := int(p.BytesPerSector)
	if size < 512 {
		size = 512
	}
	b := make([]byte, size)
	b[0], b[1], b[2] = 0xEB, 0x3C, 0x90
	oem := fmt.Sprintf("%-8s", p.OEMName)
	copy(b[3:11], oem)
	bitops.PutLE16(b[11:], p.BytesPerSector)
	b[13] = p.SectorsPerCluster
	bitops.PutLE16(b[14:], p.ReservedSectors)
	b[16] = p.NumFATs
	bitops.PutLE16(b[17:], p.RootEntries)
	if p.TotalSectors < 0x10000 {
		bitops.PutLE16(b[19:], uint16(p.TotalSectors))
	} else {
		bitops.PutLE32(b[32:], p.TotalSectors)
	}
	b[21] = p.Media
	bitops.PutLE16(b[22:], p.SectorsPerFAT)
	bitops.PutLE16(b[24:], p.SectorsPerTrack)
	bitops.PutLE16(b[26:], p.NumHeads)
	bitops.PutLE16(b[28:], p.HiddenSectors)
	b[510], b[511] = 0x55, 0xAA
	return b
}

// Image is a synthesized volume.
type Image struct {
	Params
	Data []byte
}

// NewImage formats a blank volume: a boot sector, FATs whose first two entries hold the media
// descriptor, and an empty root directory.
func NewImage(p Params) *Image {
	im := &Image{
		Params: p,
		Data:   make([]byte, int(p.TotalSectors)*int(p.BytesPerSector)),
	}
	boot := BootSector(p)
	copy(im.Data, boot[:p.BytesPerSector])

	if im.width() == 12 {
		im.SetEntry(0, 0xF00|uint32(p.Media))
		im.SetEntry(1, 0xFFF)
	} else {
		im.SetEntry(0, 0xFF00|uint32(p.Media))
		im.SetEntry(1, 0xFFFF)
	}
	return im
}

func (im *Image) fatOffset(copyIndex int) int {
	return (int(im.ReservedSectors) + copyIndex*int(im.SectorsPerFAT)) * int(im.BytesPerSector)
}

// SetEntry stores value as the FAT entry of cluster in every FAT copy.
func (im *Image) SetEntry(cluster, value uint32) {
	for i := 0; i < int(im.NumFATs); i++ {
		table := im.Data[im.fatOffset(i):im.fatOffset(i+1)]
		if im.width() == 16 {
			bitops.PutLE16(table[2*cluster:], uint16(value))
			continue
		}
		pos := 3 * (cluster / 2)
		if cluster%2 == 0 {
			table[pos] = byte(value)
			table[pos+1] = table[pos+1]&0xF0 | byte(value>>8)&0x0F
		} else {
			table[pos+1] = table[pos+1]&0x0F | byte(value<<4)
			table[pos+2] = byte(value >> 4)
		}
	}
}

// FAT returns the bytes of one FAT copy.
func (im *Image) FAT(copyIndex int) []byte {
	return im.Data[im.fatOffset(copyIndex):im.fatOffset(copyIndex+1)]
}

// RootDir returns the bytes of the root directory.
func (im *Image) RootDir() []byte {
	start := (im.DataOffset() - im.DirSectors()) * int(im.BytesPerSector)
	return im.Data[start : start+im.DirSectors()*int(im.BytesPerSector)]
}

// Cluster returns the bytes of a data cluster.
func (im *Image) Cluster(cluster uint32) []byte {
	size := int(im.SectorsPerCluster) * int(im.BytesPerSector)
	start := (int(cluster)-2)*size + im.DataOffset()*int(im.BytesPerSector)
	return im.Data[start : start+size]
}

// File describes a file stored by AddFile.
type File struct {
	Name, Ext string
	Attr      byte
	Data      []byte
	// Start is the first cluster of a contiguous run holding Data.
	Start uint32
	// Hour, Minute, Second, Year, Month and Day are stored unmodified in the directory entry.  A
	// zero Year leaves the date zero.
	Hour, Minute, Second int
	Year, Month, Day     int
}

// AddFile stores f in the root directory entry slot and chains its clusters in the FATs.  An empty
// file gets start cluster 0 and no chain.
func (im *Image) AddFile(slot int, f File) {
	ent := im.RootDir()[slot*32 : slot*32+32]
	copy(ent[0:8], fmt.Sprintf("%-8s", f.Name))
	copy(ent[8:11], fmt.Sprintf("%-3s", f.Ext))
	ent[11] = f.Attr

	bitops.PutLE16(ent[22:], uint16(f.Hour<<11|f.Minute<<5|f.Second))
	if f.Year != 0 {
		bitops.PutLE16(ent[24:], uint16((f.Year-1980)<<9|f.Month<<5|f.Day))
	}
	bitops.PutLE32(ent[28:], uint32(len(f.Data)))
	if len(f.Data) == 0 {
		return
	}
	bitops.PutLE16(ent[26:], uint16(f.Start))

	eof := uint32(0xFFF)
	if im.width() == 16 {
		eof = 0xFFFF
	}
	size := int(im.SectorsPerCluster) * int(im.BytesPerSector)
	n := (len(f.Data) + size - 1) / size
	for i := 0; i < n; i++ {
		c := f.Start + uint32(i)
		end := (i + 1) * size
		if end > len(f.Data) {
			end = len(f.Data)
		}
		copy(im.Cluster(c), f.Data[i*size:end])
		if i == n-1 {
			im.SetEntry(c, eof)
		} else {
			im.SetEntry(c, c+1)
		}
	}
}

// Device returns a fake.Device holding a copy of the image, padded to whole device blocks.
func (im *Image) Device() fake.Device {
	size := len(im.Data)
	if r := size % 1024; r != 0 {
		size += 1024 - r
	}
	dev := fake.Device(make([]byte, size))
	copy(dev, im.Data)
	return dev
}
