// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bootrecord resolves the geometry of a FAT12/FAT16 volume from its boot sector.
package bootrecord

import (
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/fs"
)

const (
	// NumReservedClusters describes how many cluster numbers are reserved (FAT[0] and FAT[1]).
	NumReservedClusters uint32 = 2

	// BootrecordSize is the number of bytes read to resolve a boot sector.
	BootrecordSize = 512

	// MaxSectorSize and MinSectorSize bound the sector sizes the editor handles.
	MaxSectorSize = 1024
	MinSectorSize = 128

	bootSig = 0xAA55
)

// Byte offsets of the boot sector fields.
const (
	offJmpBoot           = 0
	offOEMName           = 3
	offBytesPerSec       = 11
	offSectorsPerCluster = 13
	offReservedSectors   = 14
	offNumFATs           = 16
	offRootEntries       = 17
	offTotalSectors16    = 19
	offMedia             = 21
	offSectorsPerFAT     = 22
	offSectorsPerTrack   = 24
	offNumHeads          = 26
	offHiddenSectors     = 28
	offTotalSectors32    = 32
	offBootSig           = 510

	oemNameLen = 8

	// Every field up to and including the hidden sector count must be present.
	minBootSectorLen = offHiddenSectors + 2
)

// FATType describes the width of the entries of the File Allocation Table.
type FATType int

// Identify the type of filesystem described by this boot record.
const (
	FATInvalid FATType = 0
	FAT12      FATType = 12
	FAT16      FATType = 16
)

func (t FATType) String() string {
	switch t {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	default:
		return "invalid FAT"
	}
}

// Geometry describes the layout of a volume.  It is immutable once resolved.
//
// Sector numbers are logical: sector 0 holds the boot sector.
type Geometry struct {
	oemName           string
	bytesPerSector    uint32
	sectorsPerCluster uint32
	reservedSectors   uint32
	numFATs           uint32
	rootEntries       uint32
	totalSectors      uint32
	media             uint8
	sectorsPerFAT     uint32
	sectorsPerTrack   uint32
	numHeads          uint32
	hiddenSectors     uint32

	// Derived values.
	dirSectors   uint32
	fatSectors   uint32
	dataOffset   uint32
	clusterCount uint32
	width        FATType
}

// Resolver turns boot sectors into Geometry values.  The zero Resolver uses the legacy rules:
// SectorThresholdPolicy for the FAT width and DirSectorsLegacy for the root directory size.
type Resolver struct {
	Policy  WidthPolicy
	DirMode DirSectorMode
}

// Resolve parses buf with the default Resolver.
func Resolve(buf []byte) (*Geometry, error) {
	return Resolver{}.Resolve(buf)
}

func unreadable(format string, args ...interface{}) error {
	return errors.Wrapf(fs.ErrBootSectorUnreadable, format, args...)
}

// Resolve decodes the boot sector in buf and derives the volume layout.  On failure no Geometry
// is returned and the error's cause is fs.ErrBootSectorUnreadable or fs.ErrUnsupportedFatWidth.
func (r Resolver) Resolve(buf []byte) (*Geometry, error) {
	glog.V(1).Info("Resolving boot sector")
	if len(buf) < minBootSectorLen {
		return nil, unreadable("boot sector holds %d bytes, need at least %d", len(buf), minBootSectorLen)
	}
	checkBootCode(buf)

	g := &Geometry{
		oemName:           strings.TrimRight(string(buf[offOEMName:offOEMName+oemNameLen]), "\x00"),
		bytesPerSector:    uint32(bitops.GetLE16(buf[offBytesPerSec:])),
		sectorsPerCluster: uint32(buf[offSectorsPerCluster]),
		reservedSectors:   uint32(bitops.GetLE16(buf[offReservedSectors:])),
		numFATs:           uint32(buf[offNumFATs]),
		rootEntries:       uint32(bitops.GetLE16(buf[offRootEntries:])),
		totalSectors:      uint32(bitops.GetLE16(buf[offTotalSectors16:])),
		media:             buf[offMedia],
		sectorsPerFAT:     uint32(bitops.GetLE16(buf[offSectorsPerFAT:])),
		sectorsPerTrack:   uint32(bitops.GetLE16(buf[offSectorsPerTrack:])),
		numHeads:          uint32(bitops.GetLE16(buf[offNumHeads:])),
		hiddenSectors:     uint32(bitops.GetLE16(buf[offHiddenSectors:])),
	}
	if g.totalSectors == 0 {
		if ts, ok := bitops.Field32(buf, offTotalSectors32); ok {
			g.totalSectors = ts
		}
	}

	if g.bytesPerSector == 0 {
		return nil, unreadable("Bytes/Sector is zero")
	} else if g.sectorsPerCluster == 0 {
		return nil, unreadable("Sectors/Cluster is zero")
	}

	g.dirSectors = r.DirMode.dirSectors(g.rootEntries, g.bytesPerSector)
	g.fatSectors = g.numFATs * g.sectorsPerFAT
	g.dataOffset = g.dirSectors + g.fatSectors + g.reservedSectors
	if g.dataOffset == 0 {
		return nil, unreadable("data area offset is zero")
	} else if g.totalSectors < g.dataOffset {
		return nil, unreadable("data area starts at sector %d, past the %d sectors of the volume", g.dataOffset, g.totalSectors)
	}
	g.clusterCount, _ = g.SectorToCluster(g.totalSectors)

	policy := r.Policy
	if policy == nil {
		policy = SectorThresholdPolicy{}
	}
	g.width = policy.Width(g)
	if g.width != FAT12 && g.width != FAT16 {
		return nil, errors.Wrapf(fs.ErrUnsupportedFatWidth, "%s selected %d-bit entries", policy, g.width)
	}

	if glog.V(1) {
		glog.Infof("Resolved %s volume: %d sectors, data area at sector %d, %#x clusters\n",
			g.width, g.totalSectors, g.dataOffset, g.clusterCount)
	}
	return g, nil
}

// checkBootCode warns about a missing jump instruction or boot signature.  Damaged volumes are
// still resolved so that they can be repaired.
func checkBootCode(buf []byte) {
	jmp := buf[offJmpBoot : offJmpBoot+3]
	if jmp[0] != 0xE9 && !(jmp[0] == 0xEB && jmp[2] == 0x90) {
		glog.Warningf("Invalid jmpBoot instruction % x", jmp)
	}
	if sig, ok := bitops.Field16(buf, offBootSig); ok && sig != bootSig {
		glog.Warningf("Expected boot signature: %x, but got %x", bootSig, sig)
	}
}

// Resolved reports whether g describes a usable layout.  A nil Geometry is unresolved.
func (g *Geometry) Resolved() bool {
	return g != nil && g.dataOffset > 0
}

// OEMName returns the name of the system which formatted the volume.
func (g *Geometry) OEMName() string { return g.oemName }

// BytesPerSector returns the logical sector size.
func (g *Geometry) BytesPerSector() uint32 { return g.bytesPerSector }

// SectorsPerCluster returns the number of sectors in one cluster.
func (g *Geometry) SectorsPerCluster() uint32 { return g.sectorsPerCluster }

// ReservedSectors returns the number of sectors before the first FAT.
func (g *Geometry) ReservedSectors() uint32 { return g.reservedSectors }

// NumFATs returns the number of FAT copies.
func (g *Geometry) NumFATs() uint32 { return g.numFATs }

// RootEntries returns the number of entries of the root directory.
func (g *Geometry) RootEntries() uint32 { return g.rootEntries }

// TotalSectors returns the number of sectors of the volume.
func (g *Geometry) TotalSectors() uint32 { return g.totalSectors }

// Media returns the media descriptor byte.
func (g *Geometry) Media() uint8 { return g.media }

// SectorsPerFAT returns the size of one FAT copy in sectors.
func (g *Geometry) SectorsPerFAT() uint32 { return g.sectorsPerFAT }

// SectorsPerTrack returns the number of sectors per track.
func (g *Geometry) SectorsPerTrack() uint32 { return g.sectorsPerTrack }

// NumHeads returns the number of heads.
func (g *Geometry) NumHeads() uint32 { return g.numHeads }

// HiddenSectors returns the number of sectors preceding the volume.
func (g *Geometry) HiddenSectors() uint32 { return g.hiddenSectors }

// DirSectors returns the size of the root directory in sectors.
func (g *Geometry) DirSectors() uint32 { return g.dirSectors }

// FATSectors returns the size of all FAT copies together in sectors.
func (g *Geometry) FATSectors() uint32 { return g.fatSectors }

// DataOffset returns the first sector of the data area.
func (g *Geometry) DataOffset() uint32 { return g.dataOffset }

// ClusterCount returns the cluster number one past the last cluster of the volume.
func (g *Geometry) ClusterCount() uint32 { return g.clusterCount }

// Width returns the FAT entry width.
func (g *Geometry) Width() FATType { return g.width }

// ClusterSize returns the size of a cluster in bytes.
func (g *Geometry) ClusterSize() uint32 {
	return g.sectorsPerCluster * g.bytesPerSector
}

// FATLength returns the size of one FAT copy in bytes.
func (g *Geometry) FATLength() int {
	return int(g.sectorsPerFAT) * int(g.bytesPerSector)
}

// DirStartSector returns the first sector of the root directory.
func (g *Geometry) DirStartSector() uint32 {
	return g.dataOffset - g.dirSectors
}

// VolumeSize returns the size of all sectors allocated to the volume.
func (g *Geometry) VolumeSize() int64 {
	return int64(g.totalSectors) * int64(g.bytesPerSector)
}
