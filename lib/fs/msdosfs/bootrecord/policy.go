// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bootrecord

import "fmt"

// LegacySectorThreshold is the total sector count from which the legacy rule selects 16-bit FAT
// entries.
const LegacySectorThreshold = 20740

// Canonical data cluster counts separating the FAT widths.
const (
	maxClustersFAT12 = 4085
	maxClustersFAT16 = 65525
)

// WidthPolicy selects the FAT entry width of a volume whose layout has been derived.
type WidthPolicy interface {
	Width(g *Geometry) FATType
	String() string
}

// SectorThresholdPolicy selects 16-bit entries when the volume has at least Threshold sectors.
// A zero Threshold means LegacySectorThreshold.
//
// This is the rule the DOS editor used.  It looks at the sector count instead of the cluster
// count and misjudges volumes with large clusters.
type SectorThresholdPolicy struct {
	Threshold uint32
}

// Width implements WidthPolicy.
func (p SectorThresholdPolicy) Width(g *Geometry) FATType {
	threshold := p.Threshold
	if threshold == 0 {
		threshold = LegacySectorThreshold
	}
	if g.totalSectors >= threshold {
		return FAT16
	}
	return FAT12
}

func (p SectorThresholdPolicy) String() string {
	return "sector-threshold"
}

// ClusterCountPolicy selects the width from the number of data clusters, following the
// boundaries Microsoft documents for FAT volumes.  Volumes too large for 16-bit entries get FATInvalid.
type ClusterCountPolicy struct{}

// Width implements WidthPolicy.
func (ClusterCountPolicy) Width(g *Geometry) FATType {
	data := g.clusterCount - NumReservedClusters
	switch {
	case data < maxClustersFAT12:
		return FAT12
	case data < maxClustersFAT16:
		return FAT16
	default:
		return FATInvalid
	}
}

func (ClusterCountPolicy) String() string {
	return "cluster-count"
}

// PolicyByName returns the WidthPolicy called name.  The empty name selects the legacy rule.
func PolicyByName(name string) (WidthPolicy, error) {
	switch name {
	case "", "sector-threshold", "legacy":
		return SectorThresholdPolicy{}, nil
	case "cluster-count":
		return ClusterCountPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown FAT width policy %q", name)
	}
}

// DirSectorMode selects how the size of the root directory is computed.
type DirSectorMode int

const (
	// DirSectorsLegacy computes (entries << 5) >> 9, assuming 512-byte sectors whatever the boot
	// sector says.
	DirSectorsLegacy DirSectorMode = iota

	// DirSectorsBytesPerSector divides the directory size by the parsed sector size, rounding up.
	DirSectorsBytesPerSector
)

func (m DirSectorMode) dirSectors(entries, bytesPerSector uint32) uint32 {
	switch m {
	case DirSectorsBytesPerSector:
		return (entries*32 + bytesPerSector - 1) / bytesPerSector
	default:
		return (entries << 5) >> 9
	}
}

func (m DirSectorMode) String() string {
	switch m {
	case DirSectorsBytesPerSector:
		return "bytes-per-sector"
	default:
		return "legacy"
	}
}

// DirSectorModeByName parses the names returned by DirSectorMode.String.  The empty name
// selects DirSectorsLegacy.
func DirSectorModeByName(name string) (DirSectorMode, error) {
	switch name {
	case "", "legacy":
		return DirSectorsLegacy, nil
	case "bytes-per-sector":
		return DirSectorsBytesPerSector, nil
	default:
		return 0, fmt.Errorf("unknown directory sector mode %q", name)
	}
}
