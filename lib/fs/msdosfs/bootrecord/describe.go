// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bootrecord

import "fmt"

// Field is one labelled line of the boot information display.
type Field struct {
	Label string
	Value string
}

// Describe returns the boot sector fields in display order.  Entry, sector and cluster counts are
// hex with a "$" prefix.
func (g *Geometry) Describe() []Field {
	return []Field{
		{"OEM name and -version", g.oemName},
		{"bytes per sector", fmt.Sprintf("%d", g.bytesPerSector)},
		{"sectors per cluster", fmt.Sprintf("%d", g.sectorsPerCluster)},
		{"reserved sectors", fmt.Sprintf("%d", g.reservedSectors)},
		{"number of FATs", fmt.Sprintf("%d", g.numFATs)},
		{"number of directory entries in the main directory", fmt.Sprintf("$%x", g.rootEntries)},
		{"number of sectors on the disk", fmt.Sprintf("$%x", g.totalSectors)},
		{"number of clusters on the disk", fmt.Sprintf("$%x", g.clusterCount)},
		{"media-flag", fmt.Sprintf("%x", g.media)},
		{"sectors per FAT", fmt.Sprintf("%d", g.sectorsPerFAT)},
		{"sectors per track", fmt.Sprintf("%d", g.sectorsPerTrack)},
		{"number of heads", fmt.Sprintf("%d", g.numHeads)},
		{"number of hidden sectors", fmt.Sprintf("%d", g.hiddenSectors)},
	}
}
