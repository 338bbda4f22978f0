// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bootrecord

import (
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

// ClusterToSector returns the first sector of cluster.
func (g *Geometry) ClusterToSector(cluster uint32) (uint32, error) {
	if !g.Resolved() {
		return 0, fs.ErrGeometryUnresolved
	} else if cluster < NumReservedClusters {
		return 0, errors.Wrapf(fs.ErrIndexOutOfRange, "cluster %#x precedes the data area", cluster)
	}
	return (cluster-NumReservedClusters)*g.sectorsPerCluster + g.dataOffset, nil
}

// SectorToCluster returns the cluster holding sector.  Sectors inside a cluster map to that
// cluster.
func (g *Geometry) SectorToCluster(sector uint32) (uint32, error) {
	if !g.Resolved() {
		return 0, fs.ErrGeometryUnresolved
	} else if sector < g.dataOffset {
		return 0, errors.Wrapf(fs.ErrIndexOutOfRange, "sector %#x precedes the data area", sector)
	}
	return (sector-g.dataOffset)/g.sectorsPerCluster + NumReservedClusters, nil
}

// ClusterLocationData returns the byte offset of a cluster's data on the device.
func (g *Geometry) ClusterLocationData(cluster uint32) (int64, error) {
	sector, err := g.ClusterToSector(cluster)
	if err != nil {
		return 0, err
	}
	return int64(sector) * int64(g.bytesPerSector), nil
}
