// Copyright 2021 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fs holds the error values shared by the msdosfs metadata editor.
//
// Errors returned by the packages under lib/ are either one of these values or wrap one of them
// with github.com/pkg/errors. Use errors.Cause to recover the value.
package fs

import "errors"

var (
	// ErrIO indicates the block device failed to read or write.
	ErrIO = errors.New("I/O error on block device")

	// ErrBootSectorUnreadable indicates the boot sector could not be read or does not describe
	// a usable layout.
	ErrBootSectorUnreadable = errors.New("Can't read bootsector")

	// ErrGeometryUnresolved indicates an operation needed a resolved volume geometry.
	ErrGeometryUnresolved = errors.New("You must first log onto a disk")

	// ErrUnsupportedFatWidth indicates the volume uses a FAT width other than 12 or 16 bits.
	ErrUnsupportedFatWidth = errors.New("Only 12- and 16-bit FATs are supported")

	// ErrIndexOutOfRange indicates a FAT or directory index lies outside its table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrValueOutOfRange indicates a FAT entry value was rejected.
	ErrValueOutOfRange = errors.New("Wrong FAT entry value - not accepted")

	// ErrChainLoop indicates a cluster chain is longer than the number of clusters on the volume.
	ErrChainLoop = errors.New("FAT loop error")

	// ErrInvalidFatNumber indicates a FAT copy number outside the volume's FAT count.
	ErrInvalidFatNumber = errors.New("Can't copy to FAT")

	// ErrInvalidDriveLetter indicates a drive letter outside the configured range.
	ErrInvalidDriveLetter = errors.New("invalid drive letter")

	// ErrInvalidAttribute indicates an unknown attribute flag letter.
	ErrInvalidAttribute = errors.New("invalid attribute flag")

	// ErrReadOnly indicates a write was attempted in read-only mode.
	ErrReadOnly = errors.New("Read-only mode - You can't destroy the disk media structure")

	// ErrNotLoggedIn indicates the session has no volume loaded.
	ErrNotLoggedIn = ErrGeometryUnresolved
)
