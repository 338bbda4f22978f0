// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bitops provides little-endian accessors over byte arenas.
//
// Every on-disk structure of a FAT volume is little endian. The accessors here never reinterpret
// memory; they read and write explicit byte offsets and panic on short slices, the same way slice
// indexing does.
package bitops

// GetLE16 returns the little-endian uint16 stored in the first two bytes of buf.
func GetLE16(buf []byte) uint16 {
	_ = buf[1]
	return uint16(buf[0]) | uint16(buf[1])<<8
}

// PutLE16 stores v in the first two bytes of buf.
func PutLE16(buf []byte, v uint16) {
	_ = buf[1]
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

// GetLE32 returns the little-endian uint32 stored in the first four bytes of buf.
func GetLE32(buf []byte) uint32 {
	_ = buf[3]
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

// PutLE32 stores v in the first four bytes of buf.
func PutLE32(buf []byte, v uint32) {
	_ = buf[3]
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

// Field16 reads the uint16 at byte offset off of buf. It returns false if the field does not fit.
func Field16(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return GetLE16(buf[off:]), true
}

// Field32 reads the uint32 at byte offset off of buf. It returns false if the field does not fit.
func Field32(buf []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return GetLE32(buf[off:]), true
}

// Mask returns a mask with the low n bits set.
func Mask(n uint) uint32 {
	return (1 << n) - 1
}
