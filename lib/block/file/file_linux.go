// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package file

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctlBlockGetSize(fd uintptr) (int64, error) {
	var size uint64

	if _, _, err := unix.Syscall(unix.SYS_IOCTL, fd, unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); err != 0 {
		return 0, err
	}

	return int64(size), nil
}

func ioctlBlockGetSectorSize(fd uintptr) (int64, error) {
	sectorSize, err := unix.IoctlGetInt(int(fd), unix.BLKSSZGET)
	if err != nil {
		return 0, err
	}

	return int64(sectorSize), nil
}
