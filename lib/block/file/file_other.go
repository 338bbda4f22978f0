// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// +build !linux

package file

import "golang.org/x/sys/unix"

func ioctlBlockGetSize(fd uintptr) (int64, error) {
	return 0, unix.EOPNOTSUPP
}

func ioctlBlockGetSectorSize(fd uintptr) (int64, error) {
	return 0, unix.EOPNOTSUPP
}
