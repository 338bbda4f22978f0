// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package file implements the block.Device interface backed by a disk image or a device node.
package file

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"go.uber.org/multierr"
)

const (
	// DefaultBlockSize is the block size used for regular image files.
	DefaultBlockSize int64 = 512
)

// File represents a block device backed by a file on a traditional file system or by a block
// device node.
type File struct {
	f         *os.File
	name      string
	size      int64
	blocksize int64
}

// New creates and returns a new File, using f as the backing store.  The size of the
// block device represented by the returned File will be the size of f, or the size reported by
// the kernel when f is a block device node.  New will not close f if any errors occur.
func New(f *os.File, blockSize int64) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, &os.PathError{
			Op:   "New",
			Path: f.Name(),
			Err:  err,
		}
	}
	if blockSize <= 0 {
		return nil, &os.PathError{
			Op:   "New",
			Path: f.Name(),
			Err:  fmt.Errorf("invalid block size %v", blockSize),
		}
	}

	size := info.Size()
	if info.Mode()&os.ModeDevice != 0 {
		if size, err = ioctlBlockGetSize(f.Fd()); err != nil {
			return nil, &os.PathError{Op: "New", Path: f.Name(), Err: err}
		}
		if ss, err := ioctlBlockGetSectorSize(f.Fd()); err == nil && ss > blockSize {
			blockSize = ss
		}
	}

	if glog.V(2) {
		glog.Info("File name: ", info.Name())
		glog.Info("     size: ", size)
		glog.Info("     mode: ", info.Mode())
		glog.Info("    block: ", blockSize)
	}

	return &File{f: f, name: f.Name(), size: size, blocksize: blockSize}, nil
}

// Open opens the image or device at path and wraps it in a File.  The file is opened read-only
// when readonly is true, in which case WriteAt fails.
func Open(path string, readonly bool, blockSize int64) (*File, error) {
	flag := os.O_RDWR
	if readonly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	file, err := New(f, blockSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	return file, nil
}

// BlockSize returns the size in bytes of the smallest block that can be written by the File.
// The return value is undefined after Close() is called.
func (f *File) BlockSize() int64 {
	return f.blocksize
}

// Size returns the fixed size of the File in bytes.  The return value is undefined after Close()
// is called.
func (f *File) Size() int64 {
	return f.size
}

// Path returns the name the File was opened with.
func (f *File) Path() string {
	return f.name
}

func (f *File) check(p []byte, off int64, op string) error {
	if off%f.blocksize != 0 {
		return &os.PathError{
			Op:   op,
			Path: f.name,
			Err:  fmt.Errorf("off (%v) is not a multiple of blocksize", off),
		}
	}

	if int64(len(p))%f.blocksize != 0 {
		return &os.PathError{
			Op:   op,
			Path: f.name,
			Err:  fmt.Errorf("len(p) (%v) is not a multiple of blocksize", len(p)),
		}
	}

	if off < 0 || off+int64(len(p)) > f.size {
		return &os.PathError{
			Op:   op,
			Path: f.name,
			Err:  fmt.Errorf("the requested range [%v, %v) is out of bounds", off, off+int64(len(p))),
		}
	}

	return nil
}

// ReadAt reads len(p) bytes from the device starting at offset off.  Both off and len(p) must
// be multiples of BlockSize().  It returns the number of bytes read and the error, if any.
// ReadAt always returns a non-nil error when n < len(p).
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if err := f.check(p, off, "ReadAt"); err != nil {
		return 0, err
	}

	if glog.V(2) {
		glog.Infof("ReadAt: reading %v bytes from offset %#x\n", len(p), off)
	}

	return f.f.ReadAt(p, off)
}

// WriteAt writes the contents of p to the devices starting at offset off.  Both off and len(p) must
// be multiples of BlockSize().  It returns the number of bytes written and an error, if any.
// WriteAt always returns a non-nil error when n < len(p).
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if err := f.check(p, off, "WriteAt"); err != nil {
		return 0, err
	}

	if glog.V(2) {
		glog.Infof("WriteAt: writing %v bytes to address %#x\n", len(p), off)
	}

	return f.f.WriteAt(p, off)
}

// Flush forces any writes that have been cached in memory to be committed to persistent storage.
// Returns an error, if any.
func (f *File) Flush() error {
	return f.f.Sync()
}

// Close calls Flush() and then closes the device, rendering it unusable for I/O.  The file is
// closed even if Flush fails; both errors are returned.
func (f *File) Close() error {
	return multierr.Combine(f.Flush(), f.f.Close())
}
