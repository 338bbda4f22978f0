// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package file

import (
	"io/ioutil"
	"math/rand"
	"os"
	"testing"
	"time"

	"fuchsia.googlesource.com/fatedit/lib/block/blocktest"
)

const (
	numBlocks = 2880

	testBlockSize int64 = 512
	fileSize            = numBlocks * testBlockSize
)

func setUp(t *testing.T) (string, []byte, *rand.Rand) {
	seed := time.Now().UTC().UnixNano()
	t.Log("Seed is", seed)
	r := rand.New(rand.NewSource(seed))

	buf := make([]byte, fileSize)
	r.Read(buf)

	tmpFile, err := ioutil.TempFile("", "file_test")
	if err != nil {
		t.Fatal("Error creating temp file: ", err)
	}

	name := tmpFile.Name()

	if _, err := tmpFile.Write(buf); err != nil {
		t.Fatal("Error writing random data to temp file: ", err)
	}

	if err := tmpFile.Close(); err != nil {
		t.Fatal("Error closing temp file: ", err)
	}

	return name, buf, r
}

func openFile(t *testing.T, name string, readonly bool) *File {
	file, err := Open(name, readonly, testBlockSize)
	if err != nil {
		t.Fatal("Error opening File: ", err)
	}
	return file
}

func closeFile(t *testing.T, file *File) {
	if err := file.Close(); err != nil {
		t.Error("Error closing File: ", err)
	}
}

func TestReadAt(t *testing.T) {
	name, buf, r := setUp(t)
	defer os.Remove(name)

	file := openFile(t, name, true)
	defer closeFile(t, file)

	blocktest.ReadAt(t, file, r, buf)
}

func TestWriteAt(t *testing.T) {
	name, buf, r := setUp(t)
	defer os.Remove(name)

	file := openFile(t, name, false)
	defer closeFile(t, file)

	blocktest.WriteAt(t, file, r, buf)
}

func TestErrorPaths(t *testing.T) {
	name, _, _ := setUp(t)
	defer os.Remove(name)

	file := openFile(t, name, false)
	defer closeFile(t, file)

	blocktest.ErrorPaths(t, file)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	name, _, _ := setUp(t)
	defer os.Remove(name)

	file := openFile(t, name, true)
	defer closeFile(t, file)

	if _, err := file.WriteAt(make([]byte, testBlockSize), 0); err == nil {
		t.Fatal("WriteAt succeeded on a file opened read-only")
	}
}

func TestSizeAndPath(t *testing.T) {
	name, _, _ := setUp(t)
	defer os.Remove(name)

	file := openFile(t, name, true)
	defer closeFile(t, file)

	if file.Size() != fileSize {
		t.Errorf("Size() = %v; want %v", file.Size(), fileSize)
	}
	if file.BlockSize() != testBlockSize {
		t.Errorf("BlockSize() = %v; want %v", file.BlockSize(), testBlockSize)
	}
	if file.Path() != name {
		t.Errorf("Path() = %q; want %q", file.Path(), name)
	}
}

func TestInvalidBlockSize(t *testing.T) {
	name, _, _ := setUp(t)
	defer os.Remove(name)

	if _, err := Open(name, true, 0); err == nil {
		t.Fatal("Open accepted a zero block size")
	}
}
