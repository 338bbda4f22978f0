// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package direntry

import (
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

// Table is a view of the root directory region.
type Table struct {
	buf []byte
	n   int
}

// NewTable returns a view of the first entries records of buf.  Fewer entries are visible if buf
// is too short to hold them all.
func NewTable(buf []byte, entries int) *Table {
	if max := len(buf) / DirentrySize; entries > max {
		entries = max
	}
	return &Table{buf: buf, n: entries}
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return t.n
}

// At returns entry i.
func (t *Table) At(i int) (Entry, error) {
	if i < 0 || i >= t.n {
		return Entry{}, errors.Wrapf(fs.ErrIndexOutOfRange, "directory entry %d of %d", i, t.n)
	}
	return View(t.buf[i*DirentrySize : (i+1)*DirentrySize]), nil
}

// Bytes returns the directory region.
func (t *Table) Bytes() []byte {
	return t.buf
}
