// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
)

// Cursor holds the selected FAT entry and directory entry of a Session, along with a saved FAT
// entry index and a saved FAT entry value.  It is reset by Login and Logout.
type Cursor struct {
	s *Session

	fatEntry   uint32
	dirEntry   int
	savedEntry uint32
	savedValue uint32
}

func (c *Cursor) reset() {
	c.fatEntry, c.dirEntry, c.savedEntry, c.savedValue = 0, 0, 0, 0
}

func (c *Cursor) table() (*fat.Table, error) {
	return c.s.FAT()
}

// FATEntry returns the selected FAT entry.
func (c *Cursor) FATEntry() uint32 {
	return c.fatEntry
}

// DirEntry returns the selected directory entry.
func (c *Cursor) DirEntry() int {
	return c.dirEntry
}

// Saved returns the saved FAT entry index and value.
func (c *Cursor) Saved() (entry, value uint32) {
	return c.savedEntry, c.savedValue
}

// SelectFATEntry selects FAT entry i.
func (c *Cursor) SelectFATEntry(i uint32) error {
	t, err := c.table()
	if err != nil {
		return err
	}
	if i >= t.ClusterCount() {
		return errors.Wrapf(fs.ErrIndexOutOfRange, "FAT entry %#x (valid: 0 to %#x)", i, t.ClusterCount()-1)
	}
	c.fatEntry = i
	return nil
}

// SelectDirEntry selects directory entry i.
func (c *Cursor) SelectDirEntry(i int) error {
	d, err := c.s.Dir()
	if err != nil {
		return err
	}
	if i < 0 || i >= d.Len() {
		return errors.Wrapf(fs.ErrIndexOutOfRange, "directory entry %#x (valid: 0 to %#x)", i, d.Len()-1)
	}
	c.dirEntry = i
	return nil
}

// NextFATEntry selects the following FAT entry.
func (c *Cursor) NextFATEntry() error {
	return c.SelectFATEntry(c.fatEntry + 1)
}

// PrevFATEntry selects the preceding FAT entry.
func (c *Cursor) PrevFATEntry() error {
	if c.fatEntry == 0 {
		return errors.Wrap(fs.ErrIndexOutOfRange, "no FAT entry before 0")
	}
	return c.SelectFATEntry(c.fatEntry - 1)
}

// NextDirEntry selects the following directory entry.
func (c *Cursor) NextDirEntry() error {
	return c.SelectDirEntry(c.dirEntry + 1)
}

// PrevDirEntry selects the preceding directory entry.
func (c *Cursor) PrevDirEntry() error {
	return c.SelectDirEntry(c.dirEntry - 1)
}

// Value returns the value of the selected FAT entry.
func (c *Cursor) Value() (uint32, error) {
	t, err := c.table()
	if err != nil {
		return 0, err
	}
	return t.Get(c.fatEntry)
}

// SetValue stores v in the selected FAT entry.
func (c *Cursor) SetValue(v uint32) error {
	t, err := c.table()
	if err != nil {
		return err
	}
	return t.Put(c.fatEntry, v)
}

// SaveEntry remembers the index of the selected FAT entry.
func (c *Cursor) SaveEntry() error {
	if _, err := c.table(); err != nil {
		return err
	}
	c.savedEntry = c.fatEntry
	return nil
}

// SaveValue remembers the value of the selected FAT entry.
func (c *Cursor) SaveValue() error {
	v, err := c.Value()
	if err != nil {
		return err
	}
	c.savedValue = v
	return nil
}

// CopySavedEntry links the selected FAT entry to the saved entry index.
func (c *Cursor) CopySavedEntry() error {
	return c.SetValue(c.savedEntry)
}

// RestoreValue stores the saved value in the selected FAT entry.
func (c *Cursor) RestoreValue() error {
	return c.SetValue(c.savedValue)
}

// Follow selects the cluster the selected FAT entry links to.  It reports false, and keeps the
// selection, if the entry is free, reserved, bad or the end of a chain.
func (c *Cursor) Follow() (bool, error) {
	t, err := c.table()
	if err != nil {
		return false, err
	}
	v, err := t.Get(c.fatEntry)
	if err != nil {
		return false, err
	}
	if fat.Classify(t.Width(), v).Kind != fat.Next {
		return false, nil
	}
	if err := c.SelectFATEntry(v); err != nil {
		return false, err
	}
	return true, nil
}

// GotoStartCluster selects the first cluster of the selected directory entry.
func (c *Cursor) GotoStartCluster() error {
	e, err := c.s.Entry(c.dirEntry)
	if err != nil {
		return err
	}
	return c.SelectFATEntry(e.StartCluster())
}

// LinkDirEntry makes the selected FAT entry the start cluster of the selected directory entry.
// See Session.LinkEntry.
func (c *Cursor) LinkDirEntry() error {
	return c.s.LinkEntry(c.dirEntry, c.fatEntry)
}
