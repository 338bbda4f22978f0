// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fat

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"fuchsia.googlesource.com/fatedit/lib/fs"
)

// CopyFAT copies FAT copy src over FAT copy dst.  Copy 0 is the working table and is never a
// destination.
func (t *Table) CopyFAT(src, dst int) error {
	n := t.NumSlots()
	switch {
	case dst < 1 || dst >= n:
		return errors.Wrapf(fs.ErrInvalidFatNumber, "%d (valid: 1 to %d)", dst, n-1)
	case src < 0 || src >= n:
		return errors.Wrapf(fs.ErrInvalidFatNumber, "source %d of %d", src, n)
	case src == dst:
		return errors.Wrapf(fs.ErrInvalidFatNumber, "%d onto itself", dst)
	}

	from, _ := t.Slot(src)
	to, _ := t.Slot(dst)
	copy(to, from)
	glog.V(1).Infof("Copied FAT %d to FAT %d", src, dst)
	return nil
}

// Mirror copies the working table over every other FAT copy.
func (t *Table) Mirror() error {
	var err error
	for dst := 1; dst < t.NumSlots(); dst++ {
		err = multierr.Append(err, t.CopyFAT(0, dst))
	}
	return err
}

// Compare returns the entry indices at which FAT copies a and b differ.
func (t *Table) Compare(a, b int) ([]uint32, error) {
	sa, err := t.Slot(a)
	if err != nil {
		return nil, err
	}
	sb, err := t.Slot(b)
	if err != nil {
		return nil, err
	}

	var diff []uint32
	for i := uint32(0); i < t.NumEntries(); i++ {
		va, erra := GetEntry(sa, t.Width(), i)
		vb, errb := GetEntry(sb, t.Width(), i)
		if erra != nil || errb != nil {
			break
		}
		if va != vb {
			diff = append(diff, i)
		}
	}
	return diff, nil
}
