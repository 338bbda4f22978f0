// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package session loads the metadata of a FAT12/FAT16 volume from a block device, lets callers
// edit it in memory and writes it back.
//
// A Session owns one copy of the boot sector, the FAT region and the root directory.  It is not
// safe for concurrent use; use one Session per goroutine.
package session

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"fuchsia.googlesource.com/fatedit/lib/block"
	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/bootrecord"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/direntry"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/thinio"
)

const (
	// FirstDrive is the lowest drive letter.
	FirstDrive = 'A'
	// DefaultLastDrive is the highest drive letter unless configured otherwise.
	DefaultLastDrive = 'F'
)

// Opener opens the block device behind a drive letter.
type Opener func(drive byte, readOnly bool) (block.Device, error)

// Options configures a Session.
type Options struct {
	// Open is required.
	Open Opener
	// LastDrive is the highest valid drive letter.  Zero means DefaultLastDrive.
	LastDrive byte
	// ReadOnly refuses every Commit.
	ReadOnly bool
	// Resolver derives the geometry from the boot sector.
	Resolver bootrecord.Resolver
}

// Session is the editing state of one drive.
type Session struct {
	opts  Options
	drive byte

	sio    *thinio.SectorIO
	boot   []byte
	geom   *bootrecord.Geometry
	fats   *fat.Table
	dirBuf []byte
	dir    *direntry.Table

	cursor Cursor
}

// New returns a Session with drive A selected and nothing loaded.
func New(opts Options) *Session {
	if opts.LastDrive == 0 {
		opts.LastDrive = DefaultLastDrive
	}
	opts.LastDrive = upper(opts.LastDrive)
	s := &Session{opts: opts, drive: FirstDrive}
	s.cursor.s = s
	return s
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// CheckDrive returns the upper case form of letter, or fs.ErrInvalidDriveLetter if it lies
// outside A to last.
func CheckDrive(letter, last byte) (byte, error) {
	d := upper(letter)
	if d < FirstDrive || d > upper(last) {
		return 0, errors.Wrapf(fs.ErrInvalidDriveLetter, "%q (valid: %c to %c)", letter, FirstDrive, upper(last))
	}
	return d, nil
}

// SelectDrive makes letter the current drive.  Selecting another drive logs out.
func (s *Session) SelectDrive(letter byte) error {
	d, err := CheckDrive(letter, s.opts.LastDrive)
	if err != nil {
		return err
	}
	if d != s.drive && s.LoggedIn() {
		if err := s.Logout(); err != nil {
			glog.Warningf("Closing drive %c: %v", s.drive, err)
		}
	}
	s.drive = d
	return nil
}

// Drive returns the current drive letter.
func (s *Session) Drive() byte {
	return s.drive
}

// LastDrive returns the highest valid drive letter.
func (s *Session) LastDrive() byte {
	return s.opts.LastDrive
}

// ReadOnly reports whether commits are refused.
func (s *Session) ReadOnly() bool {
	return s.opts.ReadOnly
}

// LoggedIn reports whether a volume is loaded.
func (s *Session) LoggedIn() bool {
	return s.geom.Resolved()
}

// Login selects drive and loads its boot sector, FAT region and root directory.  On failure the
// session is left logged out.
func (s *Session) Login(drive byte) error {
	if err := s.SelectDrive(drive); err != nil {
		return err
	}
	if s.LoggedIn() {
		if err := s.Logout(); err != nil {
			glog.Warningf("Closing drive %c: %v", s.drive, err)
		}
	}
	if s.opts.Open == nil {
		return errors.New("session has no Opener")
	}

	glog.V(1).Infof("Logging onto drive %c", s.drive)
	dev, err := s.opts.Open(s.drive, s.opts.ReadOnly)
	if err != nil {
		return errors.Wrapf(err, "drive %c", s.drive)
	}
	sio := thinio.New(dev)
	if err := s.load(sio); err != nil {
		s.reset()
		return multierr.Append(err, sio.Close())
	}
	s.sio = sio
	glog.V(1).Infof("Logged onto drive %c (%s): %s, %d clusters", s.drive, dev.Path(), s.geom.Width(), s.geom.ClusterCount())
	return nil
}

func (s *Session) load(sio *thinio.SectorIO) error {
	n := int64(bootrecord.MaxSectorSize)
	if size := sio.Device().Size(); size < n {
		n = size
	}
	boot, err := sio.ReadBytes(0, n)
	if err != nil {
		return errors.Wrapf(fs.ErrBootSectorUnreadable, "%v", err)
	}
	g, err := s.opts.Resolver.Resolve(boot)
	if err != nil {
		return err
	}
	bps := g.BytesPerSector()
	if bps < bootrecord.MinSectorSize || bps > bootrecord.MaxSectorSize || int64(bps) > n {
		return errors.Wrapf(fs.ErrBootSectorUnreadable, "unsupported sector size %d", bps)
	}
	if err := sio.SetSectorSize(int64(bps)); err != nil {
		return err
	}

	fatBuf, err := sio.ReadSectors(int64(g.FATSectors()), int64(g.ReservedSectors()))
	if err != nil {
		return err
	}
	fats, err := fat.New(fatBuf, g)
	if err != nil {
		return err
	}
	dirBuf, err := sio.ReadSectors(int64(g.DirSectors()), int64(g.DirStartSector()))
	if err != nil {
		return err
	}

	for i := 1; i < fats.NumSlots(); i++ {
		if diff, err := fats.Compare(0, i); err == nil && len(diff) > 0 {
			glog.Warningf("FAT %d differs from FAT 0 in %d entries, first at %#x", i, len(diff), diff[0])
		}
	}

	s.boot = boot[:bps]
	s.geom = g
	s.fats = fats
	s.dirBuf = dirBuf
	s.dir = direntry.NewTable(dirBuf, int(g.RootEntries()))
	s.cursor.reset()
	return nil
}

func (s *Session) reset() {
	s.sio = nil
	s.boot = nil
	s.geom = nil
	s.fats = nil
	s.dirBuf = nil
	s.dir = nil
	s.cursor.reset()
}

// Logout discards the loaded volume without writing it and closes the device.
func (s *Session) Logout() error {
	if s.sio == nil {
		return nil
	}
	glog.V(1).Infof("Logging off drive %c", s.drive)
	err := s.sio.Close()
	s.reset()
	return err
}

// Commit writes the boot sector, every FAT copy and the root directory back to the device and
// reloads the directory from it.
func (s *Session) Commit() error {
	if !s.LoggedIn() {
		return fs.ErrNotLoggedIn
	}
	if s.opts.ReadOnly {
		return fs.ErrReadOnly
	}

	glog.V(1).Infof("Committing drive %c", s.drive)
	g := s.geom
	err := multierr.Combine(
		errors.Wrap(s.sio.WriteSectors(0, s.boot), "writing boot sector"),
		errors.Wrap(s.sio.WriteSectors(int64(g.ReservedSectors()), s.fats.Bytes()), "writing FATs"),
		errors.Wrap(s.sio.WriteSectors(int64(g.DirStartSector()), s.dirBuf), "writing root directory"),
	)
	if err != nil {
		return err
	}
	if err := s.sio.Flush(); err != nil {
		return err
	}

	dirBuf, err := s.sio.ReadSectors(int64(g.DirSectors()), int64(g.DirStartSector()))
	if err != nil {
		return errors.Wrap(err, "re-reading root directory")
	}
	copy(s.dirBuf, dirBuf)
	return nil
}

// Geometry returns the geometry of the loaded volume, or nil.
func (s *Session) Geometry() *bootrecord.Geometry {
	return s.geom
}

// FAT returns the FAT region of the loaded volume.
func (s *Session) FAT() (*fat.Table, error) {
	if !s.LoggedIn() {
		return nil, fs.ErrNotLoggedIn
	}
	return s.fats, nil
}

// Dir returns the root directory of the loaded volume.
func (s *Session) Dir() (*direntry.Table, error) {
	if !s.LoggedIn() {
		return nil, fs.ErrNotLoggedIn
	}
	return s.dir, nil
}

// Entry returns root directory entry i.
func (s *Session) Entry(i int) (direntry.Entry, error) {
	if !s.LoggedIn() {
		return direntry.Entry{}, fs.ErrNotLoggedIn
	}
	return s.dir.At(i)
}

// CheckStartCluster reports whether cluster can start a chain of the loaded volume: zero for an
// empty file, or a data cluster.  Other values fail with fs.ErrValueOutOfRange.
func (s *Session) CheckStartCluster(cluster uint32) error {
	if !s.LoggedIn() {
		return fs.ErrNotLoggedIn
	}
	if cluster == 0 {
		return nil
	}
	if cluster < bootrecord.NumReservedClusters || cluster >= s.geom.ClusterCount() {
		return errors.Wrapf(fs.ErrValueOutOfRange, "start cluster %#x outside the data clusters 2 to %#x", cluster, s.geom.ClusterCount()-1)
	}
	return nil
}

// LinkEntry makes cluster the start cluster of root directory entry i.
// See direntry.Entry.LinkStartCluster.
func (s *Session) LinkEntry(i int, cluster uint32) error {
	if err := s.CheckStartCluster(cluster); err != nil {
		return err
	}
	e, err := s.Entry(i)
	if err != nil {
		return err
	}
	return e.LinkStartCluster(cluster)
}

// Cursor returns the selection state of the session.
func (s *Session) Cursor() *Cursor {
	return &s.cursor
}
