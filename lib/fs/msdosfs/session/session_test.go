// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package session

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/block"
	"fuchsia.googlesource.com/fatedit/lib/block/fake"
	"fuchsia.googlesource.com/fatedit/lib/block/file"
	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/image"
)

// floppy returns a 720K image holding a three cluster file in directory entry 0 and an empty file
// in entry 1.
func floppy() *image.Image {
	im := image.NewImage(image.Floppy720K())
	data := image.MakeRandomBuffer(2500)
	copy(data, "Hello, FAT\n")
	im.AddFile(0, image.File{
		Name: "HELLO", Ext: "TXT", Attr: 0x20, Data: data, Start: 2,
		Hour: 12, Minute: 30, Second: 15, Year: 1994, Month: 3, Day: 17,
	})
	im.AddFile(1, image.File{Name: "EMPTY", Ext: "DAT"})
	return im
}

func devices(devs map[byte]block.Device) Opener {
	return func(drive byte, readOnly bool) (block.Device, error) {
		dev, ok := devs[drive]
		if !ok {
			return nil, errors.Errorf("no device for drive %c", drive)
		}
		return dev, nil
	}
}

func setUp(t *testing.T, readOnly bool) (*Session, fake.Device) {
	dev := floppy().Device()
	s := New(Options{Open: devices(map[byte]block.Device{'A': dev}), ReadOnly: readOnly})
	if err := s.Login('a'); err != nil {
		t.Fatal(err)
	}
	return s, dev
}

func TestLogin(t *testing.T) {
	s, _ := setUp(t, false)
	if !s.LoggedIn() || s.Drive() != 'A' {
		t.Fatalf("LoggedIn() = %v, Drive() = %c", s.LoggedIn(), s.Drive())
	}
	if g := s.Geometry(); g.ClusterCount() != 715 || g.Width() != 12 {
		t.Errorf("geometry: %d clusters, %s", g.ClusterCount(), g.Width())
	}

	table, err := s.FAT()
	if err != nil {
		t.Fatal(err)
	}
	clusters, _, err := fat.Chain(table, 2)
	if err != nil || len(clusters) != 3 {
		t.Errorf("chain of HELLO.TXT: %v, %v", clusters, err)
	}
	e, err := s.Entry(0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "HELLO" || e.Length() != 2500 {
		t.Errorf("entry 0: %q, %d bytes", e.Name(), e.Length())
	}
	if d, _ := s.Dir(); d.Len() != 112 {
		t.Errorf("directory holds %d entries, want 112", d.Len())
	}

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	if s.LoggedIn() {
		t.Error("LoggedIn() after Logout")
	}
	if _, err := s.FAT(); err != fs.ErrNotLoggedIn {
		t.Errorf("FAT() after Logout = %v, want %v", err, fs.ErrNotLoggedIn)
	}
}

func TestDriveLetters(t *testing.T) {
	devs := map[byte]block.Device{'A': floppy().Device(), 'C': floppy().Device()}
	s := New(Options{Open: devices(devs), LastDrive: 'c'})

	for _, d := range []byte{'D', 'F', '@', '1', 'z'} {
		if err := s.Login(d); errors.Cause(err) != fs.ErrInvalidDriveLetter {
			t.Errorf("Login(%q) = %v, want %v", d, err, fs.ErrInvalidDriveLetter)
		}
	}
	if err := s.Login('b'); err == nil {
		t.Error("Login('b') succeeded without a device")
	}
	if s.LoggedIn() {
		t.Error("failed login left the session logged in")
	}

	if err := s.Login('c'); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectDrive('A'); err != nil {
		t.Fatal(err)
	}
	if s.LoggedIn() || s.Drive() != 'A' {
		t.Errorf("after selecting A: LoggedIn() = %v, Drive() = %c", s.LoggedIn(), s.Drive())
	}
	if def := New(Options{}); def.LastDrive() != DefaultLastDrive {
		t.Errorf("default last drive = %c", def.LastDrive())
	}
}

func TestLoginUnreadable(t *testing.T) {
	good := floppy().Device()
	tests := []struct {
		name string
		dev  block.Device
		want error
	}{
		{"blank", fake.Device(make([]byte, len(good))), fs.ErrBootSectorUnreadable},
		{"boot read", &fake.Faulty{Device: good, BadStart: 0, BadEnd: 1024, FailReads: true}, fs.ErrBootSectorUnreadable},
		{"FAT read", &fake.Faulty{Device: good, BadStart: 2048, BadEnd: 3072, FailReads: true}, fs.ErrIO},
		{"directory read", &fake.Faulty{Device: good, BadStart: 5120, BadEnd: 6144, FailReads: true}, fs.ErrIO},
	}
	for _, test := range tests {
		s := New(Options{Open: devices(map[byte]block.Device{'A': test.dev})})
		if err := s.Login('A'); errors.Cause(err) != test.want {
			t.Errorf("%s: Login = %v, want %v", test.name, err, test.want)
		}
		if s.LoggedIn() || s.Geometry() != nil {
			t.Errorf("%s: failed login left geometry behind", test.name)
		}
	}
}

func TestCommit(t *testing.T) {
	s, dev := setUp(t, false)
	c := s.Cursor()
	if err := c.SelectFATEntry(10); err != nil {
		t.Fatal(err)
	}
	if err := c.SetValue(0xFF7); err != nil {
		t.Fatal(err)
	}
	e, _ := s.Entry(1)
	e.Rename("FULL", "BIN")
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}

	s2 := New(Options{Open: devices(map[byte]block.Device{'A': dev})})
	if err := s2.Login('A'); err != nil {
		t.Fatal(err)
	}
	table, _ := s2.FAT()
	if v, _ := table.Get(10); v != 0xFF7 {
		t.Errorf("entry 10 = %#x after commit", v)
	}
	if v, _ := table.GetSlot(1, 10); v != 0 {
		t.Errorf("commit without mirroring changed FAT 1: %#x", v)
	}
	if e, _ := s2.Entry(1); e.Name() != "FULL" || e.Ext() != "BIN" {
		t.Errorf("entry 1 = %q.%q after commit", e.Name(), e.Ext())
	}
}

func TestCommitRefused(t *testing.T) {
	s, dev := setUp(t, true)
	orig := append([]byte(nil), dev...)
	e, _ := s.Entry(0)
	e.MarkDeleted()
	if err := s.Commit(); err != fs.ErrReadOnly {
		t.Errorf("Commit in read-only mode = %v, want %v", err, fs.ErrReadOnly)
	}
	if !bytes.Equal(orig, dev) {
		t.Error("read-only commit modified the device")
	}

	if err := New(Options{}).Commit(); err != fs.ErrNotLoggedIn {
		t.Errorf("Commit before login = %v, want %v", err, fs.ErrNotLoggedIn)
	}
}

func TestCommitWriteError(t *testing.T) {
	dev := &fake.Faulty{Device: floppy().Device(), BadStart: 2048, BadEnd: 3072, FailWrites: true}
	s := New(Options{Open: devices(map[byte]block.Device{'A': dev})})
	if err := s.Login('A'); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(); errors.Cause(err) != fs.ErrIO {
		t.Errorf("Commit = %v, want %v", err, fs.ErrIO)
	}
}

func TestCommitFile(t *testing.T) {
	im := floppy()
	path := filepath.Join(t.TempDir(), "floppy.img")
	if err := ioutil.WriteFile(path, im.Data, 0600); err != nil {
		t.Fatal(err)
	}
	open := func(drive byte, readOnly bool) (block.Device, error) {
		return file.Open(path, readOnly, file.DefaultBlockSize)
	}

	s := New(Options{Open: open})
	if err := s.Login('A'); err != nil {
		t.Fatal(err)
	}
	table, _ := s.FAT()
	if err := table.Put(4, 0xFF8); err != nil {
		t.Fatal(err)
	}
	if err := table.Mirror(); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	im.Data = data
	for i := 0; i < 2; i++ {
		if v, _ := fat.GetEntry(im.FAT(i), 12, 4); v != 0xFF8 {
			t.Errorf("FAT %d entry 4 = %#x on disk", i, v)
		}
	}
}
