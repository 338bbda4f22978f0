// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/bitops"
	"fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/image"
)

const (
	fatOffset  = 512
	dirOffset  = 7 * 512
	dataOffset = 14 * 512
)

func floppy() *image.Image {
	im := image.NewImage(image.Floppy720K())
	data := image.MakeRandomBuffer(2500)
	copy(data, "Hello, FAT\n")
	im.AddFile(0, image.File{
		Name: "HELLO", Ext: "TXT", Attr: 0x20, Data: data, Start: 2,
		Hour: 12, Minute: 30, Second: 15, Year: 1994, Month: 3, Day: 17,
	})
	return im
}

func writeImage(t *testing.T, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	if err := ioutil.WriteFile(p, data, 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

// setUp writes the floppy image to a temporary file and returns the common flags for it.
func setUp(t *testing.T) (fateditCmd, string, *bytes.Buffer) {
	p := writeImage(t, t.TempDir(), "a.img", floppy().Data)
	var out bytes.Buffer
	return fateditCmd{drive: "A", image: p, out: &out}, p, &out
}

func readImage(t *testing.T, p string) []byte {
	data, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func fatEntry(t *testing.T, img []byte, i uint32) uint32 {
	v, err := fat.GetEntry(img[fatOffset:dirOffset], 12, i)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestParseNumber(t *testing.T) {
	for s, want := range map[string]uint32{"17": 17, "0x1f": 0x1f, "$ff7": 0xff7, "$0": 0} {
		if got, err := parseNumber(s); err != nil || got != want {
			t.Errorf("parseNumber(%q) = %d, %v; want %d", s, got, err, want)
		}
	}
	for _, s := range []string{"", "$", "abc", "-1", "0x100000000"} {
		if _, err := parseNumber(s); err == nil {
			t.Errorf("parseNumber(%q) succeeded", s)
		}
	}
	if _, err := numberArgs([]string{"1"}, 2); err == nil {
		t.Error("numberArgs accepted too few arguments")
	}
}

func TestInfoAndDir(t *testing.T) {
	common, _, out := setUp(t)
	info := &infoCmd{fateditCmd: common}
	if err := info.withSession(func(s *session.Session) error {
		return writeInfo(info.stdout(), s, false)
	}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"MSDOS3.3", "FAT12 volume of 720 KiB", "713 clusters of 1.0 KiB", "3.0 KiB used"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}

	out.Reset()
	dir := &dirCmd{fateditCmd: common, entry: -1}
	if err := dir.withSession(dir.execute); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "HELLO   .TXT   $(     9c4)  17. 3.94  12.30.15") {
		t.Errorf("dir output:\n%s", out)
	}

	out.Reset()
	dir.entry = 0
	if err := dir.withSession(dir.execute); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "    2    3    4  fff") {
		t.Errorf("dir -entry 0 output:\n%s", out)
	}
}

func TestChain(t *testing.T) {
	common, _, out := setUp(t)
	cmd := &chainCmd{fateditCmd: common}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"$2"})
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "    2    3    4  fff\n3 clusters") {
		t.Errorf("chain output:\n%s", out)
	}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, nil)
	}); err == nil {
		t.Error("chain without a cluster succeeded")
	}
}

func TestView(t *testing.T) {
	common, _, out := setUp(t)
	cmd := &viewCmd{fateditCmd: common, ascii: true}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"2"})
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "\n->$(   0) Hello, FAT.") {
		t.Errorf("view output:\n%s", out)
	}
}

func TestSetEntry(t *testing.T) {
	common, p, _ := setUp(t)
	cmd := &setEntryCmd{fateditCmd: common, mirror: true}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"$10", "$ff7"})
	}); err != nil {
		t.Fatal(err)
	}
	img := readImage(t, p)
	if v := fatEntry(t, img, 0x10); v != 0xff7 {
		t.Errorf("FAT 0 entry $10 = %#x, want 0xff7", v)
	}
	if v, _ := fat.GetEntry(img[fatOffset+3*512:dirOffset], 12, 0x10); v != 0xff7 {
		t.Errorf("FAT 1 entry $10 = %#x, want 0xff7", v)
	}

	// Values between the cluster count and the reserved range are refused.
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"$11", "$800"})
	}); err == nil {
		t.Error("setentry accepted $800")
	}
	if v := fatEntry(t, readImage(t, p), 0x11); v != 0 {
		t.Errorf("entry $11 = %#x after a refused value", v)
	}
}

func TestSetEntryReadOnly(t *testing.T) {
	common, p, _ := setUp(t)
	common.readOnly = true
	cmd := &setEntryCmd{fateditCmd: common}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"$10", "$ff7"})
	}); errors.Cause(err) != fs.ErrReadOnly {
		t.Fatalf("setentry on a read-only drive: %v", err)
	}
	if v := fatEntry(t, readImage(t, p), 0x10); v != 0 {
		t.Errorf("entry $10 = %#x on a read-only drive", v)
	}
}

func TestCopyFAT(t *testing.T) {
	im := floppy()
	copy(im.FAT(1), make([]byte, 3*512))
	p := writeImage(t, t.TempDir(), "a.img", im.Data)
	cmd := &copyFATCmd{fateditCmd: fateditCmd{drive: "A", image: p}}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"1"})
	}); err != nil {
		t.Fatal(err)
	}
	img := readImage(t, p)
	if !bytes.Equal(img[fatOffset:fatOffset+3*512], img[fatOffset+3*512:dirOffset]) {
		t.Error("FAT copies differ after copyfat")
	}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"1", "0"})
	}); errors.Cause(err) != fs.ErrInvalidFatNumber {
		t.Errorf("copying over FAT 0: %v", err)
	}
}

func TestEdit(t *testing.T) {
	common, p, out := setUp(t)
	cmd := &editCmd{fateditCmd: common, rename: "WORLD.DOC", date: "2001-02-03", toggle: "RA"}
	if err := cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, []string{"0"})
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "<used> R         WORLD   .DOC") {
		t.Errorf("edit output:\n%s", out)
	}
	ent := readImage(t, p)[dirOffset : dirOffset+32]
	if string(ent[:11]) != "WORLD   DOC" || ent[11] != 0x01 {
		t.Errorf("entry 0 = %q attr %#x", ent[:11], ent[11])
	}
	if got, want := bitops.GetLE16(ent[24:]), uint16(21<<9|2<<5|3); got != want {
		t.Errorf("date = %#x, want %#x", got, want)
	}
}

func TestEditRejectsBadValues(t *testing.T) {
	for _, cmd := range []*editCmd{
		{rename: "X.Y", date: "1994/3/17"},
		{rename: "X.Y", toggle: "RQ"},
		{rename: "X.Y", length: "ten"},
		{rename: "X.Y", link: "0x10005"},
		{rename: "X.Y", link: "$2cb"},
		{},
	} {
		common, p, _ := setUp(t)
		before := readImage(t, p)
		cmd.fateditCmd = common
		if err := cmd.withSession(func(s *session.Session) error {
			return cmd.execute(s, []string{"0"})
		}); err == nil {
			t.Errorf("edit %+v succeeded", cmd)
		}
		if !bytes.Equal(readImage(t, p), before) {
			t.Errorf("edit %+v changed the image", cmd)
		}
	}
}

func TestLength(t *testing.T) {
	im := floppy()
	ent := im.RootDir()[:32]
	bitops.PutLE32(ent[28:], 10)
	p := writeImage(t, t.TempDir(), "a.img", im.Data)
	var out bytes.Buffer
	cmd := &lengthCmd{fateditCmd: fateditCmd{drive: "A", image: p, out: &out}}
	run := func() error {
		return cmd.withSession(func(s *session.Session) error {
			return cmd.execute(s, []string{"0"})
		})
	}

	if err := run(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "new length $(     c00)\n" {
		t.Errorf("length output %q", out.String())
	}
	if got := bitops.GetLE32(readImage(t, p)[dirOffset+28:]); got != 10 {
		t.Errorf("length without -commit stored %d", got)
	}

	cmd.commit = true
	if err := run(); err != nil {
		t.Fatal(err)
	}
	if got := bitops.GetLE32(readImage(t, p)[dirOffset+28:]); got != 0xc00 {
		t.Errorf("length = %#x, want 0xc00", got)
	}
}

func TestShell(t *testing.T) {
	common, p, out := setUp(t)
	script := `select 4
set 5
select 5
set $fff
follow
dentry 0
setlen 0
length commit
bogus
rename "NEW NAME.TXT"
commit
quit
set 0
`
	cmd := &shellCmd{fateditCmd: common, in: strings.NewReader(script)}
	if err := cmd.execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"end of chain", "new length $(    1000)", "unknown command \"bogus\""} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("shell output lacks %q:\n%s", want, out)
		}
	}

	img := readImage(t, p)
	if v := fatEntry(t, img, 4); v != 5 {
		t.Errorf("entry 4 = %#x, want 5", v)
	}
	if v := fatEntry(t, img, 5); v != 0xfff {
		t.Errorf("entry 5 = %#x, want 0xfff", v)
	}
	ent := img[dirOffset : dirOffset+32]
	if got := bitops.GetLE32(ent[28:]); got != 0x1000 {
		t.Errorf("length = %#x, want 0x1000", got)
	}
	if string(ent[:11]) != "NEW NAMETXT" {
		t.Errorf("name = %q", ent[:11])
	}
}

func TestShellCancelled(t *testing.T) {
	common, _, _ := setUp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &shellCmd{fateditCmd: common, in: strings.NewReader("info\n")}
	if err := cmd.execute(ctx); err != context.Canceled {
		t.Errorf("execute() = %v, want %v", err, context.Canceled)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	images := filepath.Join(root, "images")
	if err := os.Mkdir(images, 0700); err != nil {
		t.Fatal(err)
	}
	writeImage(t, images, "a.img", floppy().Data)
	writeImage(t, images, "b.ima", image.NewImage(image.Floppy144M()).Data)
	writeImage(t, images, "c.img", make([]byte, 1024))
	writeImage(t, images, "notes.txt", []byte("not an image"))
	cfg := writeImage(t, root, "fatedit.yaml", []byte("image_dir: images\n"))

	var out bytes.Buffer
	cmd := &scanCmd{fateditCmd: fateditCmd{configPath: cfg, drive: "A", out: &out}}
	if err := cmd.execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("scan output:\n%s", out.String())
	}
	for i, want := range []string{"A: ", "B: ", "C: "} {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[0], "FAT12, 720 KiB") || !strings.Contains(lines[0], "1 files") {
		t.Errorf("drive A: %q", lines[0])
	}
	if !strings.Contains(lines[1], "FAT12, 1.4 MiB") {
		t.Errorf("drive B: %q", lines[1])
	}
	if strings.Contains(lines[2], "KiB") {
		t.Errorf("drive C: %q", lines[2])
	}
}
