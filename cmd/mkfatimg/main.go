// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// mkfatimg writes a blank FAT12 or FAT16 disk image for use with fatedit.
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/image"
)

var presets = map[string]func() image.Params{
	"720k":  image.Floppy720K,
	"1.44m": image.Floppy144M,
	"16m":   image.HardDisk16M,
}

func presetNames() string {
	var names []string
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

type mkfatArgs struct {
	params image.Params
	output string
	force  bool
}

func parseArgs(args []string) (*mkfatArgs, error) {
	cmd := &mkfatArgs{}
	flagSet := flag.NewFlagSet("mkfatimg", flag.ContinueOnError)
	flagSet.SetOutput(ioutil.Discard)

	var preset, oem string
	var width, fats int
	var exact bool
	flagSet.StringVar(&preset, "preset", "1.44m", "Volume layout: "+presetNames()+".")
	flagSet.IntVar(&width, "width", 0, "FAT width, 12 or 16. Zero picks one from the size.")
	flagSet.IntVar(&fats, "fats", 0, "Number of FAT copies. Zero keeps the preset's.")
	flagSet.StringVar(&oem, "oem", "", "OEM name of the boot sector.")
	flagSet.BoolVar(&exact, "exact-dir-sectors", false, "Size the root directory with the real sector size.")
	flagSet.BoolVarP(&cmd.force, "force", "f", false, "Overwrite an existing file.")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	p, ok := presets[strings.ToLower(preset)]
	if !ok {
		return nil, errors.Errorf("unknown preset %q, want one of %s", preset, presetNames())
	}
	cmd.params = p()
	switch width {
	case 0, 12, 16:
		cmd.params.Width = width
	default:
		return nil, errors.Errorf("invalid FAT width %d", width)
	}
	if fats < 0 || fats > 255 {
		return nil, errors.Errorf("invalid number of FATs %d", fats)
	}
	if fats > 0 {
		cmd.params.NumFATs = uint8(fats)
	}
	if len(oem) > 8 {
		return nil, errors.Errorf("OEM name %q is longer than 8 bytes", oem)
	}
	if oem != "" {
		cmd.params.OEMName = oem
	}
	cmd.params.ExactDirSectors = exact

	if flagSet.NArg() != 1 {
		return nil, errors.New("expected exactly one output path")
	}
	cmd.output = flagSet.Arg(0)
	return cmd, nil
}

func (cmd *mkfatArgs) write() error {
	mode := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !cmd.force {
		mode |= os.O_EXCL
	}
	f, err := os.OpenFile(cmd.output, mode, 0644)
	if err != nil {
		return err
	}
	im := image.NewImage(cmd.params)
	if _, err := f.Write(im.Data); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", cmd.output)
	}
	return f.Close()
}

func main() {
	cmd, err := parseArgs(os.Args[1:])
	if err == nil {
		err = cmd.write()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfatimg: %v\n", err)
		os.Exit(1)
	}
}
