// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/config"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

// Contains common command information for embedding in other fatedit commands.
type fateditCmd struct {
	// Path of the YAML config holding the drive map.
	configPath string
	// Drive letter to log onto.
	drive string
	// Image or device to use as the selected drive, overriding the config.
	image string
	// Refuses every write when set.
	readOnly bool
	// Overrides the config's directory sector mode and FAT width policy when not empty.
	dirSectorMode string
	widthPolicy   string

	// Only for testing.
	out io.Writer
}

func (cmd *fateditCmd) SetCommonFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.configPath, "config", "", "YAML file mapping drive letters to images or devices.")
	f.StringVar(&cmd.drive, "drive", "A", "Drive letter to work on.")
	f.StringVar(&cmd.image, "image", "", "Image file or block device to use as the selected drive.")
	f.BoolVar(&cmd.readOnly, "readonly", false, "Never write to the volume.")
	f.StringVar(&cmd.dirSectorMode, "dirsec-mode", "", "Root directory sizing: \"legacy\" or \"bytes-per-sector\".")
	f.StringVar(&cmd.widthPolicy, "width-policy", "", "FAT width selection: \"sector-threshold\" or \"cluster-count\".")
}

func (cmd *fateditCmd) stdout() io.Writer {
	if cmd.out == nil {
		return os.Stdout
	}
	return cmd.out
}

// loadConfig reads the config file, if any, and applies the command line overrides.
func (cmd *fateditCmd) loadConfig() (*config.Config, error) {
	c := config.Default()
	if cmd.configPath != "" {
		var err error
		if c, err = config.Load(cmd.configPath); err != nil {
			return nil, err
		}
	}
	if cmd.readOnly {
		c.ReadOnly = true
	}
	if cmd.dirSectorMode != "" {
		c.DirSectorMode = cmd.dirSectorMode
	}
	if cmd.widthPolicy != "" {
		c.WidthPolicy = cmd.widthPolicy
	}
	if cmd.image != "" {
		c.Drives[strings.ToUpper(cmd.drive)] = cmd.image
	}
	if err := c.Discover(); err != nil {
		return nil, err
	}
	return c, nil
}

func (cmd *fateditCmd) driveLetter() (byte, error) {
	if len(cmd.drive) != 1 {
		return 0, errors.Errorf("invalid drive %q", cmd.drive)
	}
	return cmd.drive[0], nil
}

// newSession returns a session configured from the flags, without logging in.
func (cmd *fateditCmd) newSession() (*session.Session, error) {
	c, err := cmd.loadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return session.New(opts), nil
}

// login returns a session logged onto the selected drive.
func (cmd *fateditCmd) login() (*session.Session, error) {
	d, err := cmd.driveLetter()
	if err != nil {
		return nil, err
	}
	s, err := cmd.newSession()
	if err != nil {
		return nil, err
	}
	if err := s.Login(d); err != nil {
		return nil, err
	}
	return s, nil
}

// withSession logs in, runs f and logs out.
func (cmd *fateditCmd) withSession(f func(s *session.Session) error) error {
	s, err := cmd.login()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Logout(); err != nil {
			glog.Warningf("Logout: %v", err)
		}
	}()
	return f(s)
}

// status converts the result of a command into an exit status.
func status(err error) subcommands.ExitStatus {
	if err != nil {
		glog.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseNumber parses a number written in decimal, as 0x1f, or as $1f.
func parseNumber(s string) (uint32, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

// numberArgs parses exactly n numeric arguments.
func numberArgs(args []string, n int) ([]uint32, error) {
	if len(args) != n {
		return nil, errors.Errorf("expected %d arguments, got %d", n, len(args))
	}
	vals := make([]uint32, n)
	for i, a := range args {
		v, err := parseNumber(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
