// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads the drive map and editor settings from a YAML file.
//
//	last_drive: F
//	read_only: false
//	dir_sector_mode: legacy
//	width_policy: sector-threshold
//	drives:
//	  A: images/dos622.img
//	  C: /dev/sdb1
//	image_dir: images
package config

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/kr/fs"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"fuchsia.googlesource.com/fatedit/lib/block"
	"fuchsia.googlesource.com/fatedit/lib/block/file"
	fserrors "fuchsia.googlesource.com/fatedit/lib/fs"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/bootrecord"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

// ImageExtensions lists the file extensions Discover treats as disk images.
var ImageExtensions = []string{".img", ".ima", ".vfd", ".flp"}

// Drive is a drive letter.  In YAML it is a one letter string.
type Drive byte

var _ yaml.Unmarshaler = (*Drive)(nil)
var _ yaml.Marshaler = Drive(0)

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Drive) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if len(s) != 1 {
		return errors.Wrapf(fserrors.ErrInvalidDriveLetter, "%q", s)
	}
	*d = Drive(strings.ToUpper(s)[0])
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Drive) MarshalYAML() (interface{}, error) {
	if d == 0 {
		return nil, nil
	}
	return string(rune(d)), nil
}

// Config holds the editor settings.
type Config struct {
	LastDrive     Drive             `yaml:"last_drive,omitempty"`
	ReadOnly      bool              `yaml:"read_only,omitempty"`
	DirSectorMode string            `yaml:"dir_sector_mode,omitempty"`
	WidthPolicy   string            `yaml:"width_policy,omitempty"`
	Drives        map[string]string `yaml:"drives,omitempty"`
	ImageDir      string            `yaml:"image_dir,omitempty"`

	// base is the directory relative paths are resolved against.
	base string
}

// Default returns the settings used without a config file.
func Default() *Config {
	return &Config{
		LastDrive: session.DefaultLastDrive,
		Drives:    map[string]string{},
	}
}

// Parse decodes a YAML config.  Relative paths are resolved against base.
func Parse(data []byte, base string) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if c.Drives == nil {
		c.Drives = map[string]string{}
	}
	c.base = base
	if _, err := c.DriveMap(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("Loading config from %s", path)
	c, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) lastDrive() byte {
	if c.LastDrive == 0 {
		return session.DefaultLastDrive
	}
	return byte(c.LastDrive)
}

func (c *Config) path(p string) string {
	if filepath.IsAbs(p) || c.base == "" || strings.HasPrefix(p, "/dev/") {
		return p
	}
	return filepath.Join(c.base, p)
}

// DriveMap returns the configured drives keyed by upper case drive letter.
func (c *Config) DriveMap() (map[byte]string, error) {
	m := make(map[byte]string, len(c.Drives))
	for letter, p := range c.Drives {
		if len(letter) != 1 {
			return nil, errors.Wrapf(fserrors.ErrInvalidDriveLetter, "%q", letter)
		}
		d, err := session.CheckDrive(letter[0], c.lastDrive())
		if err != nil {
			return nil, err
		}
		if _, ok := m[d]; ok {
			return nil, errors.Errorf("drive %c configured twice", d)
		}
		m[d] = c.path(p)
	}
	return m, nil
}

// Resolver returns the boot sector resolver selected by the config.
func (c *Config) Resolver() (bootrecord.Resolver, error) {
	policy, err := bootrecord.PolicyByName(c.WidthPolicy)
	if err != nil {
		return bootrecord.Resolver{}, err
	}
	mode, err := bootrecord.DirSectorModeByName(c.DirSectorMode)
	if err != nil {
		return bootrecord.Resolver{}, err
	}
	return bootrecord.Resolver{Policy: policy, DirMode: mode}, nil
}

func isImage(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Discover assigns the disk images found under ImageDir to the drive letters not configured
// explicitly, in lexical order of their paths.  Images left over once every letter is taken are
// skipped.
func (c *Config) Discover() error {
	if c.ImageDir == "" {
		return nil
	}
	if c.Drives == nil {
		c.Drives = map[string]string{}
	}
	root := c.path(c.ImageDir)
	var images []string
	walker := fs.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return errors.Wrapf(err, "walking %s", root)
		}
		if walker.Stat().Mode().IsRegular() && isImage(walker.Path()) {
			images = append(images, walker.Path())
		}
	}
	sort.Strings(images)

	taken, err := c.DriveMap()
	if err != nil {
		return err
	}
	used := make(map[string]bool, len(taken))
	for _, p := range taken {
		used[p] = true
	}

	d := byte(session.FirstDrive)
	for _, img := range images {
		if used[img] {
			continue
		}
		for ; d <= c.lastDrive(); d++ {
			if _, ok := taken[d]; !ok {
				break
			}
		}
		if d > c.lastDrive() {
			glog.Warningf("No free drive letter for %s", img)
			continue
		}
		glog.V(1).Infof("Drive %c: %s", d, img)
		c.Drives[string(rune(d))] = img
		taken[d] = img
	}
	return nil
}

// Options returns session options which open the configured drives as block devices.
func (c *Config) Options() (session.Options, error) {
	r, err := c.Resolver()
	if err != nil {
		return session.Options{}, err
	}
	drives, err := c.DriveMap()
	if err != nil {
		return session.Options{}, err
	}
	open := func(drive byte, readOnly bool) (block.Device, error) {
		p, ok := drives[drive]
		if !ok {
			return nil, errors.Errorf("no image or device configured for drive %c", drive)
		}
		return file.Open(p, readOnly, file.DefaultBlockSize)
	}
	return session.Options{
		Open:      open,
		LastDrive: c.lastDrive(),
		ReadOnly:  c.ReadOnly,
		Resolver:  r,
	}, nil
}
