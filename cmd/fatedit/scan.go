// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/direntry"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type scanCmd struct {
	fateditCmd
}

func (*scanCmd) Name() string {
	return "scan"
}

func (*scanCmd) Usage() string {
	return "scan [flags...]\n\nChecks every configured drive without changing it.\n\nflags:\n"
}

func (*scanCmd) Synopsis() string {
	return "summarizes every configured drive"
}

func (cmd *scanCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
}

// driveSummary is the result of checking one drive.
type driveSummary struct {
	drive byte
	path  string
	err   error

	width      string
	size       int64
	free       uint64
	mismatches []int
	files      int
	badChains  int
}

func (d *driveSummary) write(w io.Writer) {
	if d.err != nil {
		fmt.Fprintf(w, "%c: %s: %v\n", d.drive, d.path, d.err)
		return
	}
	fmt.Fprintf(w, "%c: %s: %s, %s, %s free, %d files", d.drive, d.path, d.width,
		humanize.IBytes(uint64(d.size)), humanize.IBytes(d.free), d.files)
	if len(d.mismatches) > 0 {
		fmt.Fprintf(w, ", FAT copies %v differ", d.mismatches)
	}
	if d.badChains > 0 {
		fmt.Fprintf(w, ", %d broken chains", d.badChains)
	}
	fmt.Fprintln(w)
}

// check logs onto one drive with a session of its own and summarizes it.
func check(ctx context.Context, opts session.Options, d *driveSummary) error {
	opts.ReadOnly = true
	s := session.New(opts)
	if err := s.Login(d.drive); err != nil {
		return err
	}
	defer s.Logout()

	g := s.Geometry()
	d.width = g.Width().String()
	d.size = g.VolumeSize()

	table, err := s.FAT()
	if err != nil {
		return err
	}
	st, err := table.Stats()
	if err != nil {
		return err
	}
	d.free = uint64(st.Free) * uint64(g.ClusterSize())
	for n := 1; n < table.NumSlots(); n++ {
		diff, err := table.Compare(0, n)
		if err != nil {
			return err
		}
		if len(diff) > 0 {
			d.mismatches = append(d.mismatches, n)
		}
	}

	dir, err := s.Dir()
	if err != nil {
		return err
	}
	for i := 0; i < dir.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := dir.At(i)
		if err != nil {
			return err
		}
		if e.Status() != direntry.Active {
			continue
		}
		d.files++
		if e.StartCluster() == 0 {
			continue
		}
		if _, _, err := fat.Chain(table, e.StartCluster()); err != nil {
			glog.V(1).Infof("%c: entry %d: %v", d.drive, i, err)
			d.badChains++
		}
	}
	return nil
}

func (cmd *scanCmd) execute(ctx context.Context) error {
	c, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	drives, err := c.DriveMap()
	if err != nil {
		return err
	}
	if len(drives) == 0 {
		return errors.New("no drives configured")
	}
	opts, err := c.Options()
	if err != nil {
		return err
	}

	var summaries []*driveSummary
	eg, ctx := errgroup.WithContext(ctx)
	for letter, p := range drives {
		d := &driveSummary{drive: letter, path: p}
		summaries = append(summaries, d)
		eg.Go(func() error {
			if err := check(ctx, opts, d); err != nil {
				if errors.Cause(err) == ctx.Err() {
					return err
				}
				d.err = err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].drive < summaries[j].drive })
	w := cmd.stdout()
	for _, d := range summaries {
		d.write(w)
	}
	return nil
}

func (cmd *scanCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.execute(ctx))
}
