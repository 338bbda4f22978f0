// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type fatCmd struct {
	fateditCmd

	perRow int
	// Compares this FAT copy with the working table instead of dumping.
	compare int
}

func (*fatCmd) Name() string {
	return "fat"
}

func (*fatCmd) Usage() string {
	return "fat [flags...]\n\nflags:\n"
}

func (*fatCmd) Synopsis() string {
	return "shows the FAT map"
}

func (cmd *fatCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.IntVar(&cmd.perRow, "per-row", fat.DefaultPerRow, "Entries per row.")
	f.IntVar(&cmd.compare, "compare", 0, "List the entries in which this FAT copy differs from the first.")
}

func (cmd *fatCmd) execute(s *session.Session) error {
	table, err := s.FAT()
	if err != nil {
		return err
	}
	if cmd.compare == 0 {
		return table.Dump(cmd.stdout(), cmd.perRow)
	}
	diff, err := table.Compare(0, cmd.compare)
	if err != nil {
		return err
	}
	for _, i := range diff {
		a, _ := table.GetSlot(0, i)
		b, _ := table.GetSlot(cmd.compare, i)
		fmt.Fprintf(cmd.stdout(), "->$(%5x): %5x %5x\n", i, a, b)
	}
	return nil
}

func (cmd *fatCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(cmd.execute))
}

type chainCmd struct {
	fateditCmd
}

func (*chainCmd) Name() string {
	return "chain"
}

func (*chainCmd) Usage() string {
	return "chain [flags...] cluster\n\nflags:\n"
}

func (*chainCmd) Synopsis() string {
	return "follows the cluster chain starting at a cluster"
}

func (cmd *chainCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
}

func (cmd *chainCmd) execute(s *session.Session, args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	table, err := s.FAT()
	if err != nil {
		return err
	}
	w := cmd.stdout()
	clusters, terminal, err := fat.Chain(table, vals[0])
	for _, c := range clusters {
		fmt.Fprintf(w, "%5x", c)
	}
	if err != nil {
		fmt.Fprintln(w)
		return err
	}
	length, _ := fat.ChainLength(table, vals[0])
	fmt.Fprintf(w, "%5x\n%d clusters, %s, length $(%8x)\n", terminal, len(clusters), fat.Classify(table.Width(), terminal), length)
	return nil
}

func (cmd *chainCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}

type setEntryCmd struct {
	fateditCmd

	// Copies the working FAT to the other copies before writing.
	mirror bool
}

func (*setEntryCmd) Name() string {
	return "setentry"
}

func (*setEntryCmd) Usage() string {
	return "setentry [flags...] index value\n\nValues are decimal, 0x-prefixed or $-prefixed hex.\n\nflags:\n"
}

func (*setEntryCmd) Synopsis() string {
	return "sets a FAT entry"
}

func (cmd *setEntryCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.BoolVar(&cmd.mirror, "mirror", false, "Copy the working FAT to every other FAT before writing.")
}

func (cmd *setEntryCmd) execute(s *session.Session, args []string) error {
	vals, err := numberArgs(args, 2)
	if err != nil {
		return err
	}
	table, err := s.FAT()
	if err != nil {
		return err
	}
	if err := table.Put(vals[0], vals[1]); err != nil {
		return err
	}
	if cmd.mirror {
		if err := table.Mirror(); err != nil {
			return err
		}
	}
	return s.Commit()
}

func (cmd *setEntryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}

type copyFATCmd struct {
	fateditCmd
}

func (*copyFATCmd) Name() string {
	return "copyfat"
}

func (*copyFATCmd) Usage() string {
	return "copyfat [flags...] [source] destination\n\nThe source defaults to the working FAT 0.\n\nflags:\n"
}

func (*copyFATCmd) Synopsis() string {
	return "copies one FAT over another"
}

func (cmd *copyFATCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
}

func (cmd *copyFATCmd) execute(s *session.Session, args []string) error {
	if len(args) == 1 {
		args = append([]string{"0"}, args...)
	}
	vals, err := numberArgs(args, 2)
	if err != nil {
		return err
	}
	table, err := s.FAT()
	if err != nil {
		return err
	}
	if err := table.CopyFAT(int(vals[0]), int(vals[1])); err != nil {
		return errors.Wrapf(err, "copying FAT %d to FAT %d", vals[0], vals[1])
	}
	return s.Commit()
}

func (cmd *copyFATCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}
