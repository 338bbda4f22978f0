// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type dirCmd struct {
	fateditCmd

	// Also lists never used entries.
	all bool
	// Follows the chain of every entry.
	chains bool
	// Shows a single entry and its chain when not negative.
	entry int
}

func (*dirCmd) Name() string {
	return "dir"
}

func (*dirCmd) Usage() string {
	return "dir [flags...]\n\nflags:\n"
}

func (*dirCmd) Synopsis() string {
	return "lists the root directory"
}

func (cmd *dirCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.BoolVar(&cmd.all, "all", false, "List never used entries too.")
	f.BoolVar(&cmd.chains, "chains", false, "Show the cluster chain of every entry.")
	f.IntVar(&cmd.entry, "entry", -1, "Show only this entry and its cluster chain.")
}

func (cmd *dirCmd) execute(s *session.Session) error {
	w := cmd.stdout()
	switch {
	case cmd.entry >= 0:
		return s.EntryReport(w, cmd.entry)
	case cmd.chains:
		return s.ChainReport(w, cmd.all)
	default:
		d, err := s.Dir()
		if err != nil {
			return err
		}
		return d.List(w, cmd.all)
	}
}

func (cmd *dirCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(cmd.execute))
}
