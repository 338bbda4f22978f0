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

type viewCmd struct {
	fateditCmd

	ascii bool
}

func (*viewCmd) Name() string {
	return "view"
}

func (*viewCmd) Usage() string {
	return "view [flags...] cluster\n\nflags:\n"
}

func (*viewCmd) Synopsis() string {
	return "shows the data of a cluster in hex or ASCII"
}

func (cmd *viewCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.BoolVar(&cmd.ascii, "ascii", false, "Show characters only, 64 per row.")
}

func (cmd *viewCmd) execute(s *session.Session, args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	if cmd.ascii {
		return s.ASCIIView(cmd.stdout(), vals[0])
	}
	return s.HexView(cmd.stdout(), vals[0])
}

func (cmd *viewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}
