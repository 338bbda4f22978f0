// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/kr/pretty"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type infoCmd struct {
	fateditCmd

	// Dumps the resolved geometry as a Go value.
	raw bool
}

func (*infoCmd) Name() string {
	return "info"
}

func (*infoCmd) Usage() string {
	return "info [flags...]\n\nflags:\n"
}

func (*infoCmd) Synopsis() string {
	return "shows the boot sector and volume usage"
}

func (cmd *infoCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.BoolVar(&cmd.raw, "raw", false, "Dump the resolved geometry.")
}

func writeInfo(w io.Writer, s *session.Session, raw bool) error {
	g := s.Geometry()
	if raw {
		_, err := fmt.Fprintf(w, "%# v\n", pretty.Formatter(g))
		return err
	}
	for _, f := range g.Describe() {
		fmt.Fprintf(w, "%s : %s \n", f.Label, f.Value)
	}

	table, err := s.FAT()
	if err != nil {
		return err
	}
	st, err := table.Stats()
	if err != nil {
		return err
	}
	size := uint64(g.ClusterSize())
	fmt.Fprintf(w, "\n%s volume of %s, %s clusters of %s\n",
		g.Width(), humanize.IBytes(uint64(g.VolumeSize())),
		humanize.Comma(int64(g.ClusterCount()-2)), humanize.IBytes(size))
	_, err = fmt.Fprintf(w, "%s used, %s free, %s in bad clusters\n",
		humanize.IBytes(uint64(st.Used)*size), humanize.IBytes(uint64(st.Free)*size),
		humanize.IBytes(uint64(st.Bad)*size))
	return err
}

func (cmd *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return writeInfo(cmd.stdout(), s, cmd.raw)
	}))
}
