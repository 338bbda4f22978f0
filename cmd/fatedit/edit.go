// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/direntry"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type editCmd struct {
	fateditCmd

	rename string
	time   string
	date   string
	toggle string
	delete bool
	length string
	link   string
}

func (*editCmd) Name() string {
	return "edit"
}

func (*editCmd) Usage() string {
	return "edit [flags...] entry\n\nflags:\n"
}

func (*editCmd) Synopsis() string {
	return "changes a root directory entry"
}

func (cmd *editCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.StringVar(&cmd.rename, "rename", "", "New NAME.EXT; renaming a deleted entry reactivates it.")
	f.StringVar(&cmd.time, "time", "", "New time as hh:mm:ss.")
	f.StringVar(&cmd.date, "date", "", "New date as yyyy-mm-dd.")
	f.StringVar(&cmd.toggle, "toggle", "", "Attribute flags to flip, from "+direntry.FlagLetters+".")
	f.BoolVar(&cmd.delete, "delete", false, "Mark the entry deleted.")
	f.StringVar(&cmd.length, "length", "", "New file length.")
	f.StringVar(&cmd.link, "link", "", "New start cluster. This can orphan or share cluster chains.")
}

// splitName splits NAME.EXT at its last dot.
func splitName(s string) (string, string) {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// parseTriple parses three numbers separated by sep.
func parseTriple(s, sep string) (int, int, int, error) {
	var a, b, c int
	format := "%d" + sep + "%d" + sep + "%d"
	if n, err := fmt.Sscanf(s, format, &a, &b, &c); err != nil || n != 3 {
		return 0, 0, 0, errors.Errorf("invalid value %q", s)
	}
	return a, b, c, nil
}

// apply performs the requested edits on e, an entry of the volume loaded in s.  Every value is
// checked before e is changed.
func (cmd *editCmd) apply(s *session.Session, e direntry.Entry) error {
	var edits []func() error
	if cmd.rename != "" {
		name, ext := splitName(cmd.rename)
		edits = append(edits, func() error { e.Rename(name, ext); return nil })
	}
	if cmd.time != "" {
		h, m, sec, err := parseTriple(cmd.time, ":")
		if err != nil {
			return err
		}
		edits = append(edits, func() error { e.SetTime(h, m, sec); return nil })
	}
	if cmd.date != "" {
		y, mo, d, err := parseTriple(cmd.date, "-")
		if err != nil {
			return err
		}
		edits = append(edits, func() error { e.SetDate(y, mo, d); return nil })
	}
	if cmd.toggle != "" {
		for _, r := range cmd.toggle {
			if _, err := direntry.AttrByLetter(r); err != nil {
				return err
			}
		}
		edits = append(edits, func() error { return e.ToggleAttributes(cmd.toggle) })
	}
	if cmd.length != "" {
		v, err := parseNumber(cmd.length)
		if err != nil {
			return err
		}
		edits = append(edits, func() error { e.SetLength(v); return nil })
	}
	if cmd.link != "" {
		v, err := parseNumber(cmd.link)
		if err != nil {
			return err
		}
		if err := s.CheckStartCluster(v); err != nil {
			return err
		}
		edits = append(edits, func() error { return e.LinkStartCluster(v) })
	}
	if cmd.delete {
		edits = append(edits, func() error { e.MarkDeleted(); return nil })
	}
	if len(edits) == 0 {
		return errors.New("nothing to change")
	}
	for _, edit := range edits {
		if err := edit(); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *editCmd) execute(s *session.Session, args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	e, err := s.Entry(int(vals[0]))
	if err != nil {
		return err
	}
	if err := cmd.apply(s, e); err != nil {
		return err
	}
	if err := e.Format(cmd.stdout()); err != nil {
		return err
	}
	return s.Commit()
}

func (cmd *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}

type lengthCmd struct {
	fateditCmd

	// Stores the recomputed length instead of only showing it.
	commit bool
}

func (*lengthCmd) Name() string {
	return "length"
}

func (*lengthCmd) Usage() string {
	return "length [flags...] entry\n\nflags:\n"
}

func (*lengthCmd) Synopsis() string {
	return "recomputes the length of a file from its cluster chain"
}

func (cmd *lengthCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
	f.BoolVar(&cmd.commit, "commit", false, "Store the recomputed length in the directory entry.")
}

func (cmd *lengthCmd) execute(s *session.Session, args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	i := int(vals[0])
	length, err := s.CandidateLength(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.stdout(), "new length $(%8x)\n", length)
	if !cmd.commit {
		return nil
	}
	if err := s.CommitLength(i, length); err != nil {
		return err
	}
	return s.Commit()
}

func (cmd *lengthCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.withSession(func(s *session.Session) error {
		return cmd.execute(s, f.Args())
	}))
}
