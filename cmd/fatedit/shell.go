// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"
	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/fat"
	"fuchsia.googlesource.com/fatedit/lib/fs/msdosfs/session"
)

type shellCmd struct {
	fateditCmd

	// Only for testing.
	in io.Reader
}

func (*shellCmd) Name() string {
	return "shell"
}

func (*shellCmd) Usage() string {
	return "shell [flags...]\n\nReads editing commands from standard input. Type \"help\" for a list.\n\nflags:\n"
}

func (*shellCmd) Synopsis() string {
	return "edits a volume interactively"
}

func (cmd *shellCmd) SetFlags(f *flag.FlagSet) {
	cmd.SetCommonFlags(f)
}

func (cmd *shellCmd) stdin() io.Reader {
	if cmd.in == nil {
		return os.Stdin
	}
	return cmd.in
}

// shell holds the state of one interactive run.
type shell struct {
	s    *session.Session
	w    io.Writer
	quit bool
}

type shellFunc func(sh *shell, args []string) error

type shellEntry struct {
	usage string
	run   shellFunc
}

var shellCommands map[string]shellEntry

func init() {
	shellCommands = map[string]shellEntry{
		"login":     {"login [drive]", (*shell).login},
		"logout":    {"logout", func(sh *shell, _ []string) error { return sh.s.Logout() }},
		"commit":    {"commit", func(sh *shell, _ []string) error { return sh.s.Commit() }},
		"info":      {"info", func(sh *shell, _ []string) error { return writeInfo(sh.w, sh.s, false) }},
		"dir":       {"dir [all]", (*shell).dir},
		"chains":    {"chains [all]", (*shell).chains},
		"entry":     {"entry [index]", (*shell).entry},
		"fat":       {"fat", (*shell).fat},
		"select":    {"select cluster", (*shell).selectFAT},
		"dentry":    {"dentry index", (*shell).selectDir},
		"next":      {"next", cursorOp((*session.Cursor).NextFATEntry)},
		"prev":      {"prev", cursorOp((*session.Cursor).PrevFATEntry)},
		"dnext":     {"dnext", cursorOp((*session.Cursor).NextDirEntry)},
		"dprev":     {"dprev", cursorOp((*session.Cursor).PrevDirEntry)},
		"set":       {"set value", (*shell).set},
		"save":      {"save", cursorOp((*session.Cursor).SaveEntry)},
		"savevalue": {"savevalue", cursorOp((*session.Cursor).SaveValue)},
		"copy":      {"copy", cursorOp((*session.Cursor).CopySavedEntry)},
		"restore":   {"restore", cursorOp((*session.Cursor).RestoreValue)},
		"follow":    {"follow", (*shell).follow},
		"start":     {"start", cursorOp((*session.Cursor).GotoStartCluster)},
		"link":      {"link", cursorOp((*session.Cursor).LinkDirEntry)},
		"hex":       {"hex [cluster]", (*shell).hex},
		"ascii":     {"ascii [cluster]", (*shell).ascii},
		"length":    {"length [commit]", (*shell).length},
		"copyfat":   {"copyfat [source] destination", (*shell).copyFAT},
		"mirror":    {"mirror", (*shell).mirror},
		"rename":    {"rename NAME.EXT", dirEdit(func(e *editCmd, v string) { e.rename = v })},
		"time":      {"time hh:mm:ss", dirEdit(func(e *editCmd, v string) { e.time = v })},
		"date":      {"date yyyy-mm-dd", dirEdit(func(e *editCmd, v string) { e.date = v })},
		"attr":      {"attr FLAGS", dirEdit(func(e *editCmd, v string) { e.toggle = v })},
		"setlen":    {"setlen length", dirEdit(func(e *editCmd, v string) { e.length = v })},
		"delete":    {"delete", (*shell).delete},
		"help":      {"help", (*shell).help},
		"quit":      {"quit", func(sh *shell, _ []string) error { sh.quit = true; return nil }},
	}
}

func cursorOp(op func(*session.Cursor) error) shellFunc {
	return func(sh *shell, _ []string) error {
		if err := op(sh.s.Cursor()); err != nil {
			return err
		}
		return sh.status()
	}
}

// dirEdit applies a single edit to the selected directory entry.
func dirEdit(set func(e *editCmd, v string)) shellFunc {
	return func(sh *shell, args []string) error {
		if len(args) != 1 {
			return errors.Errorf("expected 1 argument, got %d", len(args))
		}
		var e editCmd
		set(&e, args[0])
		return sh.editSelected(&e)
	}
}

func (sh *shell) editSelected(e *editCmd) error {
	ent, err := sh.s.Entry(sh.s.Cursor().DirEntry())
	if err != nil {
		return err
	}
	if err := e.apply(sh.s, ent); err != nil {
		return err
	}
	return ent.Format(sh.w)
}

// optionalNumber returns the single numeric argument, or def if there is none.
func optionalNumber(args []string, def uint32) (uint32, error) {
	if len(args) == 0 {
		return def, nil
	}
	vals, err := numberArgs(args, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// status prints the selected FAT entry and directory entry.
func (sh *shell) status() error {
	c := sh.s.Cursor()
	v, err := c.Value()
	if err != nil {
		return err
	}
	table, err := sh.s.FAT()
	if err != nil {
		return err
	}
	se, sv := c.Saved()
	fmt.Fprintf(sh.w, "FAT $(%4x) = %5x %s   saved $(%4x) = %5x   dir %d\n",
		c.FATEntry(), v, fat.Classify(table.Width(), v), se, sv, c.DirEntry())
	return nil
}

func (sh *shell) login(args []string) error {
	d := sh.s.Drive()
	switch len(args) {
	case 0:
	case 1:
		if len(args[0]) != 1 {
			return errors.Errorf("invalid drive %q", args[0])
		}
		d = args[0][0]
	default:
		return errors.Errorf("expected at most 1 argument, got %d", len(args))
	}
	if err := sh.s.Login(d); err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "logged onto %c:\n", sh.s.Drive())
	return nil
}

func isAll(args []string) bool {
	return len(args) == 1 && args[0] == "all"
}

func (sh *shell) dir(args []string) error {
	d, err := sh.s.Dir()
	if err != nil {
		return err
	}
	return d.List(sh.w, isAll(args))
}

func (sh *shell) chains(args []string) error {
	return sh.s.ChainReport(sh.w, isAll(args))
}

func (sh *shell) entry(args []string) error {
	i, err := optionalNumber(args, uint32(sh.s.Cursor().DirEntry()))
	if err != nil {
		return err
	}
	return sh.s.EntryReport(sh.w, int(i))
}

func (sh *shell) fat(_ []string) error {
	table, err := sh.s.FAT()
	if err != nil {
		return err
	}
	return table.Dump(sh.w, fat.DefaultPerRow)
}

func (sh *shell) selectFAT(args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	if err := sh.s.Cursor().SelectFATEntry(vals[0]); err != nil {
		return err
	}
	return sh.status()
}

func (sh *shell) selectDir(args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	if err := sh.s.Cursor().SelectDirEntry(int(vals[0])); err != nil {
		return err
	}
	e, err := sh.s.Entry(int(vals[0]))
	if err != nil {
		return err
	}
	return e.Format(sh.w)
}

func (sh *shell) set(args []string) error {
	vals, err := numberArgs(args, 1)
	if err != nil {
		return err
	}
	if err := sh.s.Cursor().SetValue(vals[0]); err != nil {
		return err
	}
	return sh.status()
}

func (sh *shell) follow(_ []string) error {
	moved, err := sh.s.Cursor().Follow()
	if err != nil {
		return err
	}
	if !moved {
		fmt.Fprintln(sh.w, "end of chain")
	}
	return sh.status()
}

func (sh *shell) hex(args []string) error {
	c, err := optionalNumber(args, sh.s.Cursor().FATEntry())
	if err != nil {
		return err
	}
	return sh.s.HexView(sh.w, c)
}

func (sh *shell) ascii(args []string) error {
	c, err := optionalNumber(args, sh.s.Cursor().FATEntry())
	if err != nil {
		return err
	}
	return sh.s.ASCIIView(sh.w, c)
}

func (sh *shell) length(args []string) error {
	i := sh.s.Cursor().DirEntry()
	length, err := sh.s.CandidateLength(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "new length $(%8x)\n", length)
	if len(args) == 1 && args[0] == "commit" {
		return sh.s.CommitLength(i, length)
	}
	return nil
}

func (sh *shell) copyFAT(args []string) error {
	if len(args) == 1 {
		args = append([]string{"0"}, args...)
	}
	vals, err := numberArgs(args, 2)
	if err != nil {
		return err
	}
	table, err := sh.s.FAT()
	if err != nil {
		return err
	}
	return table.CopyFAT(int(vals[0]), int(vals[1]))
}

func (sh *shell) mirror(_ []string) error {
	table, err := sh.s.FAT()
	if err != nil {
		return err
	}
	return table.Mirror()
}

func (sh *shell) delete(_ []string) error {
	return sh.editSelected(&editCmd{delete: true})
}

func (sh *shell) help(_ []string) error {
	var usages []string
	for _, c := range shellCommands {
		usages = append(usages, c.usage)
	}
	sort.Strings(usages)
	for _, u := range usages {
		fmt.Fprintf(sh.w, "  %s\n", u)
	}
	fmt.Fprintln(sh.w, "Changes stay in memory until commit.")
	return nil
}

// run executes one command line.
func (sh *shell) run(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errors.Wrapf(err, "parsing %q", line)
	}
	if len(args) == 0 {
		return nil
	}
	c, ok := shellCommands[strings.ToLower(args[0])]
	if !ok {
		return errors.Errorf("unknown command %q, try \"help\"", args[0])
	}
	return c.run(sh, args[1:])
}

func (cmd *shellCmd) execute(ctx context.Context) error {
	s, err := cmd.newSession()
	if err != nil {
		return err
	}
	d, err := cmd.driveLetter()
	if err != nil {
		return err
	}
	if err := s.SelectDrive(d); err != nil {
		return err
	}
	sh := &shell{s: s, w: cmd.stdout()}
	defer func() {
		if err := s.Logout(); err != nil {
			glog.Warningf("Logout: %v", err)
		}
	}()
	if err := s.Login(d); err != nil {
		fmt.Fprintf(sh.w, "%v\n", err)
	}

	scanner := bufio.NewScanner(cmd.stdin())
	for !sh.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(sh.w, "%c> ", s.Drive())
		if !scanner.Scan() {
			break
		}
		if err := sh.run(scanner.Text()); err != nil {
			glog.V(1).Infof("%q: %v", scanner.Text(), err)
			fmt.Fprintf(sh.w, "%v\n", err)
		}
	}
	return scanner.Err()
}

func (cmd *shellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return status(cmd.execute(ctx))
}
