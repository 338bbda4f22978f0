// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// fatedit inspects and repairs the metadata of FAT12 and FAT16 volumes: the boot sector, the File
// Allocation Tables and the root directory.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/google/subcommands"
)

// cancelOnSignals returns a Context that is cancelled when one of sigs is received.
func cancelOnSignals(ctx context.Context, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan os.Signal, 1)
	signal.Notify(c, sigs...)
	go func() {
		defer signal.Stop(c)
		select {
		case <-ctx.Done():
			return
		case <-c:
			cancel()
		}
	}()
	return ctx
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&infoCmd{}, "")
	subcommands.Register(&dirCmd{}, "")
	subcommands.Register(&fatCmd{}, "")
	subcommands.Register(&chainCmd{}, "")
	subcommands.Register(&viewCmd{}, "")
	subcommands.Register(&setEntryCmd{}, "edit")
	subcommands.Register(&copyFATCmd{}, "edit")
	subcommands.Register(&editCmd{}, "edit")
	subcommands.Register(&lengthCmd{}, "edit")
	subcommands.Register(&shellCmd{}, "")
	subcommands.Register(&scanCmd{}, "")

	flag.Parse()
	ctx := cancelOnSignals(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	status := subcommands.Execute(ctx)
	glog.Flush()
	os.Exit(int(status))
}
