// Copyright 2016 The Fuchsia Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package direntry

import (
	"bufio"
	"fmt"
	"io"
)

// flagColumns is the width of the flag column of a listing.
const flagColumns = 10

// Flags returns the attribute column of a listing: the letter of each set bit in its position of
// FlagLetters, and '/' in the last column for directories.
func (e Entry) Flags() string {
	flags := []byte("          ")
	a := e.Attributes()
	for i := 0; i < len(FlagLetters); i++ {
		if a&(1<<uint(i)) != 0 {
			flags[i] = FlagLetters[i]
		}
	}
	if a&AttrDirectory != 0 {
		flags[flagColumns-1] = '/'
	}
	return string(flags)
}

func printable(b byte) byte {
	if b < ' ' {
		return '.'
	}
	return b
}

// Format writes the entry as one listing line: status, flags, name, length, date and time.
func (e Entry) Format(w io.Writer) error {
	var status string
	switch e.Status() {
	case NeverUsed:
		status = "<empty>"
	case Deleted:
		status = "<del>  "
	default:
		status = "<used> "
	}

	raw := e.RawName()
	name := make([]byte, 0, nameLen+1+extLen)
	for i := 0; i < nameLen; i++ {
		name = append(name, printable(raw[i]))
	}
	if e.Status() == Deleted {
		name[0] = '?'
	}
	name = append(name, '.')
	for i := nameLen; i < nameLen+extLen; i++ {
		name = append(name, printable(raw[i]))
	}

	hour, minute, second := e.Time()
	year, month, day := e.Date()
	_, err := fmt.Fprintf(w, "%s%s%s   $(%8x)  %2d.%2d.%2d  %2d.%2d.%2d \n",
		status, e.Flags(), name, e.Length(),
		day, month, year-YearBase+80,
		hour, minute, second)
	return err
}

// Format writes entry i prefixed with its index.  Never used entries are skipped unless all is
// set.
func (t *Table) Format(w io.Writer, i int, all bool) error {
	e, err := t.At(i)
	if err != nil {
		return err
	}
	if e.Status() == NeverUsed && !all {
		return nil
	}
	if _, err := fmt.Fprintf(w, "->$(%4x):", i); err != nil {
		return err
	}
	return e.Format(w)
}

// List writes the listing of the whole directory.
func (t *Table) List(w io.Writer, all bool) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < t.Len(); i++ {
		if err := t.Format(bw, i, all); err != nil {
			return err
		}
	}
	return bw.Flush()
}
