// This file is part of Gopher464.
//
// Gopher464 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher464 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher464.  If not, see <https://www.gnu.org/licenses/>.

// Package modalflag is a thin wrapper around the flag package from the
// Go standard library. It adds the concept of program modes: a special
// first argument that selects a different mode of operation, each mode
// with its own set of flags. The best example of the idea is the go
// command itself (go build, go test, etc.)
//
// Idiomatic usage:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("run", "debug", "disasm")
//	r, err := md.Parse()
//	...
//	switch md.Mode() {
//	case "RUN":
//		...
//	}
//
// Mode comparisons are case insensitive; Mode() always returns the
// selected mode in upper case. The first mode added is the default and
// is selected when no mode argument is present.
package modalflag

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Modes provides a convenient way of handling command line arguments
// divided into modes. The Output field should be specified before
// calling Parse() or help messages will not be seen.
type Modes struct {
	// where to print output (help messages etc.)
	Output io.Writer

	// the underlying flag structure. a new flagset is created on every
	// call to NewArgs() and NewMode()
	flags *flag.FlagSet

	args    []string
	argsIdx int

	subModes []string
	selected string

	additionalHelp string
}

// ParseResult is returned from the Parse() function.
type ParseResult int

// List of valid ParseResult values.
const (
	ParseContinue ParseResult = iota
	ParseHelp
	ParseError
)

// NewArgs initialises the Modes instance with a fresh set of arguments
// (from the command line, typically).
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.argsIdx = 0
	md.NewMode()
}

// NewMode indicates that further arguments should be considered part of
// a new mode. Flags added before the call are forgotten.
func (md *Modes) NewMode() {
	md.subModes = md.subModes[:0]
	md.flags = flag.NewFlagSet("", flag.ContinueOnError)
	md.flags.SetOutput(io.Discard)
}

// AddSubModes adds to the list of modes recognised by the next call to
// Parse(). The first mode in the list is the default.
func (md *Modes) AddSubModes(submodes ...string) {
	for _, m := range submodes {
		md.subModes = append(md.subModes, strings.ToUpper(m))
	}
}

// AdditionalHelp adds text to be displayed after the regular help on
// available flags.
func (md *Modes) AdditionalHelp(help string) {
	md.additionalHelp = help
}

// Mode returns the mode selected by the most recent call to Parse().
func (md *Modes) Mode() string {
	return md.selected
}

// Parse the current layer of arguments. Help messages are written to
// the Output field; the ParseHelp result means one has been printed and
// the program should end without further output.
func (md *Modes) Parse() (ParseResult, error) {
	err := md.flags.Parse(md.args[md.argsIdx:])
	if err != nil {
		if err == flag.ErrHelp {
			md.help()
			return ParseHelp, nil
		}
		return ParseError, err
	}

	if len(md.subModes) > 0 {
		arg := strings.ToUpper(md.flags.Arg(0))

		// assume the default mode until the argument matches
		md.selected = md.subModes[0]
		for i := range md.subModes {
			if md.subModes[i] == arg {
				md.selected = arg
				md.argsIdx++
				break // for loop
			}
		}
	}

	return ParseContinue, nil
}

// RemainingArgs returns the arguments after a call to Parse() that are
// neither flags nor a listed mode.
func (md *Modes) RemainingArgs() []string {
	return md.flags.Args()
}

// GetArg returns the numbered argument that isn't a flag or listed mode.
func (md *Modes) GetArg(i int) string {
	return md.flags.Arg(i)
}

// AddBool flag for next call to Parse().
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

// AddInt flag for next call to Parse().
func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

// AddFloat64 flag for next call to Parse().
func (md *Modes) AddFloat64(name string, value float64, usage string) *float64 {
	return md.flags.Float64(name, value, usage)
}

// AddString flag for next call to Parse().
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}

func (md *Modes) help() {
	if md.Output == nil {
		return
	}

	if len(md.subModes) > 0 {
		fmt.Fprintf(md.Output, "available modes: %s\n", strings.Join(md.subModes, ", "))
		fmt.Fprintf(md.Output, "default: %s\n", md.subModes[0])
	}

	// temporarily direct flag output to our writer for the usage dump
	md.flags.SetOutput(md.Output)
	md.flags.PrintDefaults()
	md.flags.SetOutput(io.Discard)

	if md.additionalHelp != "" {
		fmt.Fprintf(md.Output, "\n%s\n", md.additionalHelp)
	}
}
