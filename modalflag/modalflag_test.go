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

package modalflag_test

import (
	"strings"
	"testing"

	"github.com/hathersage/gopher464/modalflag"
	"github.com/hathersage/gopher464/test"
)

func TestNoModesNoFlags(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{})

	p, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, md.Mode(), "")
}

func TestFlagsAndArgs(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"-test", "1", "2"})
	testFlag := md.AddBool("test", false, "test flag")

	p, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, *testFlag, true)
	test.Equate(t, len(md.RemainingArgs()), 2)
	test.Equate(t, md.GetArg(0), "1")
}

func TestUndefinedFlag(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"-unrecognised"})

	p, err := md.Parse()
	test.ExpectedFailure(t, err)
	test.Equate(t, p == modalflag.ParseError, true)
}

func TestModeSelection(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"disasm", "file.bin"})
	md.AddSubModes("RUN", "DEBUG", "DISASM")

	p, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, md.Mode(), "DISASM")

	// the mode argument is consumed; the file argument is left for the
	// mode's own Parse()
	md.NewMode()
	p, err = md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, md.GetArg(0), "file.bin")
}

func TestDefaultMode(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"file.dsk"})
	md.AddSubModes("RUN", "DEBUG", "DISASM")

	_, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, md.Mode(), "RUN")

	md.NewMode()
	_, err = md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, md.GetArg(0), "file.dsk")
}

func TestHelp(t *testing.T) {
	output := &strings.Builder{}

	md := modalflag.Modes{Output: output}
	md.NewArgs([]string{"-help"})
	md.AddSubModes("RUN", "DEBUG", "DISASM")
	md.AddBool("test", true, "test flag")

	p, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseHelp, true)

	help := output.String()
	test.Equate(t, strings.Contains(help, "available modes: RUN, DEBUG, DISASM"), true)
	test.Equate(t, strings.Contains(help, "default: RUN"), true)
	test.Equate(t, strings.Contains(help, "test flag"), true)
}