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

package debugger_test

import (
	"strings"
	"testing"

	"github.com/hathersage/gopher464/debugger"
	"github.com/hathersage/gopher464/hardware"
	"github.com/hathersage/gopher464/test"
)

// session runs a scripted debugger session and returns the transcript
func session(t *testing.T, mc *hardware.CPC, script string) string {
	t.Helper()

	output := &strings.Builder{}
	dbg := debugger.NewDebugger(mc, strings.NewReader(script), output)

	err := dbg.Start()
	test.ExpectedSuccess(t, err)

	return output.String()
}

func TestStepAndRegisters(t *testing.T) {
	mc := hardware.NewCPC()
	mc.Mem.Write(0x0000, 0x3e) // ld a,0x42
	mc.Mem.Write(0x0001, 0x42)
	mc.Mem.Write(0x0002, 0x76) // halt

	transcript := session(t, mc, "STEP\nREGS\nQUIT\n")

	test.Equate(t, strings.Contains(transcript, "[ 0x0000 ]"), true)
	test.Equate(t, mc.CPU.Reg.PC, uint16(0x0002))
	test.Equate(t, strings.Contains(transcript, "halt"), true)
	test.Equate(t, strings.Contains(transcript, "af 0x4200"), true)
}

func TestEmptyLineRepeats(t *testing.T) {
	mc := hardware.NewCPC()
	mc.Mem.Write(0x0000, 0x3e) // ld a,0x42
	mc.Mem.Write(0x0001, 0x42)
	mc.Mem.Write(0x0002, 0x76) // halt

	_ = session(t, mc, "STEP\n\nQUIT\n")

	test.Equate(t, mc.CPU.Halted, true)
}

func TestBreakpoint(t *testing.T) {
	mc := hardware.NewCPC()

	transcript := session(t, mc, "BREAK 0x0005\nRUN\nQUIT\n")

	test.Equate(t, strings.Contains(transcript, "breakpoint added at 0x0005"), true)
	test.Equate(t, strings.Contains(transcript, "breakpoint at 0x0005"), true)
	test.Equate(t, mc.CPU.Reg.PC, uint16(0x0005))

	// a second BREAK at the same address removes it
	transcript = session(t, mc, "BREAK 0x0005\nBREAK\nQUIT\n")
	test.Equate(t, strings.Contains(transcript, "breakpoint removed from 0x0005"), true)
	test.Equate(t, strings.Contains(transcript, "no breakpoints"), true)
}

func TestMemoryDump(t *testing.T) {
	mc := hardware.NewCPC()
	mc.Mem.Write(0x4000, 0xde)
	mc.Mem.Write(0x4001, 0xad)

	transcript := session(t, mc, "MEM 0x4000\nQUIT\n")

	test.Equate(t, strings.Contains(transcript, "0x4000"), true)
	test.Equate(t, strings.Contains(transcript, "de ad"), true)
}

func TestUnknownCommand(t *testing.T) {
	mc := hardware.NewCPC()

	transcript := session(t, mc, "TELEPORT\nQUIT\n")

	test.Equate(t, strings.Contains(transcript, "* debugger: unknown command: TELEPORT"), true)
}

func TestBadArgument(t *testing.T) {
	mc := hardware.NewCPC()

	transcript := session(t, mc, "STEP zero\nMEM\nQUIT\n")

	test.Equate(t, strings.Contains(transcript, "STEP: bad argument: zero"), true)
	test.Equate(t, strings.Contains(transcript, "MEM: bad argument: address required"), true)
}