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

// Package debugger implements the terminal debugger. It owns the
// machine completely: the emulation only ever advances from inside
// the command loop, so there is no locking anywhere in the hardware
// packages.
//
// The terminal is left in canonical mode at the prompt. During RUN it
// is switched to a non-blocking cbreak mode so that any keypress
// halts the machine.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hathersage/gopher464/curated"
	"github.com/hathersage/gopher464/hardware"
)

// sentinal error messages
const (
	UnknownCommand = "debugger: unknown command: %s"
	BadArgument    = "debugger: %s: bad argument: %s"
)

// number of instructions to run between keypress polls during RUN
const pollInterval = 4096

// Debugger is the terminal debugger. Create one with NewDebugger().
type Debugger struct {
	mc     *hardware.CPC
	input  io.Reader
	output io.Writer
	modes  *termModes

	breakpoints map[uint16]bool

	// an empty line at the prompt repeats the last command
	lastInput string
}

// NewDebugger is the preferred method of initialisation for the
// Debugger type. Input and output would normally be os.Stdin and
// os.Stdout; anything else loses the terminal mode handling but is
// otherwise fully functional.
func NewDebugger(mc *hardware.CPC, input io.Reader, output io.Writer) *Debugger {
	dbg := &Debugger{
		mc:          mc,
		input:       input,
		output:      output,
		breakpoints: make(map[uint16]bool),
	}

	if f, ok := input.(*os.File); ok {
		dbg.modes = newTermModes(f)
	} else {
		dbg.modes = &termModes{}
	}

	return dbg
}

// Start the command loop. The loop ends on the QUIT command or when
// the input runs dry.
func (dbg *Debugger) Start() error {
	dbg.modes.canonicalMode()
	defer dbg.modes.canonicalMode()

	scanner := bufio.NewScanner(dbg.input)

	for {
		fmt.Fprintf(dbg.output, "[ %#06x ] ", dbg.mc.CPU.Reg.PC)

		if !scanner.Scan() {
			fmt.Fprintln(dbg.output, "")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			line = dbg.lastInput
		}
		if line == "" {
			continue
		}
		dbg.lastInput = line

		quit, err := dbg.dispatch(line)
		if err != nil {
			fmt.Fprintf(dbg.output, "* %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (dbg *Debugger) dispatch(line string) (bool, error) {
	fields := strings.Fields(line)
	command := strings.ToUpper(fields[0])
	args := fields[1:]

	switch command {
	case "STEP":
		n := 1
		if len(args) > 0 {
			var err error
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return false, curated.Errorf(BadArgument, command, args[0])
			}
		}
		for i := 0; i < n; i++ {
			dbg.mc.Step()
		}
		dbg.printNextInstruction()

	case "REGS":
		dbg.printRegisters()

	case "DISASM":
		n := 16
		if len(args) > 0 {
			var err error
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return false, curated.Errorf(BadArgument, command, args[0])
			}
		}
		_ = dbg.mc.Disassemble(n).Write(dbg.output)

	case "MEM":
		if len(args) == 0 {
			return false, curated.Errorf(BadArgument, command, "address required")
		}
		address, err := parseAddress(args[0])
		if err != nil {
			return false, curated.Errorf(BadArgument, command, args[0])
		}
		dbg.printMemory(address)

	case "BREAK":
		if len(args) == 0 {
			dbg.printBreakpoints()
			return false, nil
		}
		address, err := parseAddress(args[0])
		if err != nil {
			return false, curated.Errorf(BadArgument, command, args[0])
		}
		if dbg.breakpoints[address] {
			delete(dbg.breakpoints, address)
			fmt.Fprintf(dbg.output, "breakpoint removed from %#06x\n", address)
		} else {
			dbg.breakpoints[address] = true
			fmt.Fprintf(dbg.output, "breakpoint added at %#06x\n", address)
		}

	case "RUN":
		dbg.run()

	case "HELP":
		fmt.Fprintln(dbg.output, "STEP [n], REGS, DISASM [n], MEM address, BREAK [address], RUN, QUIT")

	case "QUIT":
		return true, nil

	default:
		return false, curated.Errorf(UnknownCommand, fields[0])
	}

	return false, nil
}

// run the machine until a breakpoint is reached or a key is pressed.
func (dbg *Debugger) run() {
	dbg.modes.pollMode()
	defer dbg.modes.canonicalMode()

	instructions := 0
	_ = dbg.mc.Run(func() (bool, error) {
		if dbg.breakpoints[dbg.mc.CPU.Reg.PC] {
			fmt.Fprintf(dbg.output, "breakpoint at %#06x\n", dbg.mc.CPU.Reg.PC)
			return false, nil
		}

		instructions++
		if instructions%pollInterval == 0 && dbg.modes.keyPressed() {
			fmt.Fprintln(dbg.output, "interrupted")
			return false, nil
		}

		return true, nil
	})

	dbg.printNextInstruction()
}

func (dbg *Debugger) printNextInstruction() {
	dsm := dbg.mc.Disassemble(1)
	if len(dsm.Entries) > 0 {
		fmt.Fprintln(dbg.output, dsm.Entries[0].String())
	}
}

// flagString renders the F register in the conventional szyhxpnc
// order, upper case for a set flag.
func flagString(f uint8) string {
	names := "SZYHXPNC"
	s := make([]byte, 8)
	for i := 0; i < 8; i++ {
		if f&(0x80>>i) != 0 {
			s[i] = names[i]
		} else {
			s[i] = '-'
		}
	}
	return string(s)
}

func (dbg *Debugger) printRegisters() {
	reg := dbg.mc.CPU.Reg

	fmt.Fprintf(dbg.output, "pc %#06x  sp %#06x  ix %#06x  iy %#06x\n",
		reg.PC, reg.SP, reg.IX, reg.IY)
	fmt.Fprintf(dbg.output, "af %#06x  bc %#06x  de %#06x  hl %#06x\n",
		uint16(reg.A)<<8|uint16(reg.F), uint16(reg.B)<<8|uint16(reg.C),
		uint16(reg.D)<<8|uint16(reg.E), uint16(reg.H)<<8|uint16(reg.L))
	fmt.Fprintf(dbg.output, "af'%#06x  bc'%#06x  de'%#06x  hl'%#06x\n",
		uint16(reg.A2)<<8|uint16(reg.F2), uint16(reg.B2)<<8|uint16(reg.C2),
		uint16(reg.D2)<<8|uint16(reg.E2), uint16(reg.H2)<<8|uint16(reg.L2))
	fmt.Fprintf(dbg.output, "i %#04x  r %#04x  im %d  iff1 %v  flags %s\n",
		reg.I, reg.R, dbg.mc.CPU.IM, dbg.mc.CPU.IFF1, flagString(reg.F))
}

func (dbg *Debugger) printMemory(address uint16) {
	for row := 0; row < 8; row++ {
		fmt.Fprintf(dbg.output, "%#06x ", address)
		for col := 0; col < 16; col++ {
			fmt.Fprintf(dbg.output, " %02x", dbg.mc.Mem.Read(address))
			address++
		}
		fmt.Fprintln(dbg.output, "")
	}
}

func (dbg *Debugger) printBreakpoints() {
	if len(dbg.breakpoints) == 0 {
		fmt.Fprintln(dbg.output, "no breakpoints")
		return
	}
	for address := range dbg.breakpoints {
		fmt.Fprintf(dbg.output, "%#06x\n", address)
	}
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}