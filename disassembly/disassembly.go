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

// Package disassembly produces listings of Z80 machine code. It works
// purely from a memory image, the CPU is never consulted, so it can
// be used on a live machine without disturbing it.
//
// Decoding is linear from the starting address. Z80 code freely mixes
// data and instructions so entries after a data block may be
// misaligned; the listing is a best effort, as any static Z80
// disassembly must be.
package disassembly

import (
	"fmt"
	"io"
	"strings"

	"github.com/hathersage/gopher464/hardware/cpu/instructions"
)

// Entry is one disassembled instruction.
type Entry struct {
	Address  uint16
	Bytes    []uint8
	Mnemonic string
}

func (e Entry) String() string {
	b := make([]string, len(e.Bytes))
	for i, v := range e.Bytes {
		b[i] = fmt.Sprintf("%02x", v)
	}
	return fmt.Sprintf("%#06x  %-12s  %s", e.Address, strings.Join(b, " "), e.Mnemonic)
}

// Disassembly is a decoded run of instructions.
type Disassembly struct {
	Entries []Entry
}

// FromMemory decodes count instructions starting at the address.
// Decoding wraps at the top of the address space.
func FromMemory(mem instructions.Memory, address uint16, count int) *Disassembly {
	dsm := &Disassembly{
		Entries: make([]Entry, 0, count),
	}

	for i := 0; i < count; i++ {
		ins := instructions.Decode(mem, address)

		e := Entry{
			Address:  address,
			Bytes:    make([]uint8, ins.Length),
			Mnemonic: ins.String(),
		}
		for j := range e.Bytes {
			e.Bytes[j] = mem.Read(address + uint16(j))
		}

		dsm.Entries = append(dsm.Entries, e)
		address += ins.Length
	}

	return dsm
}

// Write the listing, one entry per line.
func (dsm *Disassembly) Write(output io.Writer) error {
	for _, e := range dsm.Entries {
		_, err := io.WriteString(output, e.String())
		if err != nil {
			return err
		}
		_, err = io.WriteString(output, "\n")
		if err != nil {
			return err
		}
	}
	return nil
}
