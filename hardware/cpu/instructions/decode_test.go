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

package instructions_test

import (
	"testing"

	"github.com/hathersage/gopher464/hardware/cpu/instructions"
	"github.com/hathersage/gopher464/test"
)

type byteMem []uint8

func (m byteMem) Read(address uint16) uint8 {
	if int(address) >= len(m) {
		return 0
	}
	return m[address]
}

func decodeOne(t *testing.T, program ...uint8) instructions.Instruction {
	t.Helper()
	return instructions.Decode(byteMem(program), 0)
}

func TestDecodeMainTable(t *testing.T) {
	tests := []struct {
		program  []uint8
		mnemonic string
		length   uint16
		cycles   int
	}{
		{[]uint8{0x00}, "nop", 1, 1},
		{[]uint8{0x41}, "ld b,c", 1, 1},
		{[]uint8{0x3e, 0x42}, "ld a,0x42", 2, 2},
		{[]uint8{0x7e}, "ld a,(hl)", 1, 2},
		{[]uint8{0x36, 0x10}, "ld (hl),0x10", 2, 3},
		{[]uint8{0x21, 0x34, 0x12}, "ld hl,0x1234", 3, 3},
		{[]uint8{0x2a, 0x00, 0x40}, "ld hl,(0x4000)", 3, 5},
		{[]uint8{0x32, 0x00, 0xc0}, "ld (0xc000),a", 3, 4},
		{[]uint8{0x80}, "add a,b", 1, 1},
		{[]uint8{0xce, 0x01}, "adc a,0x01", 2, 2},
		{[]uint8{0x96}, "sub (hl)", 1, 2},
		{[]uint8{0xa9}, "xor c", 1, 1},
		{[]uint8{0xbe}, "cp (hl)", 1, 2},
		{[]uint8{0x34}, "inc (hl)", 1, 3},
		{[]uint8{0x09}, "add hl,bc", 1, 3},
		{[]uint8{0x03}, "inc bc", 1, 2},
		{[]uint8{0xc5}, "push bc", 1, 4},
		{[]uint8{0xf1}, "pop af", 1, 3},
		{[]uint8{0xeb}, "ex de,hl", 1, 1},
		{[]uint8{0xe3}, "ex (sp),hl", 1, 6},
		{[]uint8{0xc3, 0x00, 0x80}, "jp 0x8000", 3, 3},
		{[]uint8{0xca, 0x00, 0x80}, "jp z,0x8000", 3, 3},
		{[]uint8{0xe9}, "jp (hl)", 1, 1},
		{[]uint8{0xcd, 0x00, 0x80}, "call 0x8000", 3, 5},
		{[]uint8{0xc9}, "ret", 1, 3},
		{[]uint8{0xc0}, "ret nz", 1, 4},
		{[]uint8{0xff}, "rst 0x38", 1, 4},
		{[]uint8{0xdb, 0xf4}, "in a,(0xf4)", 2, 3},
		{[]uint8{0xd3, 0x7f}, "out (0x7f),a", 2, 3},
		{[]uint8{0x76}, "halt", 1, 1},
		{[]uint8{0xf3}, "di", 1, 1},
	}

	for _, tc := range tests {
		ins := decodeOne(t, tc.program...)
		test.Equate(t, ins.String(), tc.mnemonic)
		test.Equate(t, ins.Length, tc.length)
		test.Equate(t, ins.Cycles, tc.cycles)
	}
}

func TestDecodeRelativeBranches(t *testing.T) {
	// jr to itself
	ins := decodeOne(t, 0x18, 0xfe)
	test.Equate(t, ins.String(), "jr 0x0000")
	test.Equate(t, ins.Cycles, 3)

	// forward jr nz
	ins = decodeOne(t, 0x20, 0x05)
	test.Equate(t, ins.String(), "jr nz,0x0007")

	// djnz carries the taken cost
	ins = decodeOne(t, 0x10, 0xfe)
	test.Equate(t, ins.String(), "djnz 0x0000")
	test.Equate(t, ins.Cycles, 4)

	// a branch later in memory resolves relative to its own address
	mem := byteMem{0x00, 0x00, 0x18, 0xfc}
	ins = instructions.Decode(mem, 2)
	test.Equate(t, ins.String(), "jr 0x0000")
}

func TestDecodeCB(t *testing.T) {
	ins := decodeOne(t, 0xcb, 0x00)
	test.Equate(t, ins.String(), "rlc b")
	test.Equate(t, ins.Length, uint16(2))
	test.Equate(t, ins.Cycles, 2)

	ins = decodeOne(t, 0xcb, 0x46)
	test.Equate(t, ins.String(), "bit 0,(hl)")
	test.Equate(t, ins.Cycles, 3)

	ins = decodeOne(t, 0xcb, 0xfe)
	test.Equate(t, ins.String(), "set 7,(hl)")
	test.Equate(t, ins.Cycles, 4)
}

func TestDecodeED(t *testing.T) {
	ins := decodeOne(t, 0xed, 0xb0)
	test.Equate(t, ins.String(), "ldir")
	test.Equate(t, ins.Length, uint16(2))
	test.Equate(t, ins.Cycles, 6)

	ins = decodeOne(t, 0xed, 0x42)
	test.Equate(t, ins.String(), "sbc hl,bc")
	test.Equate(t, ins.Cycles, 4)

	ins = decodeOne(t, 0xed, 0x4b, 0x00, 0x10)
	test.Equate(t, ins.String(), "ld bc,(0x1000)")
	test.Equate(t, ins.Length, uint16(4))
	test.Equate(t, ins.Cycles, 6)

	ins = decodeOne(t, 0xed, 0x78)
	test.Equate(t, ins.String(), "in a,(bc)")
	test.Equate(t, ins.Cycles, 4)

	ins = decodeOne(t, 0xed, 0x56)
	test.Equate(t, ins.String(), "im 1")

	// holes in the ed table decode as no-ops
	ins = decodeOne(t, 0xed, 0x00)
	test.Equate(t, ins.Operation == instructions.Illegal, true)
	test.Equate(t, ins.Length, uint16(2))
}

func TestDecodeIndexed(t *testing.T) {
	ins := decodeOne(t, 0xdd, 0x7e, 0x05)
	test.Equate(t, ins.String(), "ld a,(ix+5)")
	test.Equate(t, ins.Length, uint16(3))
	test.Equate(t, ins.Cycles, 5)

	ins = decodeOne(t, 0xfd, 0x36, 0xfe, 0x42)
	test.Equate(t, ins.String(), "ld (iy-2),0x42")
	test.Equate(t, ins.Length, uint16(4))
	test.Equate(t, ins.Cycles, 6)

	// h maps to ixh only when no memory operand is involved
	ins = decodeOne(t, 0xdd, 0x64)
	test.Equate(t, ins.String(), "ld ixh,ixh")
	ins = decodeOne(t, 0xdd, 0x66, 0x01)
	test.Equate(t, ins.String(), "ld h,(ix+1)")

	ins = decodeOne(t, 0xdd, 0xe9)
	test.Equate(t, ins.String(), "jp (ix)")
	test.Equate(t, ins.Cycles, 2)

	ins = decodeOne(t, 0xdd, 0x09)
	test.Equate(t, ins.String(), "add ix,bc")
	test.Equate(t, ins.Cycles, 4)

	// the prefixed direct loads cost one more than the hl form
	ins = decodeOne(t, 0xdd, 0x2a, 0x00, 0x40)
	test.Equate(t, ins.String(), "ld ix,(0x4000)")
	test.Equate(t, ins.Cycles, 6)
	ins = decodeOne(t, 0xfd, 0x22, 0x00, 0x40)
	test.Equate(t, ins.String(), "ld (0x4000),iy")
	test.Equate(t, ins.Cycles, 6)
	ins = decodeOne(t, 0x2a, 0x00, 0x40)
	test.Equate(t, ins.Cycles, 5)

	// the last of a run of index prefixes wins
	ins = decodeOne(t, 0xdd, 0xfd, 0x21, 0x00, 0x10)
	test.Equate(t, ins.String(), "ld iy,0x1000")
}

func TestDecodeIndexCB(t *testing.T) {
	ins := decodeOne(t, 0xdd, 0xcb, 0x03, 0x06)
	test.Equate(t, ins.String(), "rlc (ix+3)")
	test.Equate(t, ins.Length, uint16(4))
	test.Equate(t, ins.Cycles, 7)

	// register field other than (hl) names the undocumented copy form
	ins = decodeOne(t, 0xdd, 0xcb, 0x03, 0x00)
	test.Equate(t, ins.String(), "rlc (ix+3),b")

	ins = decodeOne(t, 0xfd, 0xcb, 0xff, 0x7e)
	test.Equate(t, ins.String(), "bit 7,(iy-1)")
	test.Equate(t, ins.Cycles, 6)
}
