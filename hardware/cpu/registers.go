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

package cpu

import "github.com/hathersage/gopher464/hardware/cpu/instructions"

// flag bit positions in the F register. FlagF3 and FlagF5 are the
// undocumented bits, copied from result bits 3 and 5 by most
// operations.
const (
	FlagC  = 0x01
	FlagN  = 0x02
	FlagPV = 0x04
	FlagF3 = 0x08
	FlagH  = 0x10
	FlagF5 = 0x20
	FlagZ  = 0x40
	FlagS  = 0x80
)

// Registers is the full Z80 register file, including the shadow bank
// swapped in by EX AF,AF' and EXX.
type Registers struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8

	// shadow bank
	A2 uint8
	F2 uint8
	B2 uint8
	C2 uint8
	D2 uint8
	E2 uint8
	H2 uint8
	L2 uint8

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	// interrupt vector base and memory refresh
	I uint8
	R uint8
}

// ExAF swaps AF with its shadow.
func (r *Registers) ExAF() {
	r.A, r.A2 = r.A2, r.A
	r.F, r.F2 = r.F2, r.F
}

// Exx swaps BC, DE and HL with their shadows.
func (r *Registers) Exx() {
	r.B, r.B2 = r.B2, r.B
	r.C, r.C2 = r.C2, r.C
	r.D, r.D2 = r.D2, r.D
	r.E, r.E2 = r.E2, r.E
	r.H, r.H2 = r.H2, r.H
	r.L, r.L2 = r.L2, r.L
}

func (r *Registers) reg8(reg instructions.Reg8) uint8 {
	switch reg {
	case instructions.A:
		return r.A
	case instructions.F:
		return r.F
	case instructions.B:
		return r.B
	case instructions.C:
		return r.C
	case instructions.D:
		return r.D
	case instructions.E:
		return r.E
	case instructions.H:
		return r.H
	case instructions.L:
		return r.L
	case instructions.I:
		return r.I
	case instructions.R:
		return r.R
	case instructions.IXH:
		return uint8(r.IX >> 8)
	case instructions.IXL:
		return uint8(r.IX)
	case instructions.IYH:
		return uint8(r.IY >> 8)
	case instructions.IYL:
		return uint8(r.IY)
	}
	panic("unknown 8bit register")
}

func (r *Registers) setReg8(reg instructions.Reg8, v uint8) {
	switch reg {
	case instructions.A:
		r.A = v
	case instructions.F:
		r.F = v
	case instructions.B:
		r.B = v
	case instructions.C:
		r.C = v
	case instructions.D:
		r.D = v
	case instructions.E:
		r.E = v
	case instructions.H:
		r.H = v
	case instructions.L:
		r.L = v
	case instructions.I:
		r.I = v
	case instructions.R:
		r.R = v
	case instructions.IXH:
		r.IX = (r.IX & 0x00ff) | (uint16(v) << 8)
	case instructions.IXL:
		r.IX = (r.IX & 0xff00) | uint16(v)
	case instructions.IYH:
		r.IY = (r.IY & 0x00ff) | (uint16(v) << 8)
	case instructions.IYL:
		r.IY = (r.IY & 0xff00) | uint16(v)
	default:
		panic("unknown 8bit register")
	}
}

func (r *Registers) reg16(reg instructions.Reg16) uint16 {
	switch reg {
	case instructions.AF:
		return uint16(r.A)<<8 | uint16(r.F)
	case instructions.BC:
		return uint16(r.B)<<8 | uint16(r.C)
	case instructions.DE:
		return uint16(r.D)<<8 | uint16(r.E)
	case instructions.HL:
		return uint16(r.H)<<8 | uint16(r.L)
	case instructions.IX:
		return r.IX
	case instructions.IY:
		return r.IY
	case instructions.SP:
		return r.SP
	case instructions.PC:
		return r.PC
	}
	panic("unknown 16bit register")
}

func (r *Registers) setReg16(reg instructions.Reg16, v uint16) {
	switch reg {
	case instructions.AF:
		r.A = uint8(v >> 8)
		r.F = uint8(v)
	case instructions.BC:
		r.B = uint8(v >> 8)
		r.C = uint8(v)
	case instructions.DE:
		r.D = uint8(v >> 8)
		r.E = uint8(v)
	case instructions.HL:
		r.H = uint8(v >> 8)
		r.L = uint8(v)
	case instructions.IX:
		r.IX = v
	case instructions.IY:
		r.IY = v
	case instructions.SP:
		r.SP = v
	case instructions.PC:
		r.PC = v
	default:
		panic("unknown 16bit register")
	}
}

func (r *Registers) flag(f uint8) bool {
	return r.F&f != 0
}

func (r *Registers) setFlag(f uint8, v bool) {
	if v {
		r.F |= f
	} else {
		r.F &^= f
	}
}

// incR advances the low seven bits of the refresh register, as happens
// on every opcode fetch. Bit 7 is preserved.
func (r *Registers) incR() {
	r.R = (r.R & 0x80) | ((r.R + 1) & 0x7f)
}
