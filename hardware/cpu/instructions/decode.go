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

package instructions

// Memory is the read-only view of the address space required to decode
// an instruction. Both the CPU and the disassembler satisfy the decoder
// through this interface.
type Memory interface {
	Read(address uint16) uint8
}

// Decode the instruction beginning at the address. Decoding never
// fails: opcodes the CPU does not define decode to the Illegal
// operation.
func Decode(mem Memory, address uint16) Instruction {
	d := decoder{mem: mem, origin: address}
	ins := d.decode()
	ins.Length = d.offset
	if ins.Cycles == 0 {
		ins.Cycles = nopCost(ins)
	}
	return ins
}

type decoder struct {
	mem    Memory
	origin uint16
	offset uint16
}

func (d *decoder) next() uint8 {
	v := d.mem.Read(d.origin + d.offset)
	d.offset++
	return v
}

func (d *decoder) nextWord() uint16 {
	lo := d.next()
	hi := d.next()
	return uint16(lo) | (uint16(hi) << 8)
}

// relative branch target. must be called after the displacement byte
// has been consumed so that the offset points at the next instruction.
func (d *decoder) relTarget(disp int8) uint16 {
	return d.origin + d.offset + uint16(int16(disp))
}

func reg8(r Reg8) Operand {
	return Operand{Class: Register8, R8: r}
}

func reg16(r Reg16) Operand {
	return Operand{Class: Register16, R16: r}
}

func indirect(r Reg16) Operand {
	return Operand{Class: RegisterIndirect, R16: r}
}

func imm8(v uint8) Operand {
	return Operand{Class: Immediate8, Value: uint16(v)}
}

func imm16(v uint16) Operand {
	return Operand{Class: Immediate16, Value: v}
}

func dir8(v uint8) Operand {
	return Operand{Class: Direct8, Value: uint16(v)}
}

func dir16(v uint16) Operand {
	return Operand{Class: Direct16, Value: v}
}

func indexed(r Reg16, disp int8) Operand {
	return Operand{Class: Indexed, R16: r, Disp: disp}
}

// decode field tables. the opcode is split into the conventional x/y/z
// (and p/q) fields; see the "decoding Z80 opcodes" literature.
var condTable = [8]Condition{NonZero, Zero, NoCarry, IsCarry, ParityOdd, ParityEven, SignPositive, SignNegative}
var aluTable = [8]Operation{Add, Adc, Sub, Sbc, And, Xor, Or, Cp}
var rotTable = [8]Operation{Rlc, Rrc, Rl, Rr, Sla, Sra, Sll, Srl}
var accTable = [8]Operation{Rlca, Rrca, Rla, Rra, Daa, Cpl, Scf, Ccf}
var plainReg = [8]Reg8{B, C, D, E, H, L, A /*unused*/, A}

// regOperand returns the operand for a 3bit register field. field 6 is
// (hl), or (ix+d)/(iy+d) under an index prefix, in which case the
// displacement byte is consumed here. useHalves selects the
// undocumented ixh/ixl/iyh/iyl mapping for fields 4 and 5.
func (d *decoder) regOperand(field uint8, idx Reg16, useHalves bool) Operand {
	switch field {
	case 4:
		if useHalves && idx != HL {
			if idx == IX {
				return reg8(IXH)
			}
			return reg8(IYH)
		}
		return reg8(H)
	case 5:
		if useHalves && idx != HL {
			if idx == IX {
				return reg8(IXL)
			}
			return reg8(IYL)
		}
		return reg8(L)
	case 6:
		if idx == HL {
			return indirect(HL)
		}
		return indexed(idx, int8(d.next()))
	}
	return reg8(plainReg[field])
}

// rpOperand maps a 2bit register pair field for the sp-terminated
// table. the hl slot follows the active index register.
func rpOperand(field uint8, idx Reg16) Reg16 {
	switch field {
	case 0:
		return BC
	case 1:
		return DE
	case 2:
		return idx
	}
	return SP
}

// rp2Operand is the af-terminated variant used by push/pop.
func rp2Operand(field uint8, idx Reg16) Reg16 {
	if field == 3 {
		return AF
	}
	return rpOperand(field, idx)
}

func (d *decoder) decode() Instruction {
	op := d.next()
	switch op {
	case 0xcb:
		return d.decodeCB()
	case 0xed:
		return d.decodeED()
	case 0xdd:
		return d.decodeIndex(IX)
	case 0xfd:
		return d.decodeIndex(IY)
	}
	return d.decodeMain(op, HL)
}

// decodeIndex handles the dd/fd prefixes. a repeated prefix supersedes
// the previous one, as on the real silicon.
func (d *decoder) decodeIndex(idx Reg16) Instruction {
	op := d.next()
	switch op {
	case 0xdd:
		return d.decodeIndex(IX)
	case 0xfd:
		return d.decodeIndex(IY)
	case 0xcb:
		disp := int8(d.next())
		return d.decodeIndexCB(idx, disp)
	case 0xed:
		// an index prefix before ed has no effect
		return d.decodeED()
	}
	return d.decodeMain(op, idx)
}

func (d *decoder) decodeMain(op uint8, idx Reg16) Instruction {
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07
	p := y >> 1
	q := y & 0x01

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return Instruction{Operation: Nop}
			case 1:
				return Instruction{Operation: ExAF}
			case 2:
				disp := int8(d.next())
				return Instruction{Operation: Djnz, Dst: imm16(d.relTarget(disp))}
			case 3:
				disp := int8(d.next())
				return Instruction{Operation: Jr, Cond: Always, Dst: imm16(d.relTarget(disp))}
			default:
				disp := int8(d.next())
				return Instruction{Operation: Jr, Cond: condTable[y-4], Dst: imm16(d.relTarget(disp))}
			}
		case 1:
			if q == 0 {
				return Instruction{Operation: Ld, Dst: reg16(rpOperand(p, idx)), Src: imm16(d.nextWord())}
			}
			return Instruction{Operation: Add16, Dst: reg16(idx), Src: reg16(rpOperand(p, idx))}
		case 2:
			switch {
			case q == 0 && p == 0:
				return Instruction{Operation: Ld, Dst: indirect(BC), Src: reg8(A)}
			case q == 0 && p == 1:
				return Instruction{Operation: Ld, Dst: indirect(DE), Src: reg8(A)}
			case q == 0 && p == 2:
				return Instruction{Operation: Ld, Dst: dir16(d.nextWord()), Src: reg16(idx)}
			case q == 0 && p == 3:
				return Instruction{Operation: Ld, Dst: dir16(d.nextWord()), Src: reg8(A)}
			case q == 1 && p == 0:
				return Instruction{Operation: Ld, Dst: reg8(A), Src: indirect(BC)}
			case q == 1 && p == 1:
				return Instruction{Operation: Ld, Dst: reg8(A), Src: indirect(DE)}
			case q == 1 && p == 2:
				return Instruction{Operation: Ld, Dst: reg16(idx), Src: dir16(d.nextWord())}
			default:
				return Instruction{Operation: Ld, Dst: reg8(A), Src: dir16(d.nextWord())}
			}
		case 3:
			if q == 0 {
				return Instruction{Operation: Inc16, Dst: reg16(rpOperand(p, idx))}
			}
			return Instruction{Operation: Dec16, Dst: reg16(rpOperand(p, idx))}
		case 4:
			return Instruction{Operation: Inc, Dst: d.regOperand(y, idx, true)}
		case 5:
			return Instruction{Operation: Dec, Dst: d.regOperand(y, idx, true)}
		case 6:
			dst := d.regOperand(y, idx, true)
			return Instruction{Operation: Ld, Dst: dst, Src: imm8(d.next())}
		default:
			return Instruction{Operation: accTable[y]}
		}

	case 1:
		if y == 6 && z == 6 {
			return Instruction{Operation: Halt}
		}
		// when one side is the indexed memory operand the other side
		// keeps its plain h/l meaning
		useHalves := y != 6 && z != 6
		dst := d.regOperand(y, idx, useHalves)
		src := d.regOperand(z, idx, useHalves)
		return Instruction{Operation: Ld, Dst: dst, Src: src}

	case 2:
		return aluInstruction(aluTable[y], d.regOperand(z, idx, true))

	default:
		switch z {
		case 0:
			return Instruction{Operation: Ret, Cond: condTable[y]}
		case 1:
			if q == 0 {
				return Instruction{Operation: Pop, Dst: reg16(rp2Operand(p, idx))}
			}
			switch p {
			case 0:
				return Instruction{Operation: Ret, Cond: Always}
			case 1:
				return Instruction{Operation: Exx}
			case 2:
				return Instruction{Operation: Jp, Cond: Always, Dst: indirect(idx)}
			default:
				return Instruction{Operation: Ld, Dst: reg16(SP), Src: reg16(idx)}
			}
		case 2:
			return Instruction{Operation: Jp, Cond: condTable[y], Dst: imm16(d.nextWord())}
		case 3:
			switch y {
			case 0:
				return Instruction{Operation: Jp, Cond: Always, Dst: imm16(d.nextWord())}
			case 2:
				return Instruction{Operation: Out, Dst: dir8(d.next()), Src: reg8(A)}
			case 3:
				return Instruction{Operation: In, Dst: reg8(A), Src: dir8(d.next())}
			case 4:
				return Instruction{Operation: ExSP, Dst: indirect(SP), Src: reg16(idx)}
			case 5:
				return Instruction{Operation: Ex, Dst: reg16(DE), Src: reg16(HL)}
			case 6:
				return Instruction{Operation: Di}
			default:
				return Instruction{Operation: Ei}
			}
		case 4:
			return Instruction{Operation: Call, Cond: condTable[y], Dst: imm16(d.nextWord())}
		case 5:
			if q == 0 {
				return Instruction{Operation: Push, Dst: reg16(rp2Operand(p, idx))}
			}
			// p 1-3 are the dd/ed/fd prefixes, consumed before we get here
			return Instruction{Operation: Call, Cond: Always, Dst: imm16(d.nextWord())}
		case 6:
			return aluInstruction(aluTable[y], imm8(d.next()))
		default:
			return Instruction{Operation: Rst, Dst: imm8(y * 8)}
		}
	}
}

// aluInstruction normalises the 8bit arithmetic forms: add/adc/sbc name
// the accumulator, the other operations don't.
func aluInstruction(op Operation, src Operand) Instruction {
	switch op {
	case Add, Adc, Sbc:
		return Instruction{Operation: op, Dst: reg8(A), Src: src}
	}
	return Instruction{Operation: op, Src: src}
}

func (d *decoder) decodeCB() Instruction {
	op := d.next()
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07

	target := d.regOperand(z, HL, false)

	switch x {
	case 0:
		return Instruction{Operation: rotTable[y], Dst: target}
	case 1:
		return Instruction{Operation: BitTest, Bit: y, Dst: target}
	case 2:
		return Instruction{Operation: Res, Bit: y, Dst: target}
	default:
		return Instruction{Operation: Set, Bit: y, Dst: target}
	}
}

// decodeIndexCB handles the doubly prefixed ddcb/fdcb block. every
// operation works on (ix+d); a register field other than 6 additionally
// copies the result into that register (undocumented), except for bit
// which only tests.
func (d *decoder) decodeIndexCB(idx Reg16, disp int8) Instruction {
	op := d.next()
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07

	target := indexed(idx, disp)

	var cp Operand
	if z != 6 {
		cp = reg8(plainReg[z])
	}

	switch x {
	case 0:
		return Instruction{Operation: rotTable[y], Dst: target, Copy: cp}
	case 1:
		return Instruction{Operation: BitTest, Bit: y, Dst: target}
	case 2:
		return Instruction{Operation: Res, Bit: y, Dst: target, Copy: cp}
	default:
		return Instruction{Operation: Set, Bit: y, Dst: target, Copy: cp}
	}
}

func (d *decoder) decodeED() Instruction {
	op := d.next()
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07
	p := y >> 1
	q := y & 0x01

	if x == 1 {
		switch z {
		case 0:
			if y == 6 {
				// in (c) - flags only
				return Instruction{Operation: InC, Src: indirect(BC)}
			}
			return Instruction{Operation: InC, Dst: reg8(plainReg[y]), Src: indirect(BC)}
		case 1:
			if y == 6 {
				// out (c),0
				return Instruction{Operation: OutC, Dst: indirect(BC), Src: imm8(0)}
			}
			return Instruction{Operation: OutC, Dst: indirect(BC), Src: reg8(plainReg[y])}
		case 2:
			if q == 0 {
				return Instruction{Operation: Sbc16, Dst: reg16(HL), Src: reg16(rpOperand(p, HL))}
			}
			return Instruction{Operation: Adc16, Dst: reg16(HL), Src: reg16(rpOperand(p, HL))}
		case 3:
			// the ed forms of ld rr,(nn) are a cycle slower than the
			// unprefixed hl form so the cost is set here
			if q == 0 {
				return Instruction{Operation: Ld, Dst: dir16(d.nextWord()), Src: reg16(rpOperand(p, HL)), Cycles: 6}
			}
			return Instruction{Operation: Ld, Dst: reg16(rpOperand(p, HL)), Src: dir16(d.nextWord()), Cycles: 6}
		case 4:
			return Instruction{Operation: Neg}
		case 5:
			if y == 1 {
				return Instruction{Operation: Reti}
			}
			return Instruction{Operation: Retn}
		case 6:
			return Instruction{Operation: Im, Mode: [8]int{0, 0, 1, 2, 0, 0, 1, 2}[y]}
		default:
			switch y {
			case 0:
				return Instruction{Operation: Ld, Dst: reg8(I), Src: reg8(A)}
			case 1:
				return Instruction{Operation: Ld, Dst: reg8(R), Src: reg8(A)}
			case 2:
				return Instruction{Operation: Ld, Dst: reg8(A), Src: reg8(I)}
			case 3:
				return Instruction{Operation: Ld, Dst: reg8(A), Src: reg8(R)}
			case 4:
				return Instruction{Operation: Rrd}
			case 5:
				return Instruction{Operation: Rld}
			default:
				return Instruction{Operation: Illegal, Cycles: 2}
			}
		}
	}

	if x == 2 && z <= 3 && y >= 4 {
		block := [4][4]Operation{
			{Ldi, Cpi, Ini, Outi},
			{Ldd, Cpd, Ind, Outd},
			{Ldir, Cpir, Inir, Otir},
			{Lddr, Cpdr, Indr, Otdr},
		}
		return Instruction{Operation: block[y-4][z]}
	}

	return Instruction{Operation: Illegal, Cycles: 2}
}

// isIndexHalf reports whether the register is one of the undocumented
// ix/iy halves, which cost an extra cycle to address.
func isIndexHalf(r Reg8) bool {
	return r == IXH || r == IXL || r == IYH || r == IYL
}

// nopCost is the machine's instruction cost table in NOP units.
// Costs are taken from the CPC timing reference (all instruction
// times round up to whole NOPs on this machine). Conditional and
// repeating forms carry the taken/repeating cost; the interpreter
// substitutes the cheaper alternative.
func nopCost(ins Instruction) int {
	switch ins.Operation {
	case Nop, Daa, Cpl, Ccf, Scf, Halt, Di, Ei, Rlca, Rla, Rrca, Rra, Exx, ExAF, Illegal:
		return 1

	case Ld:
		return ldCost(ins)

	case Push:
		if ins.Dst.R16 == IX || ins.Dst.R16 == IY {
			return 5
		}
		return 4
	case Pop:
		if ins.Dst.R16 == IX || ins.Dst.R16 == IY {
			return 5
		}
		return 3

	case Ex:
		return 1
	case ExSP:
		if ins.Src.R16 == IX || ins.Src.R16 == IY {
			return 7
		}
		return 6

	case Ldi, Ldd, Cpi, Cpd, Ini, Ind, Outi, Outd:
		return 5
	case Ldir, Lddr, Cpir, Cpdr, Inir, Indr, Otir, Otdr:
		return 6

	case Add, Adc, Sub, Sbc, And, Or, Xor, Cp:
		switch ins.Src.Class {
		case Register8:
			if isIndexHalf(ins.Src.R8) {
				return 2
			}
			return 1
		case Immediate8, RegisterIndirect:
			return 2
		case Indexed:
			return 5
		}

	case Inc, Dec:
		switch ins.Dst.Class {
		case Register8:
			if isIndexHalf(ins.Dst.R8) {
				return 2
			}
			return 1
		case RegisterIndirect:
			return 3
		case Indexed:
			return 6
		}

	case Add16:
		if ins.Dst.R16 == IX || ins.Dst.R16 == IY {
			return 4
		}
		return 3
	case Adc16, Sbc16:
		return 4
	case Inc16, Dec16:
		if ins.Dst.R16 == IX || ins.Dst.R16 == IY {
			return 3
		}
		return 2

	case Neg, Im:
		return 2

	case Rlc, Rl, Rrc, Rr, Sla, Sll, Sra, Srl, Res, Set:
		switch ins.Dst.Class {
		case Register8:
			return 2
		case RegisterIndirect:
			return 4
		case Indexed:
			return 7
		}
	case BitTest:
		switch ins.Dst.Class {
		case Register8:
			return 2
		case RegisterIndirect:
			return 3
		case Indexed:
			return 6
		}
	case Rld, Rrd:
		return 5

	case Jp:
		switch ins.Dst.Class {
		case RegisterIndirect:
			if ins.Dst.R16 == IX || ins.Dst.R16 == IY {
				return 2
			}
			return 1
		default:
			return 3
		}
	case Jr:
		return 3 // 2 when the condition fails
	case Djnz:
		return 4 // 3 when b reaches zero
	case Call:
		if ins.Cond == Always {
			return 5
		}
		return 5 // 3 when the condition fails
	case Ret:
		if ins.Cond == Always {
			return 3
		}
		return 4 // 2 when the condition fails
	case Reti, Retn, Rst:
		return 4

	case In, Out:
		return 3
	case InC, OutC:
		return 4
	}

	panic("no cost for instruction")
}

func ldCost(ins Instruction) int {
	d := ins.Dst
	s := ins.Src

	switch {
	case d.Class == Register8 && s.Class == Register8:
		if d.R8 == I || d.R8 == R || s.R8 == I || s.R8 == R {
			return 3
		}
		if isIndexHalf(d.R8) || isIndexHalf(s.R8) {
			return 2
		}
		return 1
	case d.Class == Register8 && s.Class == Immediate8:
		if isIndexHalf(d.R8) {
			return 3
		}
		return 2
	case d.Class == Register8 && s.Class == RegisterIndirect,
		d.Class == RegisterIndirect && s.Class == Register8:
		return 2
	case d.Class == RegisterIndirect && s.Class == Immediate8:
		return 3
	case d.Class == Register8 && s.Class == Direct16,
		d.Class == Direct16 && s.Class == Register8:
		return 4
	case d.Class == Indexed && s.Class == Register8,
		d.Class == Register8 && s.Class == Indexed:
		return 5
	case d.Class == Indexed && s.Class == Immediate8:
		return 6
	case d.Class == Register16 && s.Class == Immediate16:
		if d.R16 == IX || d.R16 == IY {
			return 4
		}
		return 3
	case d.Class == Register16 && s.Class == Direct16,
		d.Class == Direct16 && s.Class == Register16:
		// the indexed forms carry the prefix fetch
		if d.R16 == IX || d.R16 == IY || s.R16 == IX || s.R16 == IY {
			return 6
		}
		return 5
	case d.Class == Register16 && s.Class == Register16:
		// ld sp,hl / ld sp,ix / ld sp,iy
		if s.R16 == IX || s.R16 == IY {
			return 3
		}
		return 2
	}

	panic("no cost for ld form")
}
