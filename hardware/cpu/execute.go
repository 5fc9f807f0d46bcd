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

import (
	"math/bits"

	"github.com/hathersage/gopher464/hardware/cpu/instructions"
)

// operandAddress resolves a memory operand to its effective address.
func (c *CPU) operandAddress(op instructions.Operand) uint16 {
	switch op.Class {
	case instructions.RegisterIndirect:
		return c.Reg.reg16(op.R16)
	case instructions.Indexed:
		return c.Reg.reg16(op.R16) + uint16(int16(op.Disp))
	case instructions.Direct16:
		return op.Value
	}
	panic("operand is not a memory operand")
}

func (c *CPU) load8(op instructions.Operand) uint8 {
	switch op.Class {
	case instructions.Register8:
		return c.Reg.reg8(op.R8)
	case instructions.Immediate8:
		return uint8(op.Value)
	}
	return c.bus.Read(c.operandAddress(op))
}

func (c *CPU) store8(op instructions.Operand, v uint8) {
	if op.Class == instructions.Register8 {
		c.Reg.setReg8(op.R8, v)
		return
	}
	c.bus.Write(c.operandAddress(op), v)
}

func (c *CPU) load16(op instructions.Operand) uint16 {
	switch op.Class {
	case instructions.Register16:
		return c.Reg.reg16(op.R16)
	case instructions.Immediate16:
		return op.Value
	}
	return c.readWord(c.operandAddress(op))
}

func (c *CPU) store16(op instructions.Operand, v uint16) {
	if op.Class == instructions.Register16 {
		c.Reg.setReg16(op.R16, v)
		return
	}
	c.writeWord(c.operandAddress(op), v)
}

// execute runs one decoded instruction and returns its duration in NOP
// units. The decoded Cycles field carries the taken/repeating cost for
// conditional and repeating forms; the cheaper alternatives are
// substituted here.
func (c *CPU) execute(ins instructions.Instruction) int {
	switch ins.Operation {
	case instructions.Nop, instructions.Illegal:
		// undefined opcodes execute as a no-op of the same length

	case instructions.Ld:
		c.executeLd(ins)

	case instructions.Push:
		c.push(c.load16(ins.Dst))
	case instructions.Pop:
		c.store16(ins.Dst, c.pop())

	case instructions.Ex:
		de := c.Reg.reg16(instructions.DE)
		c.Reg.setReg16(instructions.DE, c.Reg.reg16(instructions.HL))
		c.Reg.setReg16(instructions.HL, de)
	case instructions.ExAF:
		c.Reg.ExAF()
	case instructions.Exx:
		c.Reg.Exx()
	case instructions.ExSP:
		v := c.readWord(c.Reg.SP)
		c.writeWord(c.Reg.SP, c.Reg.reg16(ins.Src.R16))
		c.Reg.setReg16(ins.Src.R16, v)

	case instructions.Ldi:
		c.blockLd(1)
	case instructions.Ldd:
		c.blockLd(-1)
	case instructions.Ldir:
		c.blockLd(1)
		if c.Reg.flag(FlagPV) {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	case instructions.Lddr:
		c.blockLd(-1)
		if c.Reg.flag(FlagPV) {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5

	case instructions.Cpi:
		c.blockCp(1)
	case instructions.Cpd:
		c.blockCp(-1)
	case instructions.Cpir:
		c.blockCp(1)
		if c.Reg.flag(FlagPV) && !c.Reg.flag(FlagZ) {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	case instructions.Cpdr:
		c.blockCp(-1)
		if c.Reg.flag(FlagPV) && !c.Reg.flag(FlagZ) {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5

	case instructions.Add:
		c.add8(c.load8(ins.Src), false)
	case instructions.Adc:
		c.add8(c.load8(ins.Src), c.Reg.flag(FlagC))
	case instructions.Sub:
		c.Reg.A = c.sub8(c.load8(ins.Src), false)
	case instructions.Sbc:
		c.Reg.A = c.sub8(c.load8(ins.Src), c.Reg.flag(FlagC))
	case instructions.And:
		c.logic8(c.Reg.A&c.load8(ins.Src), true)
	case instructions.Or:
		c.logic8(c.Reg.A|c.load8(ins.Src), false)
	case instructions.Xor:
		c.logic8(c.Reg.A^c.load8(ins.Src), false)
	case instructions.Cp:
		v := c.load8(ins.Src)
		c.sub8(v, false)
		// cp takes the undocumented bits from the operand
		c.Reg.setFlag(FlagF3, v&0x08 != 0)
		c.Reg.setFlag(FlagF5, v&0x20 != 0)

	case instructions.Inc:
		c.store8(ins.Dst, c.inc8(c.load8(ins.Dst)))
	case instructions.Dec:
		c.store8(ins.Dst, c.dec8(c.load8(ins.Dst)))

	case instructions.Add16:
		c.add16(ins.Dst.R16, c.load16(ins.Src))
	case instructions.Adc16:
		c.adc16(c.load16(ins.Src))
	case instructions.Sbc16:
		c.sbc16(c.load16(ins.Src))
	case instructions.Inc16:
		c.store16(ins.Dst, c.load16(ins.Dst)+1)
	case instructions.Dec16:
		c.store16(ins.Dst, c.load16(ins.Dst)-1)

	case instructions.Daa:
		c.daa()
	case instructions.Cpl:
		c.Reg.A = ^c.Reg.A
		c.Reg.setFlag(FlagH, true)
		c.Reg.setFlag(FlagN, true)
		c.Reg.setFlag(FlagF3, c.Reg.A&0x08 != 0)
		c.Reg.setFlag(FlagF5, c.Reg.A&0x20 != 0)
	case instructions.Neg:
		a := c.Reg.A
		c.Reg.A = 0
		c.Reg.A = c.sub8(a, false)
	case instructions.Ccf:
		carried := c.Reg.flag(FlagC)
		c.Reg.setFlag(FlagH, carried)
		c.Reg.setFlag(FlagC, !carried)
		c.Reg.setFlag(FlagN, false)
		c.Reg.setFlag(FlagF3, c.Reg.A&0x08 != 0)
		c.Reg.setFlag(FlagF5, c.Reg.A&0x20 != 0)
	case instructions.Scf:
		c.Reg.setFlag(FlagC, true)
		c.Reg.setFlag(FlagH, false)
		c.Reg.setFlag(FlagN, false)
		c.Reg.setFlag(FlagF3, c.Reg.A&0x08 != 0)
		c.Reg.setFlag(FlagF5, c.Reg.A&0x20 != 0)

	case instructions.Halt:
		c.Halted = true
	case instructions.Di:
		c.IFF1 = false
		c.IFF2 = false
	case instructions.Ei:
		c.IFF1 = true
		c.IFF2 = true
		c.eiShadow = true
	case instructions.Im:
		c.IM = ins.Mode

	case instructions.Rlca:
		c.Reg.A = bits.RotateLeft8(c.Reg.A, 1)
		c.accRotateFlags(c.Reg.A&0x01 != 0)
	case instructions.Rrca:
		carried := c.Reg.A&0x01 != 0
		c.Reg.A = bits.RotateLeft8(c.Reg.A, -1)
		c.accRotateFlags(carried)
	case instructions.Rla:
		carried := c.Reg.A&0x80 != 0
		c.Reg.A <<= 1
		if c.Reg.flag(FlagC) {
			c.Reg.A |= 0x01
		}
		c.accRotateFlags(carried)
	case instructions.Rra:
		carried := c.Reg.A&0x01 != 0
		c.Reg.A >>= 1
		if c.Reg.flag(FlagC) {
			c.Reg.A |= 0x80
		}
		c.accRotateFlags(carried)

	case instructions.Rlc, instructions.Rl, instructions.Rrc, instructions.Rr,
		instructions.Sla, instructions.Sll, instructions.Sra, instructions.Srl:
		v := c.rotate(ins.Operation, c.load8(ins.Dst))
		c.store8(ins.Dst, v)
		if ins.Copy.Class == instructions.Register8 {
			c.Reg.setReg8(ins.Copy.R8, v)
		}

	case instructions.Rld:
		m := c.bus.Read(c.Reg.reg16(instructions.HL))
		c.bus.Write(c.Reg.reg16(instructions.HL), m<<4|c.Reg.A&0x0f)
		c.Reg.A = c.Reg.A&0xf0 | m>>4
		c.digitRotateFlags()
	case instructions.Rrd:
		m := c.bus.Read(c.Reg.reg16(instructions.HL))
		c.bus.Write(c.Reg.reg16(instructions.HL), c.Reg.A<<4|m>>4)
		c.Reg.A = c.Reg.A&0xf0 | m&0x0f
		c.digitRotateFlags()

	case instructions.BitTest:
		v := c.load8(ins.Dst)
		set := v&(1<<ins.Bit) != 0
		c.Reg.setFlag(FlagZ, !set)
		c.Reg.setFlag(FlagPV, !set)
		c.Reg.setFlag(FlagS, ins.Bit == 7 && set)
		c.Reg.setFlag(FlagH, true)
		c.Reg.setFlag(FlagN, false)
		c.Reg.setFlag(FlagF3, v&0x08 != 0)
		c.Reg.setFlag(FlagF5, v&0x20 != 0)
	case instructions.Res:
		v := c.load8(ins.Dst) &^ (1 << ins.Bit)
		c.store8(ins.Dst, v)
		if ins.Copy.Class == instructions.Register8 {
			c.Reg.setReg8(ins.Copy.R8, v)
		}
	case instructions.Set:
		v := c.load8(ins.Dst) | 1<<ins.Bit
		c.store8(ins.Dst, v)
		if ins.Copy.Class == instructions.Register8 {
			c.Reg.setReg8(ins.Copy.R8, v)
		}

	case instructions.Jp:
		if c.condition(ins.Cond) {
			if ins.Dst.Class == instructions.RegisterIndirect {
				c.Reg.PC = c.Reg.reg16(ins.Dst.R16)
			} else {
				c.Reg.PC = ins.Dst.Value
			}
		}
	case instructions.Jr:
		if !c.condition(ins.Cond) {
			return 2
		}
		c.Reg.PC = ins.Dst.Value
	case instructions.Djnz:
		c.Reg.B--
		if c.Reg.B == 0 {
			return 3
		}
		c.Reg.PC = ins.Dst.Value
	case instructions.Call:
		if !c.condition(ins.Cond) {
			return 3
		}
		c.push(c.Reg.PC)
		c.Reg.PC = ins.Dst.Value
	case instructions.Ret:
		if !c.condition(ins.Cond) {
			return 2
		}
		c.Reg.PC = c.pop()
	case instructions.Reti:
		c.Reg.PC = c.pop()
	case instructions.Retn:
		c.IFF1 = c.IFF2
		c.Reg.PC = c.pop()
	case instructions.Rst:
		c.push(c.Reg.PC)
		c.Reg.PC = ins.Dst.Value

	case instructions.In:
		port := uint16(c.Reg.A)<<8 | ins.Src.Value
		c.Reg.A = c.bus.PortRead(port)
	case instructions.InC:
		v := c.bus.PortRead(c.Reg.reg16(instructions.BC))
		c.szp53(v)
		c.Reg.setFlag(FlagH, false)
		c.Reg.setFlag(FlagN, false)
		if ins.Dst.Class == instructions.Register8 {
			c.Reg.setReg8(ins.Dst.R8, v)
		}
	case instructions.Out:
		port := uint16(c.Reg.A)<<8 | ins.Dst.Value
		c.bus.PortWrite(port, c.Reg.A)
	case instructions.OutC:
		c.bus.PortWrite(c.Reg.reg16(instructions.BC), c.load8(ins.Src))

	case instructions.Ini:
		c.blockIn(1)
	case instructions.Ind:
		c.blockIn(-1)
	case instructions.Inir:
		c.blockIn(1)
		if c.Reg.B != 0 {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	case instructions.Indr:
		c.blockIn(-1)
		if c.Reg.B != 0 {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	case instructions.Outi:
		c.blockOut(1)
	case instructions.Outd:
		c.blockOut(-1)
	case instructions.Otir:
		c.blockOut(1)
		if c.Reg.B != 0 {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	case instructions.Otdr:
		c.blockOut(-1)
		if c.Reg.B != 0 {
			c.Reg.PC -= 2
			return ins.Cycles
		}
		return 5
	}

	return ins.Cycles
}

func (c *CPU) executeLd(ins instructions.Instruction) {
	if ins.Dst.Class == instructions.Register16 || ins.Src.Class == instructions.Register16 ||
		ins.Src.Class == instructions.Immediate16 {
		c.store16(ins.Dst, c.load16(ins.Src))
		return
	}

	v := c.load8(ins.Src)
	c.store8(ins.Dst, v)

	// ld a,i and ld a,r are the only 8bit loads that touch the flags
	if ins.Dst.Class == instructions.Register8 && ins.Dst.R8 == instructions.A &&
		ins.Src.Class == instructions.Register8 &&
		(ins.Src.R8 == instructions.I || ins.Src.R8 == instructions.R) {
		c.szf53(v)
		c.Reg.setFlag(FlagH, false)
		c.Reg.setFlag(FlagN, false)
		c.Reg.setFlag(FlagPV, c.IFF2)
	}
}

// szf53 sets the S, Z, F3 and F5 flags from a result.
func (c *CPU) szf53(v uint8) {
	c.Reg.setFlag(FlagS, v&0x80 != 0)
	c.Reg.setFlag(FlagZ, v == 0)
	c.Reg.setFlag(FlagF3, v&0x08 != 0)
	c.Reg.setFlag(FlagF5, v&0x20 != 0)
}

// szp53 is szf53 plus parity in PV.
func (c *CPU) szp53(v uint8) {
	c.szf53(v)
	c.Reg.setFlag(FlagPV, bits.OnesCount8(v)%2 == 0)
}

func (c *CPU) add8(v uint8, carry bool) {
	a := c.Reg.A
	var cin uint8
	if carry {
		cin = 1
	}
	sum := uint16(a) + uint16(v) + uint16(cin)
	res := uint8(sum)

	c.szf53(res)
	c.Reg.setFlag(FlagC, sum > 0xff)
	c.Reg.setFlag(FlagH, (a&0x0f)+(v&0x0f)+cin > 0x0f)
	c.Reg.setFlag(FlagPV, (a^res)&(v^res)&0x80 != 0)
	c.Reg.setFlag(FlagN, false)

	c.Reg.A = res
}

// sub8 computes A-v-carry and sets the flags. The result is returned
// rather than stored so that cp can share the implementation.
func (c *CPU) sub8(v uint8, carry bool) uint8 {
	a := c.Reg.A
	var cin uint8
	if carry {
		cin = 1
	}
	diff := uint16(a) - uint16(v) - uint16(cin)
	res := uint8(diff)

	c.szf53(res)
	c.Reg.setFlag(FlagC, diff > 0xff)
	c.Reg.setFlag(FlagH, (a&0x0f)-(v&0x0f)-cin > 0x0f)
	c.Reg.setFlag(FlagPV, (a^v)&(a^res)&0x80 != 0)
	c.Reg.setFlag(FlagN, true)

	return res
}

func (c *CPU) logic8(res uint8, halfCarry bool) {
	c.Reg.A = res
	c.szp53(res)
	c.Reg.setFlag(FlagH, halfCarry)
	c.Reg.setFlag(FlagN, false)
	c.Reg.setFlag(FlagC, false)
}

func (c *CPU) inc8(v uint8) uint8 {
	res := v + 1
	c.szf53(res)
	c.Reg.setFlag(FlagH, res&0x0f == 0)
	c.Reg.setFlag(FlagPV, res == 0x80)
	c.Reg.setFlag(FlagN, false)
	return res
}

func (c *CPU) dec8(v uint8) uint8 {
	res := v - 1
	c.szf53(res)
	c.Reg.setFlag(FlagH, res&0x0f == 0x0f)
	c.Reg.setFlag(FlagPV, res == 0x7f)
	c.Reg.setFlag(FlagN, true)
	return res
}

// add16 is the plain ADD HL/IX/IY,rr. S, Z and PV are preserved; the
// undocumented bits come from the high byte of the result.
func (c *CPU) add16(dst instructions.Reg16, v uint16) {
	a := c.Reg.reg16(dst)
	sum := uint32(a) + uint32(v)
	res := uint16(sum)

	c.Reg.setFlag(FlagC, sum > 0xffff)
	c.Reg.setFlag(FlagH, (a&0x0fff)+(v&0x0fff) > 0x0fff)
	c.Reg.setFlag(FlagN, false)
	c.Reg.setFlag(FlagF3, res&0x0800 != 0)
	c.Reg.setFlag(FlagF5, res&0x2000 != 0)

	c.Reg.setReg16(dst, res)
}

func (c *CPU) adc16(v uint16) {
	a := c.Reg.reg16(instructions.HL)
	var cin uint16
	if c.Reg.flag(FlagC) {
		cin = 1
	}
	sum := uint32(a) + uint32(v) + uint32(cin)
	res := uint16(sum)

	c.Reg.setFlag(FlagS, res&0x8000 != 0)
	c.Reg.setFlag(FlagZ, res == 0)
	c.Reg.setFlag(FlagC, sum > 0xffff)
	c.Reg.setFlag(FlagH, (a&0x0fff)+(v&0x0fff)+cin > 0x0fff)
	c.Reg.setFlag(FlagPV, (a^res)&(v^res)&0x8000 != 0)
	c.Reg.setFlag(FlagN, false)
	c.Reg.setFlag(FlagF3, res&0x0800 != 0)
	c.Reg.setFlag(FlagF5, res&0x2000 != 0)

	c.Reg.setReg16(instructions.HL, res)
}

func (c *CPU) sbc16(v uint16) {
	a := c.Reg.reg16(instructions.HL)
	var cin uint16
	if c.Reg.flag(FlagC) {
		cin = 1
	}
	diff := uint32(a) - uint32(v) - uint32(cin)
	res := uint16(diff)

	c.Reg.setFlag(FlagS, res&0x8000 != 0)
	c.Reg.setFlag(FlagZ, res == 0)
	c.Reg.setFlag(FlagC, diff > 0xffff)
	c.Reg.setFlag(FlagH, (a&0x0fff)-(v&0x0fff)-cin > 0x0fff)
	c.Reg.setFlag(FlagPV, (a^v)&(a^res)&0x8000 != 0)
	c.Reg.setFlag(FlagN, true)
	c.Reg.setFlag(FlagF3, res&0x0800 != 0)
	c.Reg.setFlag(FlagF5, res&0x2000 != 0)

	c.Reg.setReg16(instructions.HL, res)
}

func (c *CPU) daa() {
	a := c.Reg.A
	var adjust uint8
	carried := c.Reg.flag(FlagC)

	if c.Reg.flag(FlagH) || a&0x0f > 0x09 {
		adjust |= 0x06
	}
	if carried || a > 0x99 {
		adjust |= 0x60
		carried = true
	}

	var res uint8
	if c.Reg.flag(FlagN) {
		res = a - adjust
	} else {
		res = a + adjust
	}

	c.szp53(res)
	c.Reg.setFlag(FlagC, carried)
	c.Reg.setFlag(FlagH, (a^res)&0x10 != 0)

	c.Reg.A = res
}

// accRotateFlags is the flag rule shared by rlca, rrca, rla and rra:
// S, Z and PV are preserved.
func (c *CPU) accRotateFlags(carried bool) {
	c.Reg.setFlag(FlagC, carried)
	c.Reg.setFlag(FlagH, false)
	c.Reg.setFlag(FlagN, false)
	c.Reg.setFlag(FlagF3, c.Reg.A&0x08 != 0)
	c.Reg.setFlag(FlagF5, c.Reg.A&0x20 != 0)
}

func (c *CPU) digitRotateFlags() {
	c.szp53(c.Reg.A)
	c.Reg.setFlag(FlagH, false)
	c.Reg.setFlag(FlagN, false)
}

// rotate applies a CB-group rotate or shift and sets the full flag set.
func (c *CPU) rotate(op instructions.Operation, v uint8) uint8 {
	var res uint8
	var carried bool

	switch op {
	case instructions.Rlc:
		res = bits.RotateLeft8(v, 1)
		carried = v&0x80 != 0
	case instructions.Rrc:
		res = bits.RotateLeft8(v, -1)
		carried = v&0x01 != 0
	case instructions.Rl:
		res = v << 1
		if c.Reg.flag(FlagC) {
			res |= 0x01
		}
		carried = v&0x80 != 0
	case instructions.Rr:
		res = v >> 1
		if c.Reg.flag(FlagC) {
			res |= 0x80
		}
		carried = v&0x01 != 0
	case instructions.Sla:
		res = v << 1
		carried = v&0x80 != 0
	case instructions.Sll:
		// undocumented: shifts a one into bit 0
		res = v<<1 | 0x01
		carried = v&0x80 != 0
	case instructions.Sra:
		res = v>>1 | v&0x80
		carried = v&0x01 != 0
	case instructions.Srl:
		res = v >> 1
		carried = v&0x01 != 0
	}

	c.szp53(res)
	c.Reg.setFlag(FlagC, carried)
	c.Reg.setFlag(FlagH, false)
	c.Reg.setFlag(FlagN, false)

	return res
}

func (c *CPU) blockLd(dir int16) {
	hl := c.Reg.reg16(instructions.HL)
	de := c.Reg.reg16(instructions.DE)
	bc := c.Reg.reg16(instructions.BC)

	v := c.bus.Read(hl)
	c.bus.Write(de, v)

	c.Reg.setReg16(instructions.HL, hl+uint16(dir))
	c.Reg.setReg16(instructions.DE, de+uint16(dir))
	bc--
	c.Reg.setReg16(instructions.BC, bc)

	n := v + c.Reg.A
	c.Reg.setFlag(FlagH, false)
	c.Reg.setFlag(FlagN, false)
	c.Reg.setFlag(FlagPV, bc != 0)
	c.Reg.setFlag(FlagF3, n&0x08 != 0)
	c.Reg.setFlag(FlagF5, n&0x02 != 0)
}

func (c *CPU) blockCp(dir int16) {
	hl := c.Reg.reg16(instructions.HL)
	bc := c.Reg.reg16(instructions.BC)

	v := c.bus.Read(hl)
	res := c.Reg.A - v
	halfCarry := c.Reg.A&0x0f < v&0x0f

	c.Reg.setReg16(instructions.HL, hl+uint16(dir))
	bc--
	c.Reg.setReg16(instructions.BC, bc)

	c.Reg.setFlag(FlagS, res&0x80 != 0)
	c.Reg.setFlag(FlagZ, res == 0)
	c.Reg.setFlag(FlagH, halfCarry)
	c.Reg.setFlag(FlagN, true)
	c.Reg.setFlag(FlagPV, bc != 0)

	n := res
	if halfCarry {
		n--
	}
	c.Reg.setFlag(FlagF3, n&0x08 != 0)
	c.Reg.setFlag(FlagF5, n&0x02 != 0)
}

func (c *CPU) blockIn(dir int16) {
	hl := c.Reg.reg16(instructions.HL)
	v := c.bus.PortRead(c.Reg.reg16(instructions.BC))
	c.bus.Write(hl, v)
	c.Reg.setReg16(instructions.HL, hl+uint16(dir))
	c.Reg.B--
	c.Reg.setFlag(FlagZ, c.Reg.B == 0)
	c.Reg.setFlag(FlagN, true)
}

func (c *CPU) blockOut(dir int16) {
	hl := c.Reg.reg16(instructions.HL)
	v := c.bus.Read(hl)
	c.Reg.B--
	c.bus.PortWrite(c.Reg.reg16(instructions.BC), v)
	c.Reg.setReg16(instructions.HL, hl+uint16(dir))
	c.Reg.setFlag(FlagZ, c.Reg.B == 0)
	c.Reg.setFlag(FlagN, true)
}
