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

// Package cpu implements a Z80 interpreter. Instructions are decoded
// into descriptors by the instructions package and executed by a single
// interpreter loop. Timing is counted in NOP units: the machine rounds
// every instruction up to a whole number of 1MHz cycles and that
// rounded figure is what ExecuteInstruction returns.
package cpu

import "github.com/hathersage/gopher464/hardware/cpu/instructions"

// Bus is the CPU's view of the rest of the machine. Memory access is
// always 8bit. Port access uses the full 16bit address because the
// machine decodes devices from the high byte.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, data uint8)
	PortRead(port uint16) uint8
	PortWrite(port uint16, data uint8)
}

// CPU is a Z80. Create one with NewCPU().
type CPU struct {
	Reg Registers

	bus Bus

	// interrupt state
	IFF1 bool
	IFF2 bool
	IM   int

	// Halted is true between a HALT instruction and the next accepted
	// interrupt
	Halted bool

	// irq is the level of the maskable interrupt line, driven by the
	// interrupt generator between instructions
	irq bool

	// interrupts are not accepted until one instruction after EI
	eiShadow bool
}

func NewCPU(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset the CPU to its power-on state. Registers other than PC, I, R
// and the interrupt flip-flops are left as they are, which is how the
// silicon behaves.
func (c *CPU) Reset() {
	c.Reg.PC = 0x0000
	c.Reg.I = 0x00
	c.Reg.R = 0x00
	c.IFF1 = false
	c.IFF2 = false
	c.IM = 0
	c.Halted = false
	c.eiShadow = false
}

// SetIRQ drives the maskable interrupt line. The line is level
// triggered; it stays asserted until the device that raised it is told
// the interrupt has been acknowledged.
func (c *CPU) SetIRQ(level bool) {
	c.irq = level
}

// ExecuteInstruction runs one instruction, or accepts a pending
// interrupt, and returns the elapsed time in NOP units along with
// whether an interrupt was acknowledged this step.
func (c *CPU) ExecuteInstruction() (int, bool) {
	if c.irq && c.IFF1 && !c.eiShadow {
		return c.acceptInterrupt(), true
	}
	c.eiShadow = false

	if c.Halted {
		c.Reg.incR()
		return 1, false
	}

	ins := instructions.Decode(c.bus, c.Reg.PC)
	c.Reg.incR()
	c.Reg.PC += ins.Length

	return c.execute(ins), false
}

// acceptInterrupt performs the maskable interrupt sequence. The data
// bus floats high on this machine so the IM2 vector byte is always
// 0xff.
func (c *CPU) acceptInterrupt() int {
	c.eiShadow = false
	c.Halted = false
	c.IFF1 = false
	c.IFF2 = false
	c.Reg.incR()

	c.push(c.Reg.PC)

	if c.IM == 2 {
		vector := uint16(c.Reg.I)<<8 | 0x00ff
		c.Reg.PC = c.readWord(vector)
		return 5
	}

	// IM 0 behaves as IM 1 with a floating bus: the fetched opcode is
	// 0xff, RST 0x38
	c.Reg.PC = 0x0038
	return 4
}

func (c *CPU) readWord(address uint16) uint16 {
	lo := c.bus.Read(address)
	hi := c.bus.Read(address + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) writeWord(address uint16, v uint16) {
	c.bus.Write(address, uint8(v))
	c.bus.Write(address+1, uint8(v>>8))
}

func (c *CPU) push(v uint16) {
	c.Reg.SP -= 2
	c.writeWord(c.Reg.SP, v)
}

func (c *CPU) pop() uint16 {
	v := c.readWord(c.Reg.SP)
	c.Reg.SP += 2
	return v
}

// condition evaluates a branch condition against the flags.
func (c *CPU) condition(cond instructions.Condition) bool {
	switch cond {
	case instructions.Always:
		return true
	case instructions.NonZero:
		return !c.Reg.flag(FlagZ)
	case instructions.Zero:
		return c.Reg.flag(FlagZ)
	case instructions.NoCarry:
		return !c.Reg.flag(FlagC)
	case instructions.IsCarry:
		return c.Reg.flag(FlagC)
	case instructions.ParityOdd:
		return !c.Reg.flag(FlagPV)
	case instructions.ParityEven:
		return c.Reg.flag(FlagPV)
	case instructions.SignPositive:
		return !c.Reg.flag(FlagS)
	}
	return c.Reg.flag(FlagS)
}
