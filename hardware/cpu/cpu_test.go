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

package cpu_test

import (
	"testing"

	"github.com/hathersage/gopher464/hardware/cpu"
	"github.com/hathersage/gopher464/test"
)

type mockBus struct {
	mem   [0x10000]uint8
	ports map[uint16]uint8

	lastPort uint16
	lastData uint8
}

func newMockBus(program ...uint8) *mockBus {
	bus := &mockBus{ports: make(map[uint16]uint8)}
	copy(bus.mem[:], program)
	return bus
}

func (b *mockBus) Read(address uint16) uint8 {
	return b.mem[address]
}

func (b *mockBus) Write(address uint16, data uint8) {
	b.mem[address] = data
}

func (b *mockBus) PortRead(port uint16) uint8 {
	return b.ports[port]
}

func (b *mockBus) PortWrite(port uint16, data uint8) {
	b.lastPort = port
	b.lastData = data
}

// step the cpu ignoring the interrupt acknowledge result
func step(t *testing.T, c *cpu.CPU) int {
	t.Helper()
	cycles, _ := c.ExecuteInstruction()
	return cycles
}

func TestArithmeticFlags(t *testing.T) {
	// ld a,0x7f / add a,0x01
	bus := newMockBus(0x3e, 0x7f, 0xc6, 0x01)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	step(t, mc)

	test.Equate(t, mc.Reg.A, 0x80)
	test.Equate(t, mc.Reg.F&cpu.FlagS != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagZ != 0, false)
	test.Equate(t, mc.Reg.F&cpu.FlagH != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagPV != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagN != 0, false)
	test.Equate(t, mc.Reg.F&cpu.FlagC != 0, false)
}

func TestSubtractionFlags(t *testing.T) {
	// ld a,0x00 / sub 0x01
	bus := newMockBus(0x3e, 0x00, 0xd6, 0x01)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	step(t, mc)

	test.Equate(t, mc.Reg.A, 0xff)
	test.Equate(t, mc.Reg.F&cpu.FlagC != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagN != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagH != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagS != 0, true)
}

func TestUndocumentedFlagBits(t *testing.T) {
	// ld a,0x28 / or a. bits 3 and 5 of the result appear in F.
	bus := newMockBus(0x3e, 0x28, 0xb7)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	step(t, mc)

	test.Equate(t, mc.Reg.F&cpu.FlagF3 != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagF5 != 0, true)
	// 0x28 has two set bits so parity is even
	test.Equate(t, mc.Reg.F&cpu.FlagPV != 0, true)
}

func TestCompareUndocumentedBitsFromOperand(t *testing.T) {
	// ld a,0x00 / cp 0x28. for cp the undocumented bits track the
	// operand, not the result.
	bus := newMockBus(0x3e, 0x00, 0xfe, 0x28)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	step(t, mc)

	test.Equate(t, mc.Reg.A, 0x00)
	test.Equate(t, mc.Reg.F&cpu.FlagF3 != 0, true)
	test.Equate(t, mc.Reg.F&cpu.FlagF5 != 0, true)
}

func TestShadowRegisters(t *testing.T) {
	// ld a,0x11 / ex af,af' / ld a,0x22 / ex af,af'
	bus := newMockBus(0x3e, 0x11, 0x08, 0x3e, 0x22, 0x08)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	for i := 0; i < 4; i++ {
		step(t, mc)
	}

	test.Equate(t, mc.Reg.A, 0x11)
	test.Equate(t, mc.Reg.A2, 0x22)
}

func TestDjnzTiming(t *testing.T) {
	// ld b,0x03 / djnz -2
	bus := newMockBus(0x06, 0x03, 0x10, 0xfe)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	test.Equate(t, step(t, mc), 2)

	// taken twice, then falls through
	test.Equate(t, step(t, mc), 4)
	test.Equate(t, step(t, mc), 4)
	test.Equate(t, step(t, mc), 3)
	test.Equate(t, mc.Reg.B, 0)
	test.Equate(t, mc.Reg.PC, 0x0004)
}

func TestConditionalTiming(t *testing.T) {
	// or a (clears carry) / jr c,+2 / ret nc is not reached; the jr
	// falls through at the cheaper cost
	bus := newMockBus(0xb7, 0x38, 0x02)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	test.Equate(t, step(t, mc), 2)
	test.Equate(t, mc.Reg.PC, 0x0003)
}

func TestBlockTransfer(t *testing.T) {
	// ldir moving two bytes
	bus := newMockBus(0xed, 0xb0)
	bus.mem[0x1000] = 0xaa
	bus.mem[0x1001] = 0xbb

	mc := cpu.NewCPU(bus)
	mc.Reset()
	mc.Reg.H = 0x10
	mc.Reg.D = 0x20
	mc.Reg.C = 0x02

	// repeating iteration costs more than the terminal one
	test.Equate(t, step(t, mc), 6)
	test.Equate(t, mc.Reg.PC, 0x0000)
	test.Equate(t, step(t, mc), 5)
	test.Equate(t, mc.Reg.PC, 0x0002)

	test.Equate(t, bus.mem[0x2000], 0xaa)
	test.Equate(t, bus.mem[0x2001], 0xbb)
}

func TestHaltAndInterrupt(t *testing.T) {
	// ei / halt, interrupt handler at 0x38
	bus := newMockBus(0xfb, 0x76)
	mc := cpu.NewCPU(bus)
	mc.Reset()
	mc.Reg.SP = 0xc000
	mc.SetIRQ(true)

	// ei executes even with the interrupt line high
	cycles, ack := mc.ExecuteInstruction()
	test.Equate(t, cycles, 1)
	test.Equate(t, ack, false)

	// the instruction after ei still executes before acceptance
	cycles, ack = mc.ExecuteInstruction()
	test.Equate(t, ack, false)
	test.Equate(t, mc.Halted, true)

	// now the interrupt is accepted, waking the cpu
	cycles, ack = mc.ExecuteInstruction()
	test.Equate(t, ack, true)
	test.Equate(t, cycles, 4)
	test.Equate(t, mc.Halted, false)
	test.Equate(t, mc.Reg.PC, 0x0038)

	// return address is the instruction after halt
	test.Equate(t, bus.mem[0xbffe], 0x02)
	test.Equate(t, bus.mem[0xbfff], 0x00)
}

func TestHaltIdles(t *testing.T) {
	bus := newMockBus(0x76)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	test.Equate(t, mc.Halted, true)

	pc := mc.Reg.PC
	for i := 0; i < 10; i++ {
		test.Equate(t, step(t, mc), 1)
	}
	test.Equate(t, mc.Reg.PC, pc)
}

func TestMaskedInterruptIgnored(t *testing.T) {
	// di / nop with the interrupt line held high
	bus := newMockBus(0xf3, 0x00, 0x00)
	mc := cpu.NewCPU(bus)
	mc.Reset()
	mc.SetIRQ(true)

	for i := 0; i < 3; i++ {
		_, ack := mc.ExecuteInstruction()
		test.Equate(t, ack, false)
	}
	test.Equate(t, mc.Reg.PC, 0x0003)
}

func TestIM2Vector(t *testing.T) {
	// ld a,0x20 / ld i,a / im 2 / ei / halt
	bus := newMockBus(0x3e, 0x20, 0xed, 0x47, 0xed, 0x5e, 0xfb, 0x76)

	// data bus floats high so the vector is at 0x20ff
	bus.mem[0x20ff] = 0x00
	bus.mem[0x2100] = 0x80

	mc := cpu.NewCPU(bus)
	mc.Reset()
	mc.Reg.SP = 0xc000
	mc.SetIRQ(true)

	var ack bool
	for i := 0; i < 8 && !ack; i++ {
		_, ack = mc.ExecuteInstruction()
	}

	test.Equate(t, ack, true)
	test.Equate(t, mc.Reg.PC, 0x8000)
}

func TestPortAccess(t *testing.T) {
	// ld a,0x7f / out (0x10),a: the full 16bit port address is driven
	bus := newMockBus(0x3e, 0x7f, 0xd3, 0x10)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	step(t, mc)

	test.Equate(t, bus.lastPort, 0x7f10)
	test.Equate(t, bus.lastData, 0x7f)
}

func TestUndefinedOpcodeIsNop(t *testing.T) {
	// ed 00 is not a defined instruction
	bus := newMockBus(0xed, 0x00, 0x00)
	mc := cpu.NewCPU(bus)
	mc.Reset()

	step(t, mc)
	test.Equate(t, mc.Reg.PC, 0x0002)
}
