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

// Package instructions defines the decoded form of a Z80 instruction.
// The byte stream (including the CB/ED/DD/FD prefixes and the doubly
// prefixed DDCB/FDCB forms) decodes into a closed Instruction
// descriptor; a single interpreter in the cpu package executes the
// descriptor and the disassembly package renders it. There is no
// per-opcode dispatch anywhere in the project.
package instructions

import (
	"fmt"
	"strings"
)

// Reg8 identifies one of the 8bit registers.
type Reg8 int

// List of 8bit registers. The IXH/IXL/IYH/IYL halves are addressable
// only through the undocumented DD/FD forms.
const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
	I
	R
	IXH
	IXL
	IYH
	IYL
)

func (r Reg8) String() string {
	return [...]string{"a", "f", "b", "c", "d", "e", "h", "l", "i", "r", "ixh", "ixl", "iyh", "iyl"}[r]
}

// Reg16 identifies one of the 16bit register pairs.
type Reg16 int

// List of 16bit register pairs.
const (
	AF Reg16 = iota
	BC
	DE
	HL
	IX
	IY
	SP
	PC
)

func (r Reg16) String() string {
	return [...]string{"af", "bc", "de", "hl", "ix", "iy", "sp", "pc"}[r]
}

// OperandClass describes how an operand supplies or receives its value.
type OperandClass int

// List of operand classes.
const (
	None OperandClass = iota
	Immediate8
	Immediate16
	Register8
	Register16
	RegisterIndirect // (bc), (de), (hl), (sp)
	Direct8          // (n) - I/O port forms
	Direct16         // (nn)
	Indexed          // (ix+d), (iy+d)
)

// Operand is one argument of a decoded instruction.
type Operand struct {
	Class OperandClass
	R8    Reg8
	R16   Reg16
	Value uint16
	Disp  int8
}

func (op Operand) String() string {
	switch op.Class {
	case None:
		return ""
	case Immediate8:
		return fmt.Sprintf("%#04x", op.Value)
	case Immediate16:
		return fmt.Sprintf("%#06x", op.Value)
	case Register8:
		return op.R8.String()
	case Register16:
		return op.R16.String()
	case RegisterIndirect:
		return fmt.Sprintf("(%s)", op.R16)
	case Direct8:
		return fmt.Sprintf("(%#04x)", op.Value)
	case Direct16:
		return fmt.Sprintf("(%#06x)", op.Value)
	case Indexed:
		return fmt.Sprintf("(%s%+d)", op.R16, op.Disp)
	}
	panic("unknown operand class")
}

// Condition is the flag test attached to the conditional jump, call and
// return forms.
type Condition int

// List of conditions. Always is the unconditional form.
const (
	Always Condition = iota
	NonZero
	Zero
	NoCarry
	IsCarry
	ParityOdd
	ParityEven
	SignPositive
	SignNegative
)

func (c Condition) String() string {
	return [...]string{"", "nz", "z", "nc", "c", "po", "pe", "p", "m"}[c]
}

// Operation is the tag identifying what a decoded instruction does.
type Operation int

// List of operations. Illegal covers every opcode the CPU does not
// define; it executes as a no-op.
const (
	Nop Operation = iota
	Ld
	Push
	Pop
	Ex
	ExAF
	Exx
	ExSP
	Ldi
	Ldir
	Ldd
	Lddr
	Cpi
	Cpir
	Cpd
	Cpdr
	Add
	Adc
	Sub
	Sbc
	And
	Or
	Xor
	Cp
	Inc
	Dec
	Add16
	Adc16
	Sbc16
	Inc16
	Dec16
	Daa
	Cpl
	Neg
	Ccf
	Scf
	Halt
	Di
	Ei
	Im
	Rlca
	Rla
	Rrca
	Rra
	Rlc
	Rl
	Rrc
	Rr
	Sla
	Sll
	Sra
	Srl
	Rld
	Rrd
	BitTest
	Res
	Set
	Jp
	Jr
	Djnz
	Call
	Ret
	Reti
	Retn
	Rst
	In
	InC
	Out
	OutC
	Ini
	Inir
	Ind
	Indr
	Outi
	Otir
	Outd
	Otdr
	Illegal
)

var operationMnemonics = map[Operation]string{
	Nop: "nop", Ld: "ld", Push: "push", Pop: "pop", Ex: "ex", ExAF: "ex",
	Exx: "exx", ExSP: "ex", Ldi: "ldi", Ldir: "ldir", Ldd: "ldd",
	Lddr: "lddr", Cpi: "cpi", Cpir: "cpir", Cpd: "cpd", Cpdr: "cpdr",
	Add: "add", Adc: "adc", Sub: "sub", Sbc: "sbc", And: "and", Or: "or",
	Xor: "xor", Cp: "cp", Inc: "inc", Dec: "dec", Add16: "add",
	Adc16: "adc", Sbc16: "sbc", Inc16: "inc", Dec16: "dec", Daa: "daa",
	Cpl: "cpl", Neg: "neg", Ccf: "ccf", Scf: "scf", Halt: "halt",
	Di: "di", Ei: "ei", Im: "im", Rlca: "rlca", Rla: "rla", Rrca: "rrca",
	Rra: "rra", Rlc: "rlc", Rl: "rl", Rrc: "rrc", Rr: "rr", Sla: "sla",
	Sll: "sll", Sra: "sra", Srl: "srl", Rld: "rld", Rrd: "rrd",
	BitTest: "bit", Res: "res", Set: "set", Jp: "jp", Jr: "jr",
	Djnz: "djnz", Call: "call", Ret: "ret", Reti: "reti", Retn: "retn",
	Rst: "rst", In: "in", InC: "in", Out: "out", OutC: "out", Ini: "ini",
	Inir: "inir", Ind: "ind", Indr: "indr", Outi: "outi", Otir: "otir",
	Outd: "outd", Otdr: "otdr", Illegal: "defb",
}

// Instruction is the decoded form of one Z80 instruction.
type Instruction struct {
	Operation Operation
	Dst       Operand
	Src       Operand

	// flag test for the Jp/Jr/Call/Ret forms
	Cond Condition

	// bit number for the BitTest/Res/Set forms
	Bit uint8

	// undocumented DDCB/FDCB forms copy the memory result into a
	// register as a side effect
	Copy Operand

	// interrupt mode for the Im form
	Mode int

	// number of bytes consumed by the instruction, prefixes included
	Length uint16

	// base cost of the instruction in NOP units (1 NOP = 4 T states =
	// 1µs on this machine; instruction times round up to whole NOPs).
	// conditional and repeating forms store the taken/repeating cost;
	// the interpreter substitutes the cheaper value when the condition
	// fails or the repeat ends.
	Cycles int
}

// String returns the instruction in assembly language form:
// lower-case mnemonics, hexadecimal literals.
func (ins Instruction) String() string {
	m := operationMnemonics[ins.Operation]

	var parts []string

	switch ins.Operation {
	case Im:
		parts = append(parts, fmt.Sprintf("%d", ins.Mode))
	case BitTest, Res, Set:
		parts = append(parts, fmt.Sprintf("%d", ins.Bit))
	case Jp, Jr, Call, Ret:
		if ins.Cond != Always {
			parts = append(parts, ins.Cond.String())
		}
	}

	if ins.Dst.Class != None {
		parts = append(parts, ins.Dst.String())
	}
	if ins.Src.Class != None {
		parts = append(parts, ins.Src.String())
	}
	if ins.Copy.Class != None {
		parts = append(parts, ins.Copy.String())
	}

	if len(parts) == 0 {
		return m
	}
	return fmt.Sprintf("%s %s", m, strings.Join(parts, ","))
}
