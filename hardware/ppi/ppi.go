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

// Package ppi implements the subset of the 8255 peripheral interface
// the machine uses. Port A is the PSG data bus, port B carries the
// vsync and vendor identity lines, and port C drives the keyboard line
// select and the PSG strobe.
package ppi

import (
	"github.com/hathersage/gopher464/hardware/keyboard"
	"github.com/hathersage/gopher464/hardware/psg"
)

// port B input lines: vendor id 7 (Amstrad) on bits 1-3, 50Hz monitor
// on bit 4. the tape and printer lines read as constants.
const portBStatic = 0x07<<1 | 0x01<<4

// PPI is the peripheral interface. Create one with NewPPI().
type PPI struct {
	// port directions, true for input. ports come up as inputs after
	// a mode set.
	inputA      bool
	inputB      bool
	inputCLower bool
	inputCUpper bool

	// output latch for port C; the bit set/reset function modifies it
	// in place
	portC uint8
}

func NewPPI() *PPI {
	return &PPI{
		inputA:      true,
		inputB:      true,
		inputCLower: true,
		inputCUpper: true,
	}
}

func (p *PPI) Reset() {
	*p = *NewPPI()
}

// PortRead handles a read of one of the four ports. The function is
// decoded from bits 8 and 9 of the port address. vsync is the current
// level of the CRTC vertical sync output, wired to port B.
func (p *PPI) PortRead(port uint16, vsync bool, sound *psg.PSG) uint8 {
	switch (port >> 8) & 0x03 {
	case 0:
		if p.inputA {
			return sound.ReadData()
		}
		return 0
	case 1:
		if !p.inputB {
			return 0
		}
		value := uint8(portBStatic)
		if vsync {
			value |= 0x01
		}
		return value
	case 2:
		return p.portC
	}
	// the control register does not read back
	return 0
}

// PortWrite handles a write to one of the four ports.
func (p *PPI) PortWrite(port uint16, data uint8, keys *keyboard.Keyboard, sound *psg.PSG) {
	switch (port >> 8) & 0x03 {
	case 0:
		if !p.inputA {
			sound.WriteData(data)
		}
	case 1:
		// port B is input only on this machine
	case 2:
		p.writePortC(data, keys, sound)
	case 3:
		if data&0x80 != 0 {
			p.modeSet(data)
		} else {
			// bit set/reset acts on the port C latch
			bit := (data >> 1) & 0x07
			if data&0x01 != 0 {
				p.writePortC(p.portC|1<<bit, keys, sound)
			} else {
				p.writePortC(p.portC&^(1<<bit), keys, sound)
			}
		}
	}
}

// writePortC updates the port C latch and applies its output
// functions: low nibble selects the keyboard line, the top two bits
// strobe the PSG.
func (p *PPI) writePortC(data uint8, keys *keyboard.Keyboard, sound *psg.PSG) {
	p.portC = data

	if !p.inputCLower {
		keys.SetActiveLine(int(data & 0x0f))
	}
	if !p.inputCUpper {
		sound.Strobe(keys, (data>>6)&0x03)
	}
}

// modeSet programs the port directions. The mode bits proper are
// accepted but only the basic input/output mode is emulated; the
// machine never programs anything else. A mode set clears the port C
// latch, as on the real chip.
func (p *PPI) modeSet(data uint8) {
	p.inputCLower = data&0x01 != 0
	p.inputB = data&0x02 != 0
	p.inputCUpper = data&0x08 != 0
	p.inputA = data&0x10 != 0
	p.portC = 0
}

// State is the serialisable form of the interface, used by machine
// snapshots.
type State struct {
	InputA      bool  `json:"inputA"`
	InputB      bool  `json:"inputB"`
	InputCLower bool  `json:"inputCLower"`
	InputCUpper bool  `json:"inputCUpper"`
	PortC       uint8 `json:"portC"`
}

func (p *PPI) Snapshot() State {
	return State{
		InputA:      p.inputA,
		InputB:      p.inputB,
		InputCLower: p.inputCLower,
		InputCUpper: p.inputCUpper,
		PortC:       p.portC,
	}
}

func (p *PPI) Restore(s State) {
	p.inputA = s.InputA
	p.inputB = s.InputB
	p.inputCLower = s.InputCLower
	p.inputCUpper = s.InputCUpper
	p.portC = s.PortC
}
