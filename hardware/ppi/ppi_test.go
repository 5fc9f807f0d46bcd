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

package ppi_test

import (
	"testing"

	"github.com/hathersage/gopher464/hardware/keyboard"
	"github.com/hathersage/gopher464/hardware/ppi"
	"github.com/hathersage/gopher464/hardware/psg"
	"github.com/hathersage/gopher464/test"
)

const (
	portA       = 0xf400
	portB       = 0xf500
	portC       = 0xf600
	portControl = 0xf700
)

// runs the keyboard scan protocol the machine's firmware uses
func scanLine(p *ppi.PPI, keys *keyboard.Keyboard, sound *psg.PSG, line uint8) uint8 {
	// port A output, port C output
	p.PortWrite(portControl, 0x82, keys, sound)

	// latch psg register 14
	p.PortWrite(portA, 14, keys, sound)
	p.PortWrite(portC, 0xc0, keys, sound)
	p.PortWrite(portC, 0x00, keys, sound)

	// port A input, then strobe a read with the line selected
	p.PortWrite(portControl, 0x92, keys, sound)
	p.PortWrite(portC, 0x40|line, keys, sound)

	return p.PortRead(portA, false, sound)
}

func TestKeyboardScan(t *testing.T) {
	p := ppi.NewPPI()
	keys := keyboard.NewKeyboard()
	sound := psg.NewPSG()

	// nothing pressed
	test.Equate(t, scanLine(p, keys, sound, 8), 0xff)

	// the a key is line 8 bit 5
	k := keyboard.Keys["a"]
	keys.Press(k.Line, k.Bit)
	test.Equate(t, scanLine(p, keys, sound, 8), 0xdf)

	// other lines are unaffected
	test.Equate(t, scanLine(p, keys, sound, 5), 0xff)

	keys.Release(k.Line, k.Bit)
	test.Equate(t, scanLine(p, keys, sound, 8), 0xff)
}

func TestPortBVSync(t *testing.T) {
	p := ppi.NewPPI()
	sound := psg.NewPSG()

	// bits 1-4 carry the vendor id and the 50Hz line; bit 0 follows
	// vertical sync
	test.Equate(t, p.PortRead(portB, false, sound), 0x1e)
	test.Equate(t, p.PortRead(portB, true, sound), 0x1f)
}

func TestBitSetResetDrivesPortC(t *testing.T) {
	p := ppi.NewPPI()
	keys := keyboard.NewKeyboard()
	sound := psg.NewPSG()

	k := keyboard.Keys["q"]
	keys.Press(k.Line, k.Bit)

	// all ports output
	p.PortWrite(portControl, 0x82, keys, sound)

	// latch psg register 14 then build the line select one bit at a
	// time through the set/reset function: line 8 is bit 3
	p.PortWrite(portA, 14, keys, sound)
	p.PortWrite(portC, 0xc0, keys, sound)
	p.PortWrite(portC, 0x00, keys, sound)
	p.PortWrite(portControl, 0x92, keys, sound)

	p.PortWrite(portControl, 0x07, keys, sound) // set bit 3
	p.PortWrite(portControl, 0x0d, keys, sound) // set bit 6: read strobe

	test.Equate(t, p.PortRead(portA, false, sound), 0xff&^(uint8(1)<<uint(k.Bit)))
}

func TestPSGRegisterWriteThroughPPI(t *testing.T) {
	p := ppi.NewPPI()
	keys := keyboard.NewKeyboard()
	sound := psg.NewPSG()

	p.PortWrite(portControl, 0x82, keys, sound)

	// latch register 0, write 0x42
	p.PortWrite(portA, 0, keys, sound)
	p.PortWrite(portC, 0xc0, keys, sound)
	p.PortWrite(portC, 0x00, keys, sound)
	p.PortWrite(portA, 0x42, keys, sound)
	p.PortWrite(portC, 0x80, keys, sound)
	p.PortWrite(portC, 0x00, keys, sound)

	// read it back
	p.PortWrite(portControl, 0x92, keys, sound)
	p.PortWrite(portC, 0x40, keys, sound)
	test.Equate(t, p.PortRead(portA, false, sound), 0x42)
}
