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

package hardware

import (
	"github.com/hathersage/gopher464/logger"
)

// The CPC is the CPU's view of the address and I/O space, so the
// machine itself implements the cpu.Bus interface.
//
// I/O devices are selected by partial decode of the port address, the
// way the machine wires its address lines, not by exact port numbers.
// The conventional port numbers (0x7fxx gate array, 0xbcxx CRTC,
// 0xdfxx ROM select, 0xf4xx-0xf7xx PPI, 0xfb7e/0xfb7f/0xfa7e FDC) all
// satisfy their respective masks.

// Read implements the cpu.Bus interface.
func (mc *CPC) Read(address uint16) uint8 {
	return mc.Mem.Read(address)
}

// Write implements the cpu.Bus interface.
func (mc *CPC) Write(address uint16, data uint8) {
	mc.Mem.Write(address, data)
}

// PortRead implements the cpu.Bus interface.
func (mc *CPC) PortRead(port uint16) uint8 {
	switch {
	case port&0x4000 == 0:
		return mc.CRTC.PortRead(port)
	case port&0x0800 == 0:
		return mc.PPI.PortRead(port, mc.CRTC.VSync(), mc.PSG)
	case port&0x0480 == 0:
		return mc.FDC.PortRead(port)
	}

	logger.Logf("bus", "unhandled read from port %#06x", port)
	return 0xff
}

// PortWrite implements the cpu.Bus interface.
func (mc *CPC) PortWrite(port uint16, data uint8) {
	switch {
	case port&0x8000 == 0 && port&0x4000 != 0:
		mc.GateArray.PortWrite(mc.Mem, data)
	case port&0x4000 == 0:
		mc.CRTC.PortWrite(port, data)
	case port&0x2000 == 0:
		mc.Mem.SelectUpperROM(data)
	case port&0x1000 == 0:
		// printer port
	case port&0x0800 == 0:
		mc.PPI.PortWrite(port, data, mc.Keyboard, mc.PSG)
	case port&0x0480 == 0:
		mc.FDC.PortWrite(port, data)
	default:
		logger.Logf("bus", "unhandled write to port %#06x: %#04x", port, data)
	}
}
