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

// Package gatearray implements the custom chip that sits between the
// CRTC and the rest of the machine: it expands video RAM bytes into
// pixels, holds the pen palette, gates the ROM overlays and generates
// the 300Hz raster interrupt.
package gatearray

import (
	"github.com/hathersage/gopher464/hardware/crtc"
	"github.com/hathersage/gopher464/hardware/memory"
)

// Screen receives the pixel stream generated by the gate array. Pixels
// arrive as hardware colour numbers, sixteen per NOP, left to right and
// top to bottom. TriggerVSync marks the top of a new frame.
type Screen interface {
	Write(color uint8)
	TriggerVSync()
}

// pens 0 to 15 plus the border
const numPens = 17

// the raster interrupt fires every 52 horizontal syncs
const interruptInterval = 52

// GateArray is the machine's video and interrupt controller. Create
// one with NewGateArray().
type GateArray struct {
	// screen mode changes are latched until the next horizontal sync
	mode          uint8
	requestedMode uint8

	selectedPen int
	penColors   [numPens]uint8

	// previous crtc sync levels, for edge detection
	hsync bool
	vsync bool

	// the interrupt counter counts horizontal syncs. it is six bits
	// wide: acknowledging an interrupt clears the top bit, holding the
	// next interrupt at least 32 syncs away.
	interruptCounter uint8

	// horizontal syncs seen since the start of vertical sync. two
	// syncs in, the counter is cross-coupled to the frame: it resets,
	// raising an interrupt only if its top bit was set.
	hsyncsSinceVSync uint8

	irq bool
}

func NewGateArray() *GateArray {
	return &GateArray{}
}

func (g *GateArray) Reset() {
	*g = GateArray{}
}

// PortWrite handles a write to the gate array port. The function is
// encoded in the top two bits of the data byte. The memory reference
// is required because two of the functions drive the ROM overlay
// enables.
func (g *GateArray) PortWrite(mem *memory.Memory, data uint8) {
	switch (data >> 6) & 0x03 {
	case 0:
		if data&0x10 == 0 {
			g.selectedPen = int(data & 0x0f)
		} else {
			g.selectedPen = 0x10
		}
	case 1:
		g.penColors[g.selectedPen] = data & 0x1f
	case 2:
		g.requestedMode = data & 0x03
		mem.EnableLowerROM(data&0x04 == 0)
		mem.EnableUpperROM(data&0x08 == 0)
		if data&0x10 != 0 {
			g.interruptCounter = 0
			g.irq = false
		}
	case 3:
		// RAM banking, not fitted on this machine
	}
}

// IRQ reports the level of the interrupt line. The line stays asserted
// until AcknowledgeInterrupt is called.
func (g *GateArray) IRQ() bool {
	return g.irq
}

// AcknowledgeInterrupt is called when the CPU accepts the interrupt.
// As well as releasing the line, the top bit of the sync counter is
// cleared so that the next interrupt is at least 32 syncs away.
func (g *GateArray) AcknowledgeInterrupt() {
	g.irq = false
	g.interruptCounter &= 0x1f
}

// Step advances the gate array by one NOP. The CRTC must have been
// stepped first; the gate array works from its current outputs.
func (g *GateArray) Step(c *crtc.CRTC, mem *memory.Memory, scr Screen) {
	hsyncNow := c.HSync()
	vsyncNow := c.VSync()

	g.updateInterrupt(hsyncNow, vsyncNow)

	// a requested mode takes effect at the start of horizontal sync
	if !g.hsync && hsyncNow {
		g.mode = g.requestedMode
	}

	if scr != nil {
		g.renderCharacter(c, mem, scr, hsyncNow, vsyncNow)
	}

	g.hsync = hsyncNow
	g.vsync = vsyncNow
}

func (g *GateArray) updateInterrupt(hsyncNow, vsyncNow bool) {
	// count on the trailing edge of horizontal sync
	if g.hsync && !hsyncNow {
		g.interruptCounter++

		if g.hsyncsSinceVSync < 2 {
			g.hsyncsSinceVSync++
			if g.hsyncsSinceVSync == 2 {
				if g.interruptCounter&0x20 != 0 {
					g.irq = true
				}
				g.interruptCounter = 0
			}
		}

		if g.interruptCounter == interruptInterval {
			g.interruptCounter = 0
			g.irq = true
		}
	}

	if !g.vsync && vsyncNow {
		g.hsyncsSinceVSync = 0
	}
}

// renderCharacter emits the sixteen pixels for the current character
// position. Border colour is emitted during sync and outside the
// displayed area.
func (g *GateArray) renderCharacter(c *crtc.CRTC, mem *memory.Memory, scr Screen, hsyncNow, vsyncNow bool) {
	if !g.vsync && vsyncNow {
		scr.TriggerVSync()
	}

	if hsyncNow || vsyncNow || !c.DisplayEnabled() {
		border := g.penColors[0x10]
		for i := 0; i < 16; i++ {
			scr.Write(border)
		}
		return
	}

	address := c.RefreshAddress()
	for offset := uint16(0); offset < 2; offset++ {
		packed := mem.ReadRAM(address + offset)

		switch g.mode {
		case 0:
			// two pixels of sixteen colours, four screen pixels wide
			pixels := [2]uint8{
				(packed&0x80)>>7 | (packed&0x08)>>2 | (packed&0x20)>>3 | (packed&0x02)<<2,
				(packed&0x40)>>6 | (packed&0x04)>>1 | (packed&0x10)>>2 | (packed&0x01)<<3,
			}
			for _, p := range pixels {
				color := g.penColors[p]
				for i := 0; i < 4; i++ {
					scr.Write(color)
				}
			}
		case 1:
			// four pixels of four colours, two screen pixels wide
			pixels := [4]uint8{
				(packed&0x80)>>7 | (packed&0x08)>>2,
				(packed&0x40)>>6 | (packed&0x04)>>1,
				(packed&0x20)>>5 | (packed & 0x02),
				(packed&0x10)>>4 | (packed&0x01)<<1,
			}
			for _, p := range pixels {
				color := g.penColors[p]
				scr.Write(color)
				scr.Write(color)
			}
		default:
			// eight pixels of two colours. mode 3 is the undocumented
			// alias of mode 2 on this chip.
			for bit := 7; bit >= 0; bit-- {
				scr.Write(g.penColors[(packed>>bit)&0x01])
			}
		}
	}
}

// State is the serialisable form of the gate array, used by machine
// snapshots.
type State struct {
	Mode             uint8          `json:"mode"`
	RequestedMode    uint8          `json:"requestedMode"`
	SelectedPen      int            `json:"selectedPen"`
	PenColors        [numPens]uint8 `json:"penColors"`
	InterruptCounter uint8          `json:"interruptCounter"`
	HSyncsSinceVSync uint8          `json:"hsyncsSinceVsync"`
	IRQ              bool           `json:"irq"`
	HSync            bool           `json:"hsync"`
	VSync            bool           `json:"vsync"`
}

func (g *GateArray) Snapshot() State {
	return State{
		Mode:             g.mode,
		RequestedMode:    g.requestedMode,
		SelectedPen:      g.selectedPen,
		PenColors:        g.penColors,
		InterruptCounter: g.interruptCounter,
		HSyncsSinceVSync: g.hsyncsSinceVSync,
		IRQ:              g.irq,
		HSync:            g.hsync,
		VSync:            g.vsync,
	}
}

func (g *GateArray) Restore(s State) {
	g.mode = s.Mode
	g.requestedMode = s.RequestedMode
	g.selectedPen = s.SelectedPen
	g.penColors = s.PenColors
	g.interruptCounter = s.InterruptCounter
	g.hsyncsSinceVSync = s.HSyncsSinceVSync
	g.irq = s.IRQ
	g.hsync = s.HSync
	g.vsync = s.VSync
}
