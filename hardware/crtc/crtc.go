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

// Package crtc implements the 6845 cathode ray tube controller. The
// chip is a chain of counters clocked once per character (one NOP of
// CPU time); everything else in the video system hangs off the sync and
// address outputs generated here.
package crtc

// Register numbers. The chip has 18 registers behind a single select
// latch.
const (
	HorizontalTotal = iota
	HorizontalDisplayed
	HorizontalSyncPosition
	SyncWidths
	VerticalTotal
	VerticalTotalAdjust
	VerticalDisplayed
	VerticalSyncPosition
	InterlaceAndSkew
	MaximumRasterAddress
	CursorStartRaster
	CursorEndRaster
	DisplayStartAddressHigh
	DisplayStartAddressLow
	CursorAddressHigh
	CursorAddressLow
	LightPenAddressHigh
	LightPenAddressLow

	NumRegisters
)

// vertical sync is fixed at sixteen scanlines on this variant of the
// chip
const vsyncScanlines = 16

// CRTC is the 6845 controller. Create one with NewCRTC().
type CRTC struct {
	Registers [NumRegisters]uint8

	selected int

	// counter chain: characters along the line, scanlines within the
	// character row, character rows down the field
	horizontal uint8
	scanline   uint8
	row        uint8

	// display start address is latched from R12/R13 at the top of the
	// field only
	displayStart uint16

	vsyncActive bool
	vsyncCount  uint8

	// the chip generates no vertical sync until R7 has been written.
	// without this a machine whose program has not yet set up the
	// screen would sync at row zero forever.
	r7Written bool
}

func NewCRTC() *CRTC {
	return &CRTC{}
}

func (c *CRTC) Reset() {
	*c = CRTC{}
}

// PortWrite handles the two write functions of the chip: function 0
// selects a register, function 1 writes it. The function is decoded
// from bits 8 and 9 of the port address.
func (c *CRTC) PortWrite(port uint16, data uint8) {
	switch (port >> 8) & 0x03 {
	case 0:
		c.selected = int(data & 0x1f)
	case 1:
		if c.selected >= NumRegisters {
			return
		}
		// the light pen registers are read-only
		if c.selected >= LightPenAddressHigh {
			return
		}
		c.Registers[c.selected] = data
		if c.selected == VerticalSyncPosition {
			c.r7Written = true
		}
	}
}

// PortRead handles function 3, reading the selected register. The
// start address, cursor and light pen registers read back on this
// variant of the chip.
func (c *CRTC) PortRead(port uint16) uint8 {
	if (port>>8)&0x03 == 3 {
		if c.selected >= DisplayStartAddressHigh && c.selected < NumRegisters {
			return c.Registers[c.selected]
		}
	}
	return 0
}

// Step advances the counter chain by one character.
func (c *CRTC) Step() {
	c.horizontal++

	if c.horizontal > c.Registers[HorizontalTotal] {
		c.horizontal = 0
		c.scanline++

		if c.vsyncActive {
			c.vsyncCount++
			if c.vsyncCount >= vsyncScanlines {
				c.vsyncActive = false
			}
		}

		if c.scanline > c.Registers[MaximumRasterAddress] {
			c.scanline = 0
			c.row++

			if c.row > c.Registers[VerticalTotal] {
				c.row = 0
			}

			if c.r7Written && c.row == c.Registers[VerticalSyncPosition] {
				c.vsyncActive = true
				c.vsyncCount = 0
			}
		}
	}

	if c.horizontal == 0 && c.scanline == 0 && c.row == 0 {
		c.displayStart = uint16(c.Registers[DisplayStartAddressHigh])<<8 |
			uint16(c.Registers[DisplayStartAddressLow])
	}
}

// HSync reports whether the horizontal sync output is active. A
// programmed sync width of zero produces no sync at all.
func (c *CRTC) HSync() bool {
	start := c.Registers[HorizontalSyncPosition]
	end := start + c.Registers[SyncWidths]&0x0f
	return c.horizontal >= start && c.horizontal < end
}

// VSync reports whether the vertical sync output is active.
func (c *CRTC) VSync() bool {
	return c.vsyncActive
}

// DisplayEnabled reports whether the current character is inside the
// displayed area.
func (c *CRTC) DisplayEnabled() bool {
	return c.horizontal < c.Registers[HorizontalDisplayed] &&
		c.row < c.Registers[VerticalDisplayed]
}

// RefreshAddress returns the RAM address of the current character's
// pixel data. The machine interleaves the chip's linear refresh
// address with the scanline counter: bits 0 to 10 shift up one, the
// scanline fills bits 11 to 13, and bits 12 and 13 of the linear
// address become bits 14 and 15.
func (c *CRTC) RefreshAddress() uint16 {
	linear := c.displayStart +
		uint16(c.Registers[HorizontalDisplayed])*uint16(c.row) +
		uint16(c.horizontal)

	return (linear&0x3000)<<2 |
		uint16(c.scanline&0x07)<<11 |
		(linear&0x03ff)<<1
}

// State is the serialisable form of the controller, used by machine
// snapshots.
type State struct {
	Registers    [NumRegisters]uint8 `json:"registers"`
	Selected     int                 `json:"selected"`
	Horizontal   uint8               `json:"horizontal"`
	Scanline     uint8               `json:"scanline"`
	Row          uint8               `json:"row"`
	DisplayStart uint16              `json:"displayStart"`
	VSyncActive  bool                `json:"vsyncActive"`
	VSyncCount   uint8               `json:"vsyncCount"`
	R7Written    bool                `json:"r7Written"`
}

func (c *CRTC) Snapshot() State {
	return State{
		Registers:    c.Registers,
		Selected:     c.selected,
		Horizontal:   c.horizontal,
		Scanline:     c.scanline,
		Row:          c.row,
		DisplayStart: c.displayStart,
		VSyncActive:  c.vsyncActive,
		VSyncCount:   c.vsyncCount,
		R7Written:    c.r7Written,
	}
}

func (c *CRTC) Restore(s State) {
	c.Registers = s.Registers
	c.selected = s.Selected
	c.horizontal = s.Horizontal
	c.scanline = s.Scanline
	c.row = s.Row
	c.displayStart = s.DisplayStart
	c.vsyncActive = s.VSyncActive
	c.vsyncCount = s.VSyncCount
	c.r7Written = s.R7Written
}
