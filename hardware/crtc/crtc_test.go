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

package crtc_test

import (
	"testing"

	"github.com/hathersage/gopher464/hardware/crtc"
	"github.com/hathersage/gopher464/test"
)

// program a register through the select/write port pair
func write(c *crtc.CRTC, reg int, value uint8) {
	c.PortWrite(0xbc00, uint8(reg))
	c.PortWrite(0xbd00, value)
}

// the standard 50Hz screen setup used by the machine's firmware
func standardScreen(c *crtc.CRTC) {
	write(c, crtc.HorizontalTotal, 63)
	write(c, crtc.HorizontalDisplayed, 40)
	write(c, crtc.HorizontalSyncPosition, 46)
	write(c, crtc.SyncWidths, 0x8e)
	write(c, crtc.VerticalTotal, 38)
	write(c, crtc.VerticalTotalAdjust, 0)
	write(c, crtc.VerticalDisplayed, 25)
	write(c, crtc.VerticalSyncPosition, 30)
	write(c, crtc.MaximumRasterAddress, 7)
	write(c, crtc.DisplayStartAddressHigh, 0x30)
	write(c, crtc.DisplayStartAddressLow, 0x00)
}

func TestFieldLength(t *testing.T) {
	c := crtc.NewCRTC()
	standardScreen(c)

	// 64 characters per line, 39 character rows of 8 scanlines: one
	// field is 312 lines of 64 NOPs
	const fieldTicks = 64 * 8 * 39

	// count hsync leading edges over one field
	syncs := 0
	last := false
	for i := 0; i < fieldTicks; i++ {
		c.Step()
		if c.HSync() && !last {
			syncs++
		}
		last = c.HSync()
	}

	test.Equate(t, syncs, 312)
}

func TestVSyncDuration(t *testing.T) {
	c := crtc.NewCRTC()
	standardScreen(c)

	const fieldTicks = 64 * 8 * 39

	active := 0
	starts := 0
	last := false
	for i := 0; i < 2*fieldTicks; i++ {
		c.Step()
		if c.VSync() {
			if !last {
				starts++
			}
			active++
		}
		last = c.VSync()
	}

	test.Equate(t, starts, 2)
	// sixteen scanlines of 64 characters per field
	test.Equate(t, active, 2*16*64)
}

func TestNoVSyncBeforeR7Written(t *testing.T) {
	c := crtc.NewCRTC()

	// registers at their reset values: without a programmed sync
	// position the field is degenerate but no vertical sync may occur
	for i := 0; i < 10000; i++ {
		c.Step()
		test.Equate(t, c.VSync(), false)
	}
}

func TestZeroSyncWidthProducesNoHSync(t *testing.T) {
	c := crtc.NewCRTC()
	standardScreen(c)
	write(c, crtc.SyncWidths, 0x80)

	for i := 0; i < 64*8; i++ {
		c.Step()
		test.Equate(t, c.HSync(), false)
	}
}

func TestDisplayStartLatchedAtFieldTop(t *testing.T) {
	c := crtc.NewCRTC()
	standardScreen(c)

	const fieldTicks = 64 * 8 * 39

	// run into the middle of the field, then reprogram the start
	// address. the refresh address must not move until the next field.
	for i := 0; i < fieldTicks/2; i++ {
		c.Step()
	}

	before := c.RefreshAddress()
	write(c, crtc.DisplayStartAddressHigh, 0x10)
	write(c, crtc.DisplayStartAddressLow, 0x00)
	test.Equate(t, c.RefreshAddress(), before)

	// after wrapping to the next field the new address takes effect
	for i := 0; i < fieldTicks/2; i++ {
		c.Step()
	}
	test.Equate(t, c.RefreshAddress()&0xc000, 0x4000)
}

func TestRefreshAddressInterleave(t *testing.T) {
	c := crtc.NewCRTC()
	standardScreen(c)

	// at the top of the field the refresh address is the latched start
	// address shifted into the interleaved layout
	const fieldTicks = 64 * 8 * 39
	for i := 0; i < fieldTicks; i++ {
		c.Step()
	}

	// start address 0x3000: bits 12 and 13 map to 14 and 15
	test.Equate(t, c.RefreshAddress(), 0xc000)

	// one scanline down, bits 11 to 13 hold the scanline counter
	for i := 0; i < 64; i++ {
		c.Step()
	}
	test.Equate(t, c.RefreshAddress(), 0xc800)
}

func TestRegisterReadback(t *testing.T) {
	c := crtc.NewCRTC()

	// everything below the start address is write-only on this
	// variant
	write(c, crtc.MaximumRasterAddress, 0x07)
	c.PortWrite(0xbc00, crtc.MaximumRasterAddress)
	test.Equate(t, c.PortRead(0xbf00), 0)

	// the start address and cursor address read back
	write(c, crtc.DisplayStartAddressHigh, 0x30)
	c.PortWrite(0xbc00, crtc.DisplayStartAddressHigh)
	test.Equate(t, c.PortRead(0xbf00), 0x30)

	write(c, crtc.DisplayStartAddressLow, 0x55)
	c.PortWrite(0xbc00, crtc.DisplayStartAddressLow)
	test.Equate(t, c.PortRead(0xbf00), 0x55)

	write(c, crtc.CursorAddressHigh, 0x12)
	c.PortWrite(0xbc00, crtc.CursorAddressHigh)
	test.Equate(t, c.PortRead(0xbf00), 0x12)
}
