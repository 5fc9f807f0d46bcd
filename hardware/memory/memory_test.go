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

package memory_test

import (
	"testing"

	"github.com/hathersage/gopher464/curated"
	"github.com/hathersage/gopher464/hardware/memory"
	"github.com/hathersage/gopher464/test"
)

func testROM(marker uint8) []uint8 {
	rom := make([]uint8, memory.ROMSize)
	rom[0] = marker
	rom[memory.ROMSize-1] = marker
	return rom
}

func TestLowerROMOverlay(t *testing.T) {
	mem := memory.NewMemory()

	// no image attached: reads fall through to the zeroed RAM
	test.Equate(t, mem.Read(0x0000), 0x00)

	err := mem.SetLowerROM(testROM(0x11))
	test.ExpectedSuccess(t, err)
	test.Equate(t, mem.Read(0x0000), 0x11)
	test.Equate(t, mem.Read(0x3fff), 0x11)

	// a write "to ROM" lands in the RAM beneath the overlay
	mem.Write(0x0000, 0xaa)
	test.Equate(t, mem.Read(0x0000), 0x11)
	test.Equate(t, mem.ReadRAM(0x0000), 0xaa)

	mem.EnableLowerROM(false)
	test.Equate(t, mem.Read(0x0000), 0xaa)

	mem.EnableLowerROM(true)
	test.Equate(t, mem.Read(0x0000), 0x11)
}

func TestUpperROMSelection(t *testing.T) {
	mem := memory.NewMemory()

	err := mem.AttachUpperROM(0, testROM(0x22))
	test.ExpectedSuccess(t, err)
	err = mem.AttachUpperROM(7, testROM(0x33))
	test.ExpectedSuccess(t, err)

	// slot 0 selected at power on
	test.Equate(t, mem.Read(0xc000), 0x22)

	mem.SelectUpperROM(7)
	test.Equate(t, mem.Read(0xc000), 0x33)
	test.Equate(t, mem.Read(0xffff), 0x33)

	// an empty slot falls through to RAM
	mem.Write(0xc000, 0xbb)
	mem.SelectUpperROM(3)
	test.Equate(t, mem.Read(0xc000), 0xbb)

	mem.SelectUpperROM(7)
	mem.EnableUpperROM(false)
	test.Equate(t, mem.Read(0xc000), 0xbb)
}

func TestInvalidROMSize(t *testing.T) {
	mem := memory.NewMemory()

	err := mem.SetLowerROM(make([]uint8, 0x100))
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, memory.InvalidROMSize), true)

	err = mem.AttachUpperROM(0, make([]uint8, memory.ROMSize+1))
	test.ExpectedFailure(t, err)
}

func TestWordAccess(t *testing.T) {
	mem := memory.NewMemory()

	mem.WriteWord(0x4000, 0xbeef)
	test.Equate(t, mem.Read(0x4000), 0xef)
	test.Equate(t, mem.Read(0x4001), 0xbe)
	test.Equate(t, mem.ReadWord(0x4000), uint16(0xbeef))

	// 16-bit access wraps at the top of the address space
	mem.WriteWord(0xffff, 0x1234)
	test.Equate(t, mem.Read(0xffff), 0x34)
	test.Equate(t, mem.Read(0x0000), 0x12)
	test.Equate(t, mem.ReadWord(0xffff), uint16(0x1234))
}

func TestSnapshotRestore(t *testing.T) {
	mem := memory.NewMemory()
	test.ExpectedSuccess(t, mem.SetLowerROM(testROM(0x11)))
	mem.Write(0x8000, 0x42)
	mem.EnableLowerROM(false)

	s := mem.Snapshot()

	// the snapshot is a deep copy: later writes do not disturb it
	mem.Write(0x8000, 0x99)
	mem.EnableLowerROM(true)

	mem.Restore(s)
	test.Equate(t, mem.Read(0x8000), 0x42)
	test.Equate(t, mem.Read(0x0000), mem.ReadRAM(0x0000))
}