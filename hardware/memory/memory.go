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

// Package memory implements the RAM/ROM arrangement of the CPC. The
// address space is 64KB of RAM with two 16KB ROM windows overlaid on
// top: the lower ROM (the OS) at 0x0000 and one of a set of numbered
// upper ROMs (BASIC, AMSDOS, ...) at 0xc000. The gate array switches
// the overlays in and out; the selected upper ROM is chosen through an
// I/O port.
//
// Reads honour the overlays. Writes always land in the RAM underneath,
// which is how the real machine behaves - there is no such thing as a
// write fault.
package memory

import (
	"github.com/hathersage/gopher464/curated"
)

// RAMSize is the size of the base RAM in bytes.
const RAMSize = 0x10000

// ROMSize is the required size of a ROM image.
const ROMSize = 0x4000

// upperROMOrigin is the address at which the upper ROM window begins.
const upperROMOrigin = 0xc000

// NotAttached is the sentinel error for ROM access with no image attached.
const NotAttached = "memory: no %s rom attached"

// InvalidROMSize is the sentinel error for a ROM image of the wrong length.
const InvalidROMSize = "memory: rom image is %d bytes (expected %d)"

// Memory implements the CPU and video view of the CPC address space.
type Memory struct {
	ram      []uint8
	lowerROM []uint8
	upperROM map[uint8][]uint8

	lowerROMEnabled bool
	upperROMEnabled bool
	selectedUpper   uint8
}

// NewMemory is the preferred method of initialisation for the Memory
// type. Both ROM windows are enabled, as at power on, but no ROM images
// are attached; reads fall through to the (zeroed) RAM until they are.
func NewMemory() *Memory {
	return &Memory{
		ram:             make([]uint8, RAMSize),
		upperROM:        make(map[uint8][]uint8),
		lowerROMEnabled: true,
		upperROMEnabled: true,
	}
}

// SetLowerROM attaches the lower (OS) ROM image.
func (mem *Memory) SetLowerROM(data []uint8) error {
	if len(data) != ROMSize {
		return curated.Errorf(InvalidROMSize, len(data), ROMSize)
	}
	mem.lowerROM = make([]uint8, ROMSize)
	copy(mem.lowerROM, data)
	return nil
}

// AttachUpperROM attaches an upper ROM image to the numbered slot. Slot
// zero is conventionally BASIC and slot seven the disk operating
// system.
func (mem *Memory) AttachUpperROM(slot uint8, data []uint8) error {
	if len(data) != ROMSize {
		return curated.Errorf(InvalidROMSize, len(data), ROMSize)
	}
	rom := make([]uint8, ROMSize)
	copy(rom, data)
	mem.upperROM[slot] = rom
	return nil
}

// EnableLowerROM switches the lower ROM overlay in or out.
func (mem *Memory) EnableLowerROM(enable bool) {
	mem.lowerROMEnabled = enable
}

// EnableUpperROM switches the upper ROM overlay in or out.
func (mem *Memory) EnableUpperROM(enable bool) {
	mem.upperROMEnabled = enable
}

// SelectUpperROM chooses which numbered upper ROM appears in the upper
// window. Selecting an empty slot causes reads to fall through to RAM.
func (mem *Memory) SelectUpperROM(slot uint8) {
	mem.selectedUpper = slot
}

// Read returns the byte at the address as the CPU sees it.
func (mem *Memory) Read(address uint16) uint8 {
	if mem.lowerROMEnabled && address < ROMSize && mem.lowerROM != nil {
		return mem.lowerROM[address]
	}

	if mem.upperROMEnabled && address >= upperROMOrigin {
		if rom, ok := mem.upperROM[mem.selectedUpper]; ok {
			return rom[address-upperROMOrigin]
		}
	}

	return mem.ram[address]
}

// ReadRAM returns the byte at the address ignoring any ROM overlay.
// This is the view the gate array has when fetching pixels.
func (mem *Memory) ReadRAM(address uint16) uint8 {
	return mem.ram[address]
}

// Write the byte at the address. Writes always reach the RAM; a write
// "to ROM" lands in the RAM beneath the overlay.
func (mem *Memory) Write(address uint16, value uint8) {
	mem.ram[address] = value
}

// ReadWord reads a 16bit little-endian value. The second byte wraps at
// the top of the address space.
func (mem *Memory) ReadWord(address uint16) uint16 {
	lo := mem.Read(address)
	hi := mem.Read(address + 1)
	return uint16(lo) | (uint16(hi) << 8)
}

// WriteWord writes a 16bit little-endian value. The second byte wraps
// at the top of the address space.
func (mem *Memory) WriteWord(address uint16, value uint16) {
	mem.Write(address, uint8(value))
	mem.Write(address+1, uint8(value>>8))
}

// Snapshot returns a deep copy of the memory state. ROM images are
// immutable once attached so the copy shares them.
func (mem *Memory) Snapshot() *MemoryState {
	ram := make([]uint8, len(mem.ram))
	copy(ram, mem.ram)
	return &MemoryState{
		RAM:             ram,
		LowerROMEnabled: mem.lowerROMEnabled,
		UpperROMEnabled: mem.upperROMEnabled,
		SelectedUpper:   mem.selectedUpper,
	}
}

// Restore the memory state from a snapshot.
func (mem *Memory) Restore(state *MemoryState) {
	copy(mem.ram, state.RAM)
	mem.lowerROMEnabled = state.LowerROMEnabled
	mem.upperROMEnabled = state.UpperROMEnabled
	mem.selectedUpper = state.SelectedUpper
}

// MemoryState is a snapshot of the mutable memory state.
type MemoryState struct {
	RAM             []uint8 `json:"ram"`
	LowerROMEnabled bool    `json:"lowerRomEnabled"`
	UpperROMEnabled bool    `json:"upperRomEnabled"`
	SelectedUpper   uint8   `json:"selectedUpperRom"`
}
