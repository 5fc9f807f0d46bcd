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

// Package hardware assembles the chips into a machine and schedules
// them against one another. The CPC owns exactly one instance of
// every chip; the chips themselves never hold references to each
// other, everything they need arrives per call from here.
//
// Time is counted in NOP units: one unit is four Z80 T-states, one
// microsecond of machine time. The CPU reports the cost of each
// instruction in these units and the video and sound chips are
// stepped once per unit to keep everything in lockstep.
package hardware

import (
	"github.com/hathersage/gopher464/curated"
	"github.com/hathersage/gopher464/disassembly"
	"github.com/hathersage/gopher464/dsk"
	"github.com/hathersage/gopher464/hardware/cpu"
	"github.com/hathersage/gopher464/hardware/crtc"
	"github.com/hathersage/gopher464/hardware/fdc"
	"github.com/hathersage/gopher464/hardware/gatearray"
	"github.com/hathersage/gopher464/hardware/keyboard"
	"github.com/hathersage/gopher464/hardware/memory"
	"github.com/hathersage/gopher464/hardware/ppi"
	"github.com/hathersage/gopher464/hardware/psg"
	"github.com/hathersage/gopher464/logger"
)

// sentinal error messages
const (
	UnknownKey = "cpc: unknown key %s"
	BadDisk    = "cpc: %v"
)

// FrameUnits is the length of one 50Hz field in NOP units.
const FrameUnits = 64 * 312

// CPC is the machine.
type CPC struct {
	CPU       *cpu.CPU
	Mem       *memory.Memory
	CRTC      *crtc.CRTC
	GateArray *gatearray.GateArray
	PPI       *ppi.PPI
	Keyboard  *keyboard.Keyboard
	PSG       *psg.PSG
	FDC       *fdc.FDC

	// optional outputs. either may be nil, in which case the chips run
	// without producing pixels or samples
	screen gatearray.Screen
	audio  psg.SampleSink
}

// NewCPC is the preferred method of initialisation for the CPC type.
func NewCPC() *CPC {
	mc := &CPC{
		Mem:       memory.NewMemory(),
		CRTC:      crtc.NewCRTC(),
		GateArray: gatearray.NewGateArray(),
		PPI:       ppi.NewPPI(),
		Keyboard:  keyboard.NewKeyboard(),
		PSG:       psg.NewPSG(),
		FDC:       fdc.NewFDC(),
	}
	mc.CPU = cpu.NewCPU(mc)
	return mc
}

// AttachScreen connects a pixel consumer. A nil screen disconnects.
func (mc *CPC) AttachScreen(scr gatearray.Screen) {
	mc.screen = scr
}

// AttachAudio connects a sample consumer. A nil sink disconnects.
func (mc *CPC) AttachAudio(sink psg.SampleSink) {
	mc.audio = sink
}

// Reset the machine to its power-on state. Attached ROMs and mounted
// disks survive a reset.
func (mc *CPC) Reset() {
	mc.CPU.Reset()
	mc.CRTC.Reset()
	mc.GateArray.Reset()
	mc.PPI.Reset()
	mc.Keyboard.Reset()
	mc.PSG.Reset()
	mc.FDC.Reset()
}

// Step the machine by exactly one instruction (or one interrupt
// acceptance), returning the elapsed time in NOP units.
func (mc *CPC) Step() int {
	mc.CPU.SetIRQ(mc.GateArray.IRQ())

	units, acknowledged := mc.CPU.ExecuteInstruction()
	if acknowledged {
		mc.GateArray.AcknowledgeInterrupt()
	}

	for i := 0; i < units; i++ {
		mc.CRTC.Step()
		mc.GateArray.Step(mc.CRTC, mc.Mem, mc.screen)
		mc.PSG.Step(mc.audio)
	}

	return units
}

// Advance the machine by at least budget NOP units. Instructions are
// not divisible so the machine usually runs slightly past the budget;
// the overshoot is returned so the caller can deduct it from the next
// budget.
func (mc *CPC) Advance(budget int) int {
	acc := 0
	for acc < budget {
		acc += mc.Step()
	}
	return acc - budget
}

// Run the machine freely. continueCheck is consulted between
// instructions; returning false or an error stops the loop.
func (mc *CPC) Run(continueCheck func() (bool, error)) error {
	if continueCheck == nil {
		continueCheck = func() (bool, error) { return true, nil }
	}

	for {
		mc.Step()

		cont, err := continueCheck()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// PressKey presses a named key on the keyboard matrix.
func (mc *CPC) PressKey(name string) error {
	key, ok := keyboard.Keys[name]
	if !ok {
		return curated.Errorf(UnknownKey, name)
	}
	mc.Keyboard.Press(key.Line, key.Bit)
	return nil
}

// ReleaseKey releases a named key on the keyboard matrix.
func (mc *CPC) ReleaseKey(name string) error {
	key, ok := keyboard.Keys[name]
	if !ok {
		return curated.Errorf(UnknownKey, name)
	}
	mc.Keyboard.Release(key.Line, key.Bit)
	return nil
}

// LoadDisk parses a disk image and mounts it in the numbered drive.
// A bad image leaves the drive as it was.
func (mc *CPC) LoadDisk(drive int, data []uint8, name string) error {
	disk, err := dsk.NewDisk(data)
	if err != nil {
		return curated.Errorf(BadDisk, err)
	}

	logger.Logf("cpc", "%s: %v", name, disk)
	mc.FDC.LoadDisk(drive, disk)
	return nil
}

// Disassemble decodes count instructions from the current program
// counter without disturbing the machine.
func (mc *CPC) Disassemble(count int) *disassembly.Disassembly {
	return disassembly.FromMemory(mc.Mem, mc.CPU.Reg.PC, count)
}
