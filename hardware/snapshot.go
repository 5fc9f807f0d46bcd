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
	"github.com/hathersage/gopher464/hardware/cpu"
	"github.com/hathersage/gopher464/hardware/crtc"
	"github.com/hathersage/gopher464/hardware/fdc"
	"github.com/hathersage/gopher464/hardware/gatearray"
	"github.com/hathersage/gopher464/hardware/keyboard"
	"github.com/hathersage/gopher464/hardware/memory"
	"github.com/hathersage/gopher464/hardware/ppi"
	"github.com/hathersage/gopher464/hardware/psg"
)

// Snapshot is the aggregated state of every chip in the machine. It
// serialises to JSON. Mounted disk images and attached ROMs are not
// part of a snapshot.
type Snapshot struct {
	CPU       cpu.State           `json:"cpu"`
	Mem       *memory.MemoryState `json:"memory"`
	CRTC      crtc.State          `json:"crtc"`
	GateArray gatearray.State     `json:"gateArray"`
	PPI       ppi.State           `json:"ppi"`
	Keyboard  keyboard.State      `json:"keyboard"`
	PSG       psg.State           `json:"psg"`
	FDC       fdc.State           `json:"fdc"`
}

// Snapshot the machine. Defined for a paused machine; the caller
// serialises access.
func (mc *CPC) Snapshot() Snapshot {
	return Snapshot{
		CPU:       mc.CPU.Snapshot(),
		Mem:       mc.Mem.Snapshot(),
		CRTC:      mc.CRTC.Snapshot(),
		GateArray: mc.GateArray.Snapshot(),
		PPI:       mc.PPI.Snapshot(),
		Keyboard:  mc.Keyboard.Snapshot(),
		PSG:       mc.PSG.Snapshot(),
		FDC:       mc.FDC.Snapshot(),
	}
}

// RestoreSnapshot returns the machine to a previously snapshotted
// state.
func (mc *CPC) RestoreSnapshot(s Snapshot) {
	mc.CPU.Restore(s.CPU)
	mc.Mem.Restore(s.Mem)
	mc.CRTC.Restore(s.CRTC)
	mc.GateArray.Restore(s.GateArray)
	mc.PPI.Restore(s.PPI)
	mc.Keyboard.Restore(s.Keyboard)
	mc.PSG.Restore(s.PSG)
	mc.FDC.Restore(s.FDC)
}
