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

package cpu

// State is the serialisable form of the CPU, used by machine
// snapshots.
type State struct {
	Registers Registers `json:"registers"`
	IFF1      bool      `json:"iff1"`
	IFF2      bool      `json:"iff2"`
	IM        int       `json:"im"`
	Halted    bool      `json:"halted"`
}

// Snapshot returns a copy of the complete CPU state.
func (c *CPU) Snapshot() State {
	return State{
		Registers: c.Reg,
		IFF1:      c.IFF1,
		IFF2:      c.IFF2,
		IM:        c.IM,
		Halted:    c.Halted,
	}
}

// Restore replaces the CPU state with a previously taken snapshot.
func (c *CPU) Restore(s State) {
	c.Reg = s.Registers
	c.IFF1 = s.IFF1
	c.IFF2 = s.IFF2
	c.IM = s.IM
	c.Halted = s.Halted
	c.eiShadow = false
}
