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

// Package curated is how errors are created in the Gopher464 project.
// Curated errors take a pattern string and values, like fmt.Errorf(),
// but the pattern doubles as the error's identity:
//
//	err := curated.Errorf("dsk: %v", err)
//
//	if curated.Is(err, "dsk: %v") {
//		...
//	}
//
// Sentinel patterns used across package boundaries are declared as
// constants in the package that creates them. The Has() function walks
// the chain of wrapped curated errors looking for a pattern at any
// depth, which is useful at the outermost layers of the program where
// an error may have been wrapped several times on its way up from the
// hardware.
//
// Errors in this project are for boundary conditions - a disk image
// that doesn't parse, a ROM file that can't be read. Violations of
// internal invariants (an impossible register index, a phase the state
// machine can't be in) are programming errors and panic instead.
package curated
