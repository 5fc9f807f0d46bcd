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

// Package keyboard implements the key matrix. The matrix is scanned by
// the machine itself: the PPI selects a line and the PSG reads the
// eight key bits of that line, active low. The package also carries
// the key definition table mapping key names to matrix positions.
package keyboard

const numLines = 10

// Keyboard is the 10x8 key matrix. Create one with NewKeyboard().
type Keyboard struct {
	lines      [numLines]uint8
	activeLine int
}

func NewKeyboard() *Keyboard {
	k := &Keyboard{}
	k.Reset()
	return k
}

// Reset releases every key.
func (k *Keyboard) Reset() {
	for i := range k.lines {
		k.lines[i] = 0xff
	}
}

// Press the key at the matrix position. Out of range positions are
// ignored.
func (k *Keyboard) Press(line, bit int) {
	if line < 0 || line >= numLines || bit < 0 || bit > 7 {
		return
	}
	k.lines[line] &^= 1 << bit
}

// Release the key at the matrix position.
func (k *Keyboard) Release(line, bit int) {
	if line < 0 || line >= numLines || bit < 0 || bit > 7 {
		return
	}
	k.lines[line] |= 1 << bit
}

// SetActiveLine selects the matrix line to be scanned. Driven from the
// low nibble of PPI port C.
func (k *Keyboard) SetActiveLine(line int) {
	k.activeLine = line
}

// ScanActiveLine returns the key bits of the selected line, active
// low. A selected line beyond the matrix reads as no keys pressed.
func (k *Keyboard) ScanActiveLine() uint8 {
	if k.activeLine < 0 || k.activeLine >= numLines {
		return 0xff
	}
	return k.lines[k.activeLine]
}

// Key is a position in the matrix.
type Key struct {
	Line int
	Bit  int
}

// Keys maps key names to matrix positions. Joystick 1 shares the
// matrix with the keyboard on line 9.
var Keys = map[string]Key{
	"up":        {0, 0},
	"right":     {0, 1},
	"down":      {0, 2},
	"f9":        {0, 3},
	"f6":        {0, 4},
	"f3":        {0, 5},
	"enter":     {0, 6},
	"fdot":      {0, 7},
	"left":      {1, 0},
	"copy":      {1, 1},
	"f7":        {1, 2},
	"f8":        {1, 3},
	"f5":        {1, 4},
	"f1":        {1, 5},
	"f2":        {1, 6},
	"f0":        {1, 7},
	"clr":       {2, 0},
	"[":         {2, 1},
	"return":    {2, 2},
	"]":         {2, 3},
	"f4":        {2, 4},
	"shift":     {2, 5},
	"\\":        {2, 6},
	"control":   {2, 7},
	"^":         {3, 0},
	"-":         {3, 1},
	"@":         {3, 2},
	"p":         {3, 3},
	";":         {3, 4},
	":":         {3, 5},
	"/":         {3, 6},
	".":         {3, 7},
	"0":         {4, 0},
	"9":         {4, 1},
	"o":         {4, 2},
	"i":         {4, 3},
	"l":         {4, 4},
	"k":         {4, 5},
	"m":         {4, 6},
	",":         {4, 7},
	"8":         {5, 0},
	"7":         {5, 1},
	"u":         {5, 2},
	"y":         {5, 3},
	"h":         {5, 4},
	"j":         {5, 5},
	"n":         {5, 6},
	"space":     {5, 7},
	"6":         {6, 0},
	"5":         {6, 1},
	"r":         {6, 2},
	"t":         {6, 3},
	"g":         {6, 4},
	"f":         {6, 5},
	"b":         {6, 6},
	"v":         {6, 7},
	"4":         {7, 0},
	"3":         {7, 1},
	"e":         {7, 2},
	"w":         {7, 3},
	"s":         {7, 4},
	"d":         {7, 5},
	"c":         {7, 6},
	"x":         {7, 7},
	"1":         {8, 0},
	"2":         {8, 1},
	"escape":    {8, 2},
	"q":         {8, 3},
	"tab":       {8, 4},
	"a":         {8, 5},
	"capslock":  {8, 6},
	"z":         {8, 7},
	"joy-up":    {9, 0},
	"joy-down":  {9, 1},
	"joy-left":  {9, 2},
	"joy-right": {9, 3},
	"joy-fire2": {9, 4},
	"joy-fire1": {9, 5},
	"delete":    {9, 7},
}

// State is the serialisable form of the matrix, used by machine
// snapshots.
type State struct {
	Lines      [numLines]uint8 `json:"lines"`
	ActiveLine int             `json:"activeLine"`
}

func (k *Keyboard) Snapshot() State {
	return State{Lines: k.lines, ActiveLine: k.activeLine}
}

func (k *Keyboard) Restore(s State) {
	k.lines = s.Lines
	k.activeLine = s.ActiveLine
}
