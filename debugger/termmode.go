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

package debugger

import (
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// termModes wraps "github.com/pkg/term/termios" with the two terminal
// modes the debugger needs: canonical mode for line input at the
// prompt and a non-blocking cbreak mode for catching a keypress while
// the machine is running.
//
// When the input is not a terminal (input piped from a script, or a
// test) every method is a no-op.
type termModes struct {
	input *os.File
	ok    bool

	canonical unix.Termios
	poll      unix.Termios
}

func newTermModes(input *os.File) *termModes {
	tm := &termModes{input: input}

	if err := termios.Tcgetattr(input.Fd(), &tm.canonical); err != nil {
		return tm
	}
	tm.ok = true

	// cbreak but with a zero minimum read count, so that a read with
	// no key waiting returns immediately
	tm.poll = tm.canonical
	termios.Cfmakecbreak(&tm.poll)
	tm.poll.Cc[unix.VMIN] = 0
	tm.poll.Cc[unix.VTIME] = 0

	return tm
}

// canonicalMode returns the terminal to ordinary line input.
func (tm *termModes) canonicalMode() {
	if !tm.ok {
		return
	}
	_ = termios.Tcsetattr(tm.input.Fd(), termios.TCIFLUSH, &tm.canonical)
}

// pollMode puts the terminal into non-blocking single character input.
func (tm *termModes) pollMode() {
	if !tm.ok {
		return
	}
	_ = termios.Tcsetattr(tm.input.Fd(), termios.TCIFLUSH, &tm.poll)
}

// keyPressed reports whether a key has been pressed since the last
// call. Only meaningful in pollMode.
func (tm *termModes) keyPressed() bool {
	if !tm.ok {
		return false
	}
	b := make([]byte, 1)
	n, _ := tm.input.Read(b)
	return n > 0
}