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

// Package sdlscreen draws completed frames in an SDL window and turns
// SDL keyboard events into machine key names. Everything must be
// called from the main goroutine, the run loop services events
// between frames.
package sdlscreen

import (
	"strings"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/hathersage/gopher464/curated"
	"github.com/hathersage/gopher464/logger"
	"github.com/hathersage/gopher464/screen"
)

// sentinal error messages
const (
	NoSDL = "sdlscreen: %v"
)

const windowTitle = "Gopher464"

// SdlScreen is an implementation of the screen.Renderer interface.
type SdlScreen struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	// called from Service() with machine key names. either may be nil
	PressKey   func(key string)
	ReleaseKey func(key string)

	quit bool
}

// NewSdlScreen is the preferred method of initialisation for the
// SdlScreen type.
func NewSdlScreen(scale float32) (*SdlScreen, error) {
	if scale <= 0 {
		scale = 1.0
	}

	scr := &SdlScreen{}

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, curated.Errorf(NoSDL, err)
	}

	scr.window, err = sdl.CreateWindow(windowTitle,
		int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED),
		int32(float32(screen.Width)*scale), int32(float32(screen.Height)*scale),
		uint32(sdl.WINDOW_SHOWN))
	if err != nil {
		return nil, curated.Errorf(NoSDL, err)
	}

	scr.renderer, err = sdl.CreateRenderer(scr.window, -1,
		uint32(sdl.RENDERER_ACCELERATED)|uint32(sdl.RENDERER_PRESENTVSYNC))
	if err != nil {
		return nil, curated.Errorf(NoSDL, err)
	}

	scr.texture, err = scr.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888),
		int(sdl.TEXTUREACCESS_STREAMING), screen.Width, screen.Height)
	if err != nil {
		return nil, curated.Errorf(NoSDL, err)
	}

	scr.renderer.Clear()
	scr.renderer.Present()

	return scr, nil
}

// Destroy the window and everything in it.
func (scr *SdlScreen) Destroy() {
	if scr.texture != nil {
		_ = scr.texture.Destroy()
	}
	if scr.renderer != nil {
		_ = scr.renderer.Destroy()
	}
	if scr.window != nil {
		_ = scr.window.Destroy()
	}
}

// NewFrame implements the screen.Renderer interface.
func (scr *SdlScreen) NewFrame(pixels []uint8) error {
	err := scr.texture.Update(nil, pixels, screen.Width*screen.Depth)
	if err != nil {
		return curated.Errorf(NoSDL, err)
	}

	scr.renderer.SetDrawColor(0, 0, 0, 255)
	err = scr.renderer.Clear()
	if err != nil {
		return curated.Errorf(NoSDL, err)
	}

	err = scr.renderer.Copy(scr.texture, nil, nil)
	if err != nil {
		return curated.Errorf(NoSDL, err)
	}

	scr.renderer.Present()
	return nil
}

// Service polls pending SDL events. A loop rather than WaitEvent so
// that the emulation is never held up.
func (scr *SdlScreen) Service() {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			scr.quit = true

		case *sdl.KeyboardEvent:
			if ev.Repeat != 0 {
				continue
			}

			key, ok := machineKey(sdl.GetKeyName(ev.Keysym.Sym))
			if !ok {
				continue
			}

			switch ev.Type {
			case sdl.KEYDOWN:
				if scr.PressKey != nil {
					scr.PressKey(key)
				}
			case sdl.KEYUP:
				if scr.ReleaseKey != nil {
					scr.ReleaseKey(key)
				}
			}
		}
	}
}

// Quit reports whether the window has been asked to close.
func (scr *SdlScreen) Quit() bool {
	return scr.quit
}

// keyNames maps SDL key names onto machine key names where the two
// differ. the machine's function keys live on the keypad.
var keyNames = map[string]string{
	"Space":        "space",
	"Return":       "return",
	"Escape":       "escape",
	"Backspace":    "delete",
	"Delete":       "clr",
	"Tab":          "tab",
	"CapsLock":     "capslock",
	"Left Shift":   "shift",
	"Right Shift":  "shift",
	"Left Ctrl":    "control",
	"Right Ctrl":   "control",
	"Up":           "up",
	"Down":         "down",
	"Left":         "left",
	"Right":        "right",
	"Keypad 0":     "f0",
	"Keypad 1":     "f1",
	"Keypad 2":     "f2",
	"Keypad 3":     "f3",
	"Keypad 4":     "f4",
	"Keypad 5":     "f5",
	"Keypad 6":     "f6",
	"Keypad 7":     "f7",
	"Keypad 8":     "f8",
	"Keypad 9":     "f9",
	"Keypad .":     "fdot",
	"Keypad Enter": "enter",
	"End":          "copy",
}

func machineKey(name string) (string, bool) {
	if key, ok := keyNames[name]; ok {
		return key, true
	}

	// single characters map directly
	if len(name) == 1 {
		return strings.ToLower(name), true
	}

	logger.Logf("sdlscreen", "no machine key for %s", name)
	return "", false
}
