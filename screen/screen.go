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

// Package screen assembles the gate array's pixel stream into RGBA
// frames. The stream carries the full raster, sync and border
// periods included; the screen crops it to the visible window and
// doubles every scanline so that the resulting image has a sensible
// aspect ratio.
//
// A Renderer receives each completed frame. The package has no
// opinion about what a Renderer does with it: the sdlscreen
// sub-package draws frames in a window, tests capture them directly.
package screen

// Visible frame dimensions. Width covers 48 characters of 16 pixels,
// Height is 280 scanlines doubled.
const (
	Width  = 48 * 16
	Height = 35 * 16
	Depth  = 4
)

// the full raster the pixel stream describes. the vertical dimension
// counts doubled scanlines
const (
	rasterWidth  = 64 * 16
	rasterHeight = 39 * 16

	// the visible window is offset into the raster: 4 characters of
	// left border and 4 character rows (doubled) of top border
	leadIn  = 4 * 16
	topCrop = 4 * 16
)

// firmwareColors is the RGB rendition of the 27 colours the monitor
// can show.
var firmwareColors = [27][3]uint8{
	{0x00, 0x00, 0x00},
	{0x00, 0x00, 0x80},
	{0x00, 0x00, 0xff},
	{0x80, 0x00, 0x00},
	{0x80, 0x00, 0x80},
	{0x80, 0x00, 0xff},
	{0xff, 0x00, 0x00},
	{0xff, 0x00, 0x80},
	{0xff, 0x00, 0xff},
	{0x00, 0x80, 0x00},
	{0x00, 0x80, 0x80},
	{0x00, 0x80, 0xff},
	{0x80, 0x80, 0x00},
	{0x80, 0x80, 0x80},
	{0x80, 0x80, 0xff},
	{0xff, 0x80, 0x00},
	{0xff, 0x80, 0x80},
	{0xff, 0x80, 0xff},
	{0x00, 0xff, 0x00},
	{0x00, 0xff, 0x80},
	{0x00, 0xff, 0xff},
	{0x80, 0xff, 0x00},
	{0x80, 0xff, 0x80},
	{0x80, 0xff, 0xff},
	{0xff, 0xff, 0x00},
	{0xff, 0xff, 0x80},
	{0xff, 0xff, 0xff},
}

// hardwareColors maps the gate array's 5-bit hardware colour numbers
// onto the monitor colours. several numbers alias the same colour.
var hardwareColors = [32]uint8{
	13, 13, 19, 25, 1, 7, 10, 16,
	7, 25, 24, 26, 6, 8, 15, 17,
	1, 19, 18, 20, 0, 2, 9, 11,
	4, 22, 21, 23, 3, 5, 12, 14,
}

// Color returns the RGB rendition of a hardware colour number.
func Color(hw uint8) (uint8, uint8, uint8) {
	c := firmwareColors[hardwareColors[hw&0x1f]]
	return c[0], c[1], c[2]
}

// Renderer receives completed frames. The pixel slice is the screen's
// working buffer, valid until the next Write; renderers that hold on
// to frames must copy.
type Renderer interface {
	NewFrame(pixels []uint8) error
}

// Screen assembles the pixel stream. It implements the gate array's
// screen interface.
type Screen struct {
	pixels    []uint8
	renderers []Renderer

	// gun is the position in the virtual raster. width counts pixels
	// on the current scanline so that every line can be doubled
	gun   int
	width int

	// no pixels are placed until the first frame signal
	waiting bool
}

// NewScreen is the preferred method of initialisation for the Screen
// type.
func NewScreen() *Screen {
	return &Screen{
		pixels:  make([]uint8, Width*Height*Depth),
		waiting: true,
	}
}

// AddRenderer registers a renderer to receive completed frames.
func (s *Screen) AddRenderer(r Renderer) {
	s.renderers = append(s.renderers, r)
}

// Write places one pixel, given as a hardware colour number. Pixels
// outside the visible window are dropped.
func (s *Screen) Write(color uint8) {
	if s.waiting {
		return
	}

	x := (s.gun + leadIn) % rasterWidth
	y := (s.gun+leadIn)/rasterWidth - topCrop

	if x < Width && y >= 0 && y < Height {
		r, g, b := Color(color)
		i := (y*Width + x) * Depth
		s.pixels[i] = r
		s.pixels[i+1] = g
		s.pixels[i+2] = b
		s.pixels[i+3] = 0xff

		// doubled scanline
		if y+1 < Height {
			i += Width * Depth
			s.pixels[i] = r
			s.pixels[i+1] = g
			s.pixels[i+2] = b
			s.pixels[i+3] = 0xff
		}
	}

	s.gun++
	s.width++
	if s.width == rasterWidth {
		s.gun += rasterWidth
		s.width = 0
	}

	// an overlong field stops at the bottom of the raster and waits
	// for the next frame signal
	if s.gun >= rasterWidth*rasterHeight {
		s.waiting = true
	}
}

// TriggerVSync hands the completed frame to the renderers and starts
// the next one.
func (s *Screen) TriggerVSync() {
	for _, r := range s.renderers {
		// renderer failure is not the emulation's problem
		_ = r.NewFrame(s.pixels)
	}
	s.gun = 0
	s.width = 0
	s.waiting = false
}
