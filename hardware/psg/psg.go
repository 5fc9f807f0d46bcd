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

// Package psg implements the AY-3-8912 sound generator. The chip is
// clocked at 1MHz, one tick per NOP of CPU time. Besides sound, its
// I/O port is how the machine reads the keyboard matrix.
package psg

import "github.com/hathersage/gopher464/hardware/keyboard"

// Register numbers.
const (
	FineA = iota
	CoarseA
	FineB
	CoarseB
	FineC
	CoarseC
	NoisePeriod
	MixerControl
	LevelA
	LevelB
	LevelC
	EnvelopeFine
	EnvelopeCoarse
	EnvelopeShape
	PortA

	NumRegisters
)

// significant bits per register. writes are masked; the unused bits of
// a register read back as zero.
var registerMask = [NumRegisters]uint8{
	0xff, 0x0f, 0xff, 0x0f, 0xff, 0x0f, 0x1f, 0xff,
	0x1f, 0x1f, 0x1f, 0xff, 0xff, 0x0f, 0xff,
}

// SampleSink receives the generated mono samples at the fixed output
// rate.
type SampleSink interface {
	AddSample(sample float32)
}

// SampleRate of the generated audio stream.
const SampleRate = 44100

// chip clock in Hz. one tick per NOP.
const chipClock = 1000000

// measured output levels of the chip's 16 volume steps
var volumes = [16]float32{
	0.0, 0.00999466, 0.014450294, 0.021057451,
	0.030701153, 0.045548182, 0.064499885, 0.10736248,
	0.12658885, 0.2049897, 0.29221028, 0.37283894,
	0.4925307, 0.63532466, 0.8055848, 1.0,
}

// PSG is the sound generator. Create one with NewPSG().
type PSG struct {
	registers [NumRegisters]uint8
	selected  int

	// data bus latch between the PPI and the chip
	buffer uint8

	// tone generators: downcounters and output bits
	toneCount  [3]uint16
	toneOutput [3]bool

	// noise generator
	noiseCount uint16
	lfsr       uint32

	// envelope generator
	envelopeCount   uint16
	envelopeStep    int
	envelopeHolding bool

	// prescalers dividing the chip clock down to the generator clocks
	prescale8  uint8
	prescale16 uint8

	// output resampling accumulator
	sampleAccumulator int
}

func NewPSG() *PSG {
	p := &PSG{}
	p.Reset()
	return p
}

func (p *PSG) Reset() {
	*p = PSG{lfsr: 1}
}

// ReadData returns the chip's data bus latch, as seen through PPI port
// A.
func (p *PSG) ReadData() uint8 {
	return p.buffer
}

// WriteData latches a value onto the chip's data bus.
func (p *PSG) WriteData(data uint8) {
	p.buffer = data
}

// Strobe functions, as driven by the top two bits of PPI port C.
const (
	StrobeInactive = iota
	StrobeRead
	StrobeWrite
	StrobeLatchAddress
)

// Strobe performs one of the chip's bus functions on the latched data
// byte. Reading register 14 scans the selected keyboard line.
func (p *PSG) Strobe(keys *keyboard.Keyboard, function uint8) {
	switch function {
	case StrobeRead:
		if p.selected == PortA {
			p.buffer = keys.ScanActiveLine()
		} else if p.selected < NumRegisters {
			p.buffer = p.registers[p.selected]
		} else {
			p.buffer = 0
		}
	case StrobeWrite:
		if p.selected < NumRegisters {
			p.registers[p.selected] = p.buffer & registerMask[p.selected]
			if p.selected == EnvelopeShape {
				p.restartEnvelope()
			}
		}
	case StrobeLatchAddress:
		p.selected = int(p.buffer)
	}
}

func (p *PSG) tonePeriod(channel int) uint16 {
	period := uint16(p.registers[CoarseA+2*channel])<<8 | uint16(p.registers[FineA+2*channel])
	if period == 0 {
		return 1
	}
	return period
}

func (p *PSG) noisePeriod() uint16 {
	period := uint16(p.registers[NoisePeriod])
	if period == 0 {
		return 1
	}
	return period
}

func (p *PSG) envelopePeriod() uint16 {
	period := uint16(p.registers[EnvelopeCoarse])<<8 | uint16(p.registers[EnvelopeFine])
	if period == 0 {
		return 1
	}
	return period
}

func (p *PSG) restartEnvelope() {
	p.envelopeCount = 0
	p.envelopeStep = 0
	p.envelopeHolding = false
}

// envelope shape bits
const (
	shapeHold = 1 << iota
	shapeAlternate
	shapeAttack
	shapeContinue
)

// envelopeLevel returns the current envelope amplitude step, applying
// the shape register to the raw step counter.
func (p *PSG) envelopeLevel() int {
	shape := p.registers[EnvelopeShape]

	cycle := p.envelopeStep >> 4
	step := p.envelopeStep & 0x0f

	attack := shape&shapeAttack != 0

	if cycle > 0 {
		if shape&shapeContinue == 0 {
			// non-continuing shapes fall to zero and stay there
			return 0
		}
		if shape&shapeHold != 0 {
			if shape&shapeAlternate != 0 {
				attack = !attack
			}
			if attack {
				return 15
			}
			return 0
		}
		if shape&shapeAlternate != 0 && cycle&1 == 1 {
			attack = !attack
		}
	}

	if attack {
		return step
	}
	return 15 - step
}

func (p *PSG) stepEnvelope() {
	if p.envelopeHolding {
		return
	}
	p.envelopeCount++
	if p.envelopeCount >= p.envelopePeriod() {
		p.envelopeCount = 0
		p.envelopeStep++

		shape := p.registers[EnvelopeShape]
		if p.envelopeStep >= 32 {
			if shape&shapeContinue == 0 || shape&shapeHold != 0 {
				p.envelopeStep = 32
				p.envelopeHolding = true
			} else {
				p.envelopeStep = 0
			}
		}
	}
}

func (p *PSG) stepTone() {
	for ch := 0; ch < 3; ch++ {
		p.toneCount[ch]++
		if p.toneCount[ch] >= p.tonePeriod(ch) {
			p.toneCount[ch] = 0
			p.toneOutput[ch] = !p.toneOutput[ch]
		}
	}
}

func (p *PSG) stepNoise() {
	p.noiseCount++
	if p.noiseCount >= p.noisePeriod() {
		p.noiseCount = 0

		// 17-bit LFSR, taps at bits 0 and 3
		feedback := (p.lfsr ^ (p.lfsr >> 3)) & 1
		p.lfsr = p.lfsr>>1 | feedback<<16
	}
}

func (p *PSG) noiseOutput() bool {
	return p.lfsr&1 != 0
}

// channelSample returns the amplitude contribution of one channel
// through the mixer.
func (p *PSG) channelSample(ch int) float32 {
	mixer := p.registers[MixerControl]

	// enable bits are active low. a disabled source holds the mixer
	// input high rather than silencing the channel.
	tone := p.toneOutput[ch] || mixer&(1<<ch) != 0
	noise := p.noiseOutput() || mixer&(8<<ch) != 0

	if !(tone && noise) {
		return 0
	}

	level := p.registers[LevelA+ch]
	if level&0x10 != 0 {
		return volumes[p.envelopeLevel()]
	}
	return volumes[level&0x0f]
}

// Step advances the chip by one tick (1µs). When a new output sample
// falls due it is pushed to the sink. A nil sink runs the generators
// without producing audio.
func (p *PSG) Step(sink SampleSink) {
	// tone and noise run at 1/8 of the chip clock, the envelope at
	// 1/16
	p.prescale8++
	if p.prescale8 >= 8 {
		p.prescale8 = 0
		p.stepTone()
		p.stepNoise()

		p.prescale16++
		if p.prescale16 >= 2 {
			p.prescale16 = 0
			p.stepEnvelope()
		}
	}

	if sink == nil {
		return
	}

	p.sampleAccumulator += SampleRate
	if p.sampleAccumulator >= chipClock {
		p.sampleAccumulator -= chipClock

		sample := (p.channelSample(0) + p.channelSample(1) + p.channelSample(2)) / 3
		sink.AddSample(sample)
	}
}

// State is the serialisable form of the chip, used by machine
// snapshots.
type State struct {
	Registers [NumRegisters]uint8 `json:"registers"`
	Selected  int                 `json:"selected"`
	Buffer    uint8               `json:"buffer"`
}

func (p *PSG) Snapshot() State {
	return State{
		Registers: p.registers,
		Selected:  p.selected,
		Buffer:    p.buffer,
	}
}

func (p *PSG) Restore(s State) {
	p.registers = s.Registers
	p.selected = s.Selected
	p.buffer = s.Buffer
}
