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

package psg_test

import (
	"testing"

	"github.com/hathersage/gopher464/hardware/keyboard"
	"github.com/hathersage/gopher464/hardware/psg"
	"github.com/hathersage/gopher464/test"
)

type captureSink struct {
	samples []float32
}

func (s *captureSink) AddSample(sample float32) {
	s.samples = append(s.samples, sample)
}

func writeRegister(p *psg.PSG, keys *keyboard.Keyboard, reg, value uint8) {
	p.WriteData(reg)
	p.Strobe(keys, psg.StrobeLatchAddress)
	p.WriteData(value)
	p.Strobe(keys, psg.StrobeWrite)
}

func readRegister(p *psg.PSG, keys *keyboard.Keyboard, reg uint8) uint8 {
	p.WriteData(reg)
	p.Strobe(keys, psg.StrobeLatchAddress)
	p.Strobe(keys, psg.StrobeRead)
	return p.ReadData()
}

func TestRegisterWriteMasking(t *testing.T) {
	p := psg.NewPSG()
	keys := keyboard.NewKeyboard()

	// coarse periods are four bits wide
	writeRegister(p, keys, psg.CoarseA, 0xff)
	test.Equate(t, readRegister(p, keys, psg.CoarseA), 0x0f)

	writeRegister(p, keys, psg.NoisePeriod, 0xff)
	test.Equate(t, readRegister(p, keys, psg.NoisePeriod), 0x1f)

	writeRegister(p, keys, psg.FineA, 0xff)
	test.Equate(t, readRegister(p, keys, psg.FineA), 0xff)
}

func TestKeyboardThroughRegister14(t *testing.T) {
	p := psg.NewPSG()
	keys := keyboard.NewKeyboard()

	k := keyboard.Keys["space"]
	keys.Press(k.Line, k.Bit)
	keys.SetActiveLine(k.Line)

	test.Equate(t, readRegister(p, keys, 14), 0xff&^(uint8(1)<<uint(k.Bit)))
}

func TestToneGeneration(t *testing.T) {
	p := psg.NewPSG()
	keys := keyboard.NewKeyboard()
	sink := &captureSink{}

	// channel a: period 100, full volume, tone enabled, noise off
	writeRegister(p, keys, psg.FineA, 100)
	writeRegister(p, keys, psg.CoarseA, 0)
	writeRegister(p, keys, psg.LevelA, 0x0f)
	writeRegister(p, keys, psg.MixerControl, 0xfe)

	// two full square wave cycles is 3200 ticks; run well past that
	for i := 0; i < 20000; i++ {
		p.Step(sink)
	}

	// samples arrive at the output rate
	test.Equate(t, len(sink.samples), 20000*psg.SampleRate/1000000)

	// the output must alternate between silence and the channel level
	high := float32(1.0 / 3.0)
	seenHigh := 0
	seenLow := 0
	for _, s := range sink.samples {
		if s == 0 {
			seenLow++
		} else if s > high*0.99 && s < high*1.01 {
			seenHigh++
		} else {
			t.Fatalf("unexpected sample level %f", s)
		}
	}
	test.Equate(t, seenHigh > 0, true)
	test.Equate(t, seenLow > 0, true)
}

func TestMixerAllDisabledIsConstant(t *testing.T) {
	p := psg.NewPSG()
	keys := keyboard.NewKeyboard()
	sink := &captureSink{}

	writeRegister(p, keys, psg.FineA, 100)
	writeRegister(p, keys, psg.LevelA, 0x0f)
	// everything disabled: all mixer inputs are held high, so every
	// channel contributes its full level continuously
	writeRegister(p, keys, psg.MixerControl, 0xff)

	for i := 0; i < 10000; i++ {
		p.Step(sink)
	}

	for _, s := range sink.samples {
		if s < 0.1 {
			t.Fatalf("expected constant output, got %f", s)
		}
	}
}

func TestEnvelopeDecay(t *testing.T) {
	p := psg.NewPSG()
	keys := keyboard.NewKeyboard()

	// channel a follows the envelope; single decay shape
	writeRegister(p, keys, psg.LevelA, 0x10)
	writeRegister(p, keys, psg.EnvelopeFine, 10)
	writeRegister(p, keys, psg.EnvelopeCoarse, 0)
	writeRegister(p, keys, psg.EnvelopeShape, 0x00)
	writeRegister(p, keys, psg.MixerControl, 0xff)

	sink := &captureSink{}

	// decay shape: the first sample is loud. 16 envelope steps of 10
	// periods at 16 ticks each is 2560 ticks to silence.
	for i := 0; i < 6000; i++ {
		p.Step(sink)
	}

	test.Equate(t, len(sink.samples) > 2, true)
	first := sink.samples[0]
	last := sink.samples[len(sink.samples)-1]
	test.Equate(t, first > 0.2, true)
	test.Equate(t, last, float32(0))
}
