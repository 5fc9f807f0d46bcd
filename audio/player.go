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

package audio

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"

	"github.com/hathersage/gopher464/curated"
	"github.com/hathersage/gopher464/hardware/psg"
)

// sentinal error messages
const (
	NoAudio = "audio: %v"
)

// Player drains a Queue through the host's audio device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	queue  *Queue
}

// NewPlayer is the preferred method of initialisation for the Player
// type. The player is created paused.
func NewPlayer(queue *Queue) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   psg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, curated.Errorf(NoAudio, err)
	}
	<-ready

	p := &Player{
		ctx:   ctx,
		queue: queue,
	}
	p.player = ctx.NewPlayer(p)

	return p, nil
}

// Read implements the io.Reader interface required by oto. An empty
// queue reads as silence, the emulation is never waited on.
func (p *Player) Read(b []byte) (int, error) {
	n := len(b) / 4 * 4
	for i := 0; i < n; i += 4 {
		binary.LittleEndian.PutUint32(b[i:], math.Float32bits(p.queue.Pop()))
	}
	return n, nil
}

// Play starts playback.
func (p *Player) Play() {
	if !p.player.IsPlaying() {
		p.player.Play()
	}
}

// Pause suspends playback. buffered samples are retained.
func (p *Player) Pause() {
	if p.player.IsPlaying() {
		p.player.Pause()
	}
}

// Close the playback stream.
func (p *Player) Close() error {
	err := p.player.Close()
	if err != nil {
		return curated.Errorf(NoAudio, err)
	}
	return nil
}
