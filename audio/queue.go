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

// Package audio connects the sound generator to the host. The Queue
// buffers generated samples between the emulation and the playback
// goroutine; the Player drains it through oto in real time.
//
// The emulation must never block on audio. when the queue is full the
// newest sample is dropped, when it is empty playback hears silence.
package audio

import (
	"sync"
)

// a quarter of a second of buffered audio at the generator's output
// rate
const defaultQueueLen = 11025

// Queue is a bounded sample buffer. It implements the sound
// generator's SampleSink interface on the producer side and feeds the
// Player on the consumer side.
type Queue struct {
	crit sync.Mutex
	buf  []float32
	head int
	tail int
	used int

	dropped int
}

// NewQueue is the preferred method of initialisation for the Queue
// type. A capacity of zero or less selects the default.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultQueueLen
	}
	return &Queue{
		buf: make([]float32, capacity),
	}
}

// AddSample implements the psg.SampleSink interface. The sample is
// dropped if the queue is full.
func (q *Queue) AddSample(sample float32) {
	q.crit.Lock()
	defer q.crit.Unlock()

	if q.used == len(q.buf) {
		q.dropped++
		return
	}

	q.buf[q.tail] = sample
	q.tail = (q.tail + 1) % len(q.buf)
	q.used++
}

// Pop removes the oldest sample. Silence is returned when the queue
// is empty.
func (q *Queue) Pop() float32 {
	q.crit.Lock()
	defer q.crit.Unlock()

	if q.used == 0 {
		return 0
	}

	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.used--
	return v
}

// Len returns the number of buffered samples.
func (q *Queue) Len() int {
	q.crit.Lock()
	defer q.crit.Unlock()
	return q.used
}

// Dropped returns the number of samples lost to a full queue.
func (q *Queue) Dropped() int {
	q.crit.Lock()
	defer q.crit.Unlock()
	return q.dropped
}
