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

package audio_test

import (
	"testing"

	"github.com/hathersage/gopher464/audio"
	"github.com/hathersage/gopher464/test"
)

func TestQueueOrder(t *testing.T) {
	q := audio.NewQueue(4)

	q.AddSample(0.1)
	q.AddSample(0.2)
	q.AddSample(0.3)
	test.Equate(t, q.Len(), 3)

	test.Equate(t, q.Pop() == 0.1, true)
	test.Equate(t, q.Pop() == 0.2, true)
	test.Equate(t, q.Pop() == 0.3, true)
	test.Equate(t, q.Len(), 0)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := audio.NewQueue(2)

	q.AddSample(0.1)
	q.AddSample(0.2)
	q.AddSample(0.3)

	test.Equate(t, q.Len(), 2)
	test.Equate(t, q.Dropped(), 1)
	test.Equate(t, q.Pop() == 0.1, true)
	test.Equate(t, q.Pop() == 0.2, true)
}

func TestQueueSilenceWhenEmpty(t *testing.T) {
	q := audio.NewQueue(2)

	test.Equate(t, q.Pop() == 0.0, true)

	// wrap around and drain again
	q.AddSample(0.5)
	test.Equate(t, q.Pop() == 0.5, true)
	test.Equate(t, q.Pop() == 0.0, true)
}
