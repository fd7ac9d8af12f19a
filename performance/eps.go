// This file is part of c2t.
//
// c2t is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// c2t is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with c2t.  If not, see <https://www.gnu.org/licenses/>.

package performance

import (
	"sync"
	"time"

	"github.com/qdt/c2t/curated"
)

// DefaultEvents is the size of the event window used by the harness.
const DefaultEvents = 20

// MinEvents is the smallest event window that can measure a rate.
const MinEvents = 2

// EPS measures the rate of events (events per second) over a window of the
// most recent events. It is safe for concurrent use.
type EPS struct {
	crit sync.Mutex

	// circular buffer of event timestamps. ptr is the index of the next
	// write and therefore, once the buffer is full, of the oldest event
	mem   []time.Time
	ptr   int
	count int
}

// NewEPS is the preferred method of initialisation for the EPS type. The
// events argument is the size of the window.
func NewEPS(events int) (*EPS, error) {
	if events < MinEvents {
		return nil, curated.Errorf("eps: window must hold at least %d events (%d)", MinEvents, events)
	}
	return &EPS{
		mem: make([]time.Time, events),
	}, nil
}

// Event records an event at the current time.
func (e *EPS) Event() {
	e.EventAt(time.Now())
}

// EventAt records an event at the specified time. Times should not go
// backwards.
func (e *EPS) EventAt(t time.Time) {
	e.crit.Lock()
	defer e.crit.Unlock()
	e.mem[e.ptr] = t
	e.ptr = (e.ptr + 1) % len(e.mem)
	e.count++
}

// Tick records an event and returns the updated rate.
func (e *EPS) Tick() float64 {
	e.Event()
	return e.Get()
}

// Get returns the rate of events over the window. The result is zero until
// at least two events have been recorded, or if all events in the window
// happened at the same instant.
func (e *EPS) Get() float64 {
	e.crit.Lock()
	defer e.crit.Unlock()

	n := min(e.count, len(e.mem))
	if n < MinEvents {
		return 0
	}

	oldest := e.mem[0]
	if e.count >= len(e.mem) {
		oldest = e.mem[e.ptr]
	}

	d := e.newest().Sub(oldest).Seconds()
	if d <= 0 {
		return 0
	}

	// n timestamps span n-1 intervals
	return float64(n-1) / d
}

// Idle returns how long it has been since the most recent event. The result
// is zero if there have been no events.
func (e *EPS) Idle(now time.Time) time.Duration {
	e.crit.Lock()
	defer e.crit.Unlock()
	if e.count == 0 {
		return 0
	}
	return now.Sub(e.newest())
}

// Count returns the total number of events recorded.
func (e *EPS) Count() int {
	e.crit.Lock()
	defer e.crit.Unlock()
	return e.count
}

func (e *EPS) newest() time.Time {
	return e.mem[(e.ptr+len(e.mem)-1)%len(e.mem)]
}
