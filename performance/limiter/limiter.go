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

// Package limiter throttles periodic output, such as progress lines, to a
// fixed rate.
//
//	lim, _ := limiter.NewLimiter(2)
//	defer lim.Stop()
//	for {
//		doWork()
//		if lim.HasWaited() {
//			printProgress()
//		}
//	}
package limiter

import (
	"time"

	"github.com/qdt/c2t/curated"
)

// Limiter triggers a fixed number of times every second.
type Limiter struct {
	ticker *time.Ticker
}

// NewLimiter is the preferred method of initialisation for the Limiter type.
func NewLimiter(perSecond int) (*Limiter, error) {
	if perSecond <= 0 {
		return nil, curated.Errorf("limiter: rate must be positive (%d)", perSecond)
	}
	return &Limiter{
		ticker: time.NewTicker(time.Second / time.Duration(perSecond)),
	}, nil
}

// Wait blocks until the next trigger.
func (lim *Limiter) Wait() {
	<-lim.ticker.C
}

// HasWaited returns true if the trigger has happened since the last call to
// Wait() or HasWaited(). It never blocks.
func (lim *Limiter) HasWaited() bool {
	select {
	case <-lim.ticker.C:
		return true
	default:
		return false
	}
}

// Stop the limiter. HasWaited() will never return true after a call to Stop().
func (lim *Limiter) Stop() {
	lim.ticker.Stop()
}
