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

package performance_test

import (
	"sync"
	"testing"
	"time"

	"github.com/qdt/c2t/performance"
	"github.com/qdt/c2t/test"
)

func TestWindowSize(t *testing.T) {
	_, err := performance.NewEPS(1)
	test.ExpectFailure(t, err)
	_, err = performance.NewEPS(performance.MinEvents)
	test.ExpectSuccess(t, err)
}

func TestNotEnoughEvents(t *testing.T) {
	eps, err := performance.NewEPS(performance.DefaultEvents)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, eps.Get(), 0.0)
	eps.EventAt(time.Now())
	test.ExpectEquality(t, eps.Get(), 0.0)
}

func TestConvergence(t *testing.T) {
	eps, err := performance.NewEPS(10)
	test.DemandSuccess(t, err)

	const rate = 50.0
	interval := time.Second / rate

	start := time.Now()
	for i := range 35 {
		eps.EventAt(start.Add(time.Duration(i) * interval))
		if i >= 1 {
			test.ExpectApproximate(t, eps.Get(), rate, 0.0001, i)
		}
	}

	// rate changes are reflected once the window has been refilled
	start = start.Add(35 * interval)
	for i := range 10 {
		eps.EventAt(start.Add(time.Duration(i) * interval * 2))
	}
	test.ExpectApproximate(t, eps.Get(), rate/2, 0.0001)
}

func TestSameInstant(t *testing.T) {
	eps, err := performance.NewEPS(4)
	test.DemandSuccess(t, err)
	now := time.Now()
	eps.EventAt(now)
	eps.EventAt(now)
	test.ExpectEquality(t, eps.Get(), 0.0)
}

func TestIdle(t *testing.T) {
	eps, err := performance.NewEPS(4)
	test.DemandSuccess(t, err)
	now := time.Now()
	test.ExpectEquality(t, eps.Idle(now), time.Duration(0))
	eps.EventAt(now)
	test.ExpectEquality(t, eps.Idle(now.Add(time.Second)), time.Second)
}

func TestConcurrentEvents(t *testing.T) {
	eps, err := performance.NewEPS(performance.DefaultEvents)
	test.DemandSuccess(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				eps.Event()
				_ = eps.Get()
			}
		}()
	}
	wg.Wait()
	test.ExpectEquality(t, eps.Count(), 800)
}
