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

// Package performance measures the progress of a test run. The EPS type
// records the timestamps of the most recent events (completed test cases or
// debugger stops) and reports the rate at which they occur.
//
//	eps, _ := performance.NewEPS(performance.DefaultEvents)
//	for {
//		doWork()
//		rate := eps.Tick()
//	}
//
// The harness uses EPS to print progress and, with the Idle() function, to
// detect test runners that have stopped making progress.
package performance
