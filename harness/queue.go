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

package harness

import "sync"

// Queue is the list of test cases waiting to be run under a configuration.
// It is shared by every pipeline of the configuration and is safe for
// concurrent use.
type Queue struct {
	crit   sync.Mutex
	cases  []*TestCase
	closed bool
}

// Push adds cases to the end of the queue.
func (q *Queue) Push(cases ...*TestCase) {
	q.crit.Lock()
	defer q.crit.Unlock()
	q.cases = append(q.cases, cases...)
}

// Close the queue. Pop() will report the queue as finished once the
// remaining cases have been taken.
func (q *Queue) Close() {
	q.crit.Lock()
	defer q.crit.Unlock()
	q.closed = true
}

// Pop removes the case at the front of the queue. If the queue is empty the
// finished result is true if the queue has also been closed.
func (q *Queue) Pop() (tc *TestCase, finished bool) {
	q.crit.Lock()
	defer q.crit.Unlock()
	if len(q.cases) == 0 {
		return nil, q.closed
	}
	tc = q.cases[0]
	q.cases[0] = nil
	q.cases = q.cases[1:]
	return tc, false
}

// Len returns the number of cases in the queue.
func (q *Queue) Len() int {
	q.crit.Lock()
	defer q.crit.Unlock()
	return len(q.cases)
}
