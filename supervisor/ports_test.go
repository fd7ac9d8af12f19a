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

package supervisor

import (
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/test"
)

func TestPortPoolConcurrent(t *testing.T) {
	pp := NewPortPool(DefaultFirstPort)

	const workers = 8
	const each = 16

	var wg sync.WaitGroup
	results := make(chan int, workers*each)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				p, err := pp.Alloc()
				if err != nil {
					t.Error(err)
					return
				}
				results <- p
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for p := range results {
		test.ExpectFailure(t, seen[p], p)
		seen[p] = true
		test.ExpectSuccess(t, p >= MinPort && p <= MaxPort, p)
	}
	test.ExpectEquality(t, len(seen), workers*each)
	test.ExpectEquality(t, pp.Leased(), workers*each)

	for p := range seen {
		pp.Free(p)
	}
	test.ExpectEquality(t, pp.Leased(), 0)
}

func TestPortPoolSkipsBound(t *testing.T) {
	l, err := net.Listen("tcp", "localhost:0")
	test.DemandSuccess(t, err)
	defer l.Close()

	_, ps, _ := net.SplitHostPort(l.Addr().String())
	bound, _ := strconv.Atoi(ps)
	if bound < MinPort {
		t.Skip("ephemeral port below allocation range")
	}

	pp := NewPortPool(bound)
	p, err := pp.Alloc()
	test.DemandSuccess(t, err)
	test.ExpectInequality(t, p, bound)
}

func TestPortPoolWrap(t *testing.T) {
	pp := NewPortPool(MaxPort)
	pp.probe = func(port int) bool { return true }

	p, err := pp.Alloc()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, MaxPort)

	p, err = pp.Alloc()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, MinPort)

	// freeing does not rewind the scan
	pp.Free(MaxPort)
	p, err = pp.Alloc()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, MinPort+1)
}

func TestPortPoolExhausted(t *testing.T) {
	pp := NewPortPool(DefaultFirstPort)
	pp.probe = func(port int) bool { return false }
	_, err := pp.Alloc()
	test.ExpectSuccess(t, curated.Is(err, NoFreePort))
}
