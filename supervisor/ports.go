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
	"fmt"
	"net"
	"sync"

	"github.com/qdt/c2t/curated"
)

// Range of ports that PortPool will allocate from.
const (
	MinPort          = 1024
	MaxPort          = 65535
	DefaultFirstPort = 4321
)

// PortPool allocates TCP ports for debug servers. A port is free if it is not
// leased and can be bound on the loopback interface at the time of the scan.
// A leased port is never handed out again until it is returned with Free().
//
// The scan continues from the port after the previous allocation and so
// ports are not reused immediately after being freed.
type PortPool struct {
	crit   sync.Mutex
	next   int
	leased map[int]bool

	// probe returns true if the port can be bound. replaced in tests
	probe func(port int) bool
}

// NewPortPool is the preferred method of initialisation for the PortPool type.
func NewPortPool(first int) *PortPool {
	if first < MinPort || first > MaxPort {
		first = DefaultFirstPort
	}
	return &PortPool{
		next:   first,
		leased: make(map[int]bool),
		probe:  canBind,
	}
}

func canBind(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// Alloc returns a free port and marks it as leased.
func (pp *PortPool) Alloc() (int, error) {
	pp.crit.Lock()
	defer pp.crit.Unlock()

	for range MaxPort - MinPort + 1 {
		port := pp.next
		pp.next++
		if pp.next > MaxPort {
			pp.next = MinPort
		}

		if pp.leased[port] {
			continue
		}
		if !pp.probe(port) {
			continue
		}

		pp.leased[port] = true
		return port, nil
	}

	return 0, curated.Errorf(NoFreePort, MinPort, MaxPort)
}

// Free returns a port to the pool. Freeing a port that is not leased has no
// effect.
func (pp *PortPool) Free(port int) {
	pp.crit.Lock()
	defer pp.crit.Unlock()
	delete(pp.leased, port)
}

// Leased returns the number of ports currently leased.
func (pp *PortPool) Leased() int {
	pp.crit.Lock()
	defer pp.crit.Unlock()
	return len(pp.leased)
}
