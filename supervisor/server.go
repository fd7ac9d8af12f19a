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
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
)

// DebugServer describes how to start a GDB RSP server: an emulator or a
// gdbserver wrapping the test binary. The Run template will normally include
// the {port} placeholder.
type DebugServer struct {
	Name string
	Run  Run
	Dir  string
}

// Launch starts the server. The returned process has not necessarily begun
// accepting connections. Use Await() to wait for that.
func (ds DebugServer) Launch(subst Substitutions) (*Process, error) {
	argv, err := ds.Run.Expand(subst)
	if err != nil {
		return nil, curated.Errorf(LaunchError, err)
	}
	return Start(ds.Name, argv, ds.Dir)
}

// the interval between connection attempts
const awaitInterval = 20 * time.Millisecond

var inUse = regexp.MustCompile(`(?i)(address already in use|could not bind|bind: |failed to bind)`)

// Attempt is called repeatedly by Await(). If err is nil the server is ready.
// A non-nil error with retry set to false ends the wait immediately.
type Attempt func(ctx context.Context) (retry bool, err error)

// Await calls attempt until it succeeds, until the process exits or until the
// timeout elapses. The context passed to attempt expires with the timeout.
//
// If the process exits first the error is LaunchError, or PortInUse if the
// process output suggests the port was taken. If the timeout elapses first the
// error is LaunchTimeout.
func (p *Process) Await(ctx context.Context, timeout time.Duration, port int, attempt Attempt) error {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last error
	for {
		retry, err := attempt(actx)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		last = err

		select {
		case <-p.Done():
			out := p.Output()
			if inUse.MatchString(out) {
				return curated.Errorf(PortInUse, port, p.exitError())
			}
			return curated.Errorf(LaunchError, p.exitError())
		case <-actx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Logf(logger.Allow, "supervisor", "%s: not ready after %v", p.Name, timeout)
			return curated.Errorf(LaunchTimeout, last)
		case <-time.After(awaitInterval):
		}
	}
}

// PortString is a convenience function for building a Substitutions entry.
func PortString(port int) string {
	return strconv.Itoa(port)
}
