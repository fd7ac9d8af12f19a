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

import "fmt"

// Sentinal patterns for errors returned by the supervisor package.
const (
	// a build stage failed. the error wraps a *BuildFailure
	BuildError = "build: %v"

	// a debug server could not be started or exited before accepting a
	// connection
	LaunchError = "launch: %v"

	// a debug server exited because its port was taken. launching again
	// with a different port may succeed
	PortInUse = "launch: port %d in use: %v"

	// a debug server did not accept a connection within the launch timeout
	LaunchTimeout = "launch: timeout: %v"

	// a command template is invalid
	TemplateError = "template: %v"

	// no free port could be found
	NoFreePort = "ports: no free port in range %d-%d"
)

// BuildFailure describes a failed build stage.
type BuildFailure struct {
	Command string
	Stderr  string
	Err     error
}

func (bf *BuildFailure) Error() string {
	return fmt.Sprintf("%s: %v", bf.Command, bf.Err)
}

func (bf *BuildFailure) Unwrap() error {
	return bf.Err
}
