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

package rsp

import (
	"fmt"
	"strconv"
)

// StopKind describes why the remote target stopped.
type StopKind int

// List of valid StopKind values.
const (
	// the target stopped on a signal. breakpoints and completed steps are
	// reported as SIGTRAP
	Stopped StopKind = iota

	// the program exited normally
	Exited

	// the program was terminated by a signal
	Terminated
)

func (k StopKind) String() string {
	switch k {
	case Stopped:
		return "stopped"
	case Exited:
		return "exited"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Signal numbers with a meaning to the client. SIGTRAP is reported for
// breakpoints and steps. SIGINT is reported after an interrupt.
const (
	SIGINT  = 2
	SIGTRAP = 5
)

// Stop is a parsed stop reply.
type Stop struct {
	Kind StopKind

	// signal number for Stopped and Terminated. exit status for Exited
	Value int
}

func (s Stop) String() string {
	switch s.Kind {
	case Exited:
		return fmt.Sprintf("exited with status %d", s.Value)
	default:
		return fmt.Sprintf("%s with signal %d", s.Kind, s.Value)
	}
}

// Running returns true if the program can be resumed.
func (s Stop) Running() bool {
	return s.Kind == Stopped
}

// Faulted returns true if the program stopped on a signal other than a trap
// or an interrupt. Resuming a faulted program usually repeats the fault.
func (s Stop) Faulted() bool {
	return s.Kind == Stopped && s.Value != 0 && s.Value != SIGTRAP && s.Value != SIGINT
}

// parseStop parses the S, T, W and X stop replies.
func parseStop(reply string) (Stop, error) {
	if len(reply) < 3 {
		return Stop{}, fmt.Errorf("malformed stop reply %q", reply)
	}

	v, err := strconv.ParseUint(reply[1:3], 16, 8)
	if err != nil {
		return Stop{}, fmt.Errorf("malformed stop reply %q", reply)
	}

	switch reply[0] {
	case 'S', 'T':
		return Stop{Kind: Stopped, Value: int(v)}, nil
	case 'W':
		return Stop{Kind: Exited, Value: int(v)}, nil
	case 'X':
		return Stop{Kind: Terminated, Value: int(v)}, nil
	}

	return Stop{}, fmt.Errorf("unexpected stop reply %q", reply)
}
