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

import (
	"context"
	"errors"
	"slices"

	"github.com/qdt/c2t/compare"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/rsp"
	"github.com/qdt/c2t/session"
	"github.com/qdt/c2t/supervisor"
)

// Status of a TestCase.
type Status int

// List of valid Status values. A case starts as Pending and moves through
// Building, Launching and Running to one of the terminal statuses.
const (
	Pending Status = iota
	Building
	Launching
	Running
	Passed
	Failed
	BuildError
	LaunchError
	ProtocolError
	TimedOut

	// the run was interrupted before the case could finish
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Building:
		return "building"
	case Launching:
		return "launching"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case BuildError:
		return "build error"
	case LaunchError:
		return "launch error"
	case ProtocolError:
		return "protocol error"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	}
	return "unknown status"
}

// Terminal returns true if the status is final.
func (s Status) Terminal() bool {
	return s >= Passed
}

var transitions = map[Status][]Status{
	Pending:   {Building},
	Building:  {Launching, BuildError, Cancelled},
	Launching: {Running, LaunchError, ProtocolError, TimedOut, Cancelled},
	Running:   {Passed, Failed, ProtocolError, TimedOut, Cancelled},
}

// CanBecome returns true if a case with the status can move to the next
// status.
func (s Status) CanBecome(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Classify returns the terminal status for a case with the current status
// that has ended with err. A nil error is a pass.
func Classify(current Status, err error) Status {
	s := classify(err)
	if current.CanBecome(s) {
		return s
	}

	switch current {
	case Building:
		return BuildError
	case Launching:
		return LaunchError
	}
	return ProtocolError
}

func classify(err error) Status {
	switch {
	case err == nil:
		return Passed
	case curated.Has(err, Interrupted):
		return Cancelled
	case curated.Has(err, supervisor.BuildError):
		return BuildError
	case curated.Has(err, supervisor.LaunchTimeout),
		curated.Has(err, rsp.StepTimeout),
		curated.Has(err, TestTimeout),
		curated.Has(err, Stalled),
		errors.Is(err, context.DeadlineExceeded):
		return TimedOut
	case curated.Has(err, compare.DivergenceError),
		curated.Has(err, session.ProgramFault):
		return Failed
	case curated.Has(err, supervisor.PortInUse),
		curated.Has(err, supervisor.LaunchError),
		curated.Has(err, rsp.ConnectError):
		return LaunchError
	}
	return ProtocolError
}
