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

// Sentinal patterns for errors returned by the harness package.
const (
	HarnessError      = "harness: %v"
	IllegalTransition = "harness: %s: illegal status change from %s to %s"
	SelectError       = "tests: %v"

	// the placeholder is the test timeout
	TestTimeout = "harness: test did not finish within %v"

	// the placeholder is the stall period
	Stalled = "harness: no progress for %v"

	// the placeholder is the number of errors
	TooManyErrors = "harness: stopped after %d errors"

	// the placeholder is the cause of the interruption
	Interrupted = "harness: interrupted: %v"
)
