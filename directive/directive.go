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

package directive

import (
	"fmt"
	"strings"
)

// DirectiveError is a problem with a directive. Directive errors are
// warnings: the directive is skipped and the test continues.
const DirectiveError = "directive: %s:%d: %v"

// List of directive names understood by the debug sessions.
const (
	// check once and remove the breakpoint
	Break = "br"

	// check every time the line is reached
	BreakCyclic = "brc"

	// end of test. remove every breakpoint and let the program finish
	BreakEnd = "bre"

	// check the named registers or variables once
	Check = "ch"

	// check the named registers or variables every time the line is reached
	CheckCyclic = "chc"
)

// Directive is a single command found in a source comment.
type Directive struct {
	Line int
	Name string
	Args []string
}

func (d Directive) String() string {
	if len(d.Args) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(d.Args, ", "))
}
