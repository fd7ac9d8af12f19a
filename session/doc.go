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

// Package session is the debugging of a single test program by a single
// debug server. Two sessions, one for the target toolchain and one for the
// oracle toolchain, run the same test in lockstep.
//
// The test source contains directives in comments. A breakpoint is set on
// every line with directives and when the program stops on such a line the
// directives decide what is recorded in the resulting Dump:
//
//	br    check the line, once
//	brc   check the line, every time
//	bre   end of test
//	ch    check the line and the named registers or variables, once
//	chc   check the line and the named registers or variables, every time
//
// A line's breakpoints are removed when none of its directives can fire
// again. Directives with unknown names are reported once and otherwise
// ignored.
package session
