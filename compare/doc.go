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

// Package compare runs a target and an oracle debug session in lockstep and
// compares their dumps. A disagreement is described by a Divergence, which can
// be written as a report for the user.
//
// Every dump is also kept in a TestLog. The log of each side can be written to
// a file and the two files compared with a diff tool when investigating a
// failure. StopTraceDOT renders the order of the stops of both sides as a
// graph.
package compare
