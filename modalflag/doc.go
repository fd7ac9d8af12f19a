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

// Package modalflag wraps the flag package of the Go standard library. It
// provides a way of handling program modes (and sub-modes) where each mode
// has its own set of flags.
//
// Arguments are given to NewArgs() and each layer of the command line is
// parsed with a call to Parse():
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "BUILD", "LIST", "CHECK")
//	p, err := md.Parse()
//
// The first sub-mode is the default, used when the first non-flag argument is
// not a listed sub-mode. After selecting a mode, NewMode() prepares the next
// layer. Flags for that layer are added with the Add functions:
//
//	md.NewMode()
//	jobs := md.AddInt("jobs", 1, "number of concurrent test runners")
//	p, err = md.Parse()
//
// Non-flag arguments are retrieved with RemainingArgs() or GetArg().
//
// Help is printed automatically when the -help flag is given, in which case
// Parse() returns ParseHelp.
package modalflag
