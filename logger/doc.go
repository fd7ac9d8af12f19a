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

// Package logger is the central log of c2t. Entries are made of a tag (the
// component making the entry, for example "rsp" or "supervisor") and a detail
// string. Consecutive identical entries are folded into a single entry with a
// repeat count.
//
// Every call requires a Permission. Use logger.Allow when an entry should
// always be made.
//
//	logger.Logf(logger.Allow, "harness", "%s: %s", tc, tc.Status)
//
// The central log is bounded. Older entries are discarded as new entries are
// made.
package logger
