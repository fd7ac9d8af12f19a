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

// Package debuginfo is the narrow interface between c2t and the debugging
// information of a test program: which addresses belong to a source line,
// where a symbol is and what must be loaded into the target's memory.
//
// The ELF type implements the interface with the debug/elf and debug/dwarf
// packages of the Go standard library.
package debuginfo
