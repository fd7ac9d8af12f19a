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

package debuginfo

// LineTable maps source lines to the code addresses generated for them.
type LineTable interface {
	// Addresses returns the statement addresses for the line of the source
	// file, in ascending order. The result is empty if no code was
	// generated for the line.
	Addresses(file string, line int) []uint64
}

// Symbols resolves names in the symbol table of a program.
type Symbols interface {
	// Symbol returns the address and size of the named symbol.
	Symbol(name string) (addr uint64, size uint64, ok bool)
}

// Segment is a block of the program image that is loaded into the memory of
// the target before execution.
type Segment struct {
	Addr uint64
	Data []byte
}

// Program is everything the debug sessions need to know about a built test
// program.
type Program interface {
	LineTable
	Symbols

	// Segments returns the loadable segments of the program image.
	Segments() ([]Segment, error)
}
