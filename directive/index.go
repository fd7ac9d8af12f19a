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
	"io"
	"slices"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/debuginfo"
)

// Index maps code addresses to the directives of the source line they were
// generated for. An Index is immutable once built and is safe to share.
type Index struct {
	file string

	lines  map[int][]Directive
	addrs  map[int][]uint64
	byAddr map[uint64]int

	warnings []error
}

// NewIndex parses the source for directives and resolves each directive's
// line to code addresses with the line table. Lines with directives but no
// code are skipped with a warning.
func NewIndex(file string, src io.Reader, table debuginfo.LineTable) (*Index, error) {
	directives, warnings, err := Parse(file, src)
	if err != nil {
		return nil, curated.Errorf(DirectiveError, file, 0, err)
	}

	ix := &Index{
		file:     file,
		lines:    make(map[int][]Directive),
		addrs:    make(map[int][]uint64),
		byAddr:   make(map[uint64]int),
		warnings: warnings,
	}

	for _, d := range directives {
		if _, ok := ix.addrs[d.Line]; !ok {
			addrs := table.Addresses(file, d.Line)
			if len(addrs) == 0 {
				if _, warned := ix.lines[d.Line]; !warned {
					ix.warnings = append(ix.warnings, curated.Errorf(DirectiveError, file, d.Line, "no code generated for line"))
					ix.lines[d.Line] = nil
				}
				continue
			}
			ix.addrs[d.Line] = addrs
			for _, a := range addrs {
				ix.byAddr[a] = d.Line
			}
		}
		ix.lines[d.Line] = append(ix.lines[d.Line], d)
	}

	// lines without code were marked with a nil entry to avoid repeated
	// warnings. they are not part of the index
	for l, ds := range ix.lines {
		if ds == nil {
			delete(ix.lines, l)
		}
	}

	return ix, nil
}

// File returns the name of the source file the index was built from.
func (ix *Index) File() string {
	return ix.file
}

// Lookup returns the line and directives for a code address. The ok result
// is false if there is no directive for the address.
func (ix *Index) Lookup(addr uint64) (int, []Directive, bool) {
	line, ok := ix.byAddr[addr]
	if !ok {
		return 0, nil, false
	}
	return line, ix.lines[line], true
}

// Line returns the line number for a code address. The ok result is false
// if the address is not part of a line with directives.
func (ix *Index) Line(addr uint64) (int, bool) {
	line, ok := ix.byAddr[addr]
	return line, ok
}

// Lines returns the line numbers with directives in ascending order.
func (ix *Index) Lines() []int {
	l := make([]int, 0, len(ix.lines))
	for k := range ix.lines {
		l = append(l, k)
	}
	slices.Sort(l)
	return l
}

// Directives returns the directives of a line in source order.
func (ix *Index) Directives(line int) []Directive {
	return ix.lines[line]
}

// Addresses returns the code addresses of a line.
func (ix *Index) Addresses(line int) []uint64 {
	return ix.addrs[line]
}

// Warnings returns the problems found while building the index.
func (ix *Index) Warnings() []error {
	return ix.warnings
}
