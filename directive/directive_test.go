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

package directive_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/test"
)

// lineTable maps line numbers to addresses for any file.
type lineTable map[int][]uint64

func (lt lineTable) Addresses(_ string, line int) []uint64 {
	return lt[line]
}

const source = `int main(void) {
    int a = 1;
    a += 4; //$ ch.r12
    for (;;) { //$ brc; ch(r12, a)
        break;
    }
    unused(); //$ br
    x(); //$ 9bad; br
    //$
    return 0; //$ bre
}
`

func TestParse(t *testing.T) {
	ds, warnings, err := directive.Parse("t.c", strings.NewReader(source))
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(ds), 6)

	test.ExpectEquality(t, ds[0].Line, 3)
	test.ExpectEquality(t, ds[0].Name, directive.Check)
	test.ExpectEquality(t, ds[0].String(), "ch(r12)")

	test.ExpectEquality(t, ds[1].Line, 4)
	test.ExpectEquality(t, ds[1].Name, directive.BreakCyclic)
	test.ExpectEquality(t, ds[2].String(), "ch(r12, a)")

	test.ExpectEquality(t, ds[3].Line, 7)
	test.ExpectEquality(t, ds[4].Line, 8)
	test.ExpectEquality(t, ds[5].Name, directive.BreakEnd)

	// a malformed statement and an empty directive
	test.DemandEquality(t, len(warnings), 2)
	for _, w := range warnings {
		test.ExpectSuccess(t, curated.Is(w, directive.DirectiveError))
	}
	test.ExpectEquality(t, warnings[0].Error(), `directive: t.c:8: invalid directive name "9bad"`)
}

func TestMalformed(t *testing.T) {
	for _, s := range []string{"//$ ch(a", "//$ ch.a-b", "//$ (a)"} {
		ds, warnings, err := directive.Parse("t.c", strings.NewReader(s))
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, len(ds), 0, s)
		test.ExpectEquality(t, len(warnings), 1, s)
	}
}

func TestIndex(t *testing.T) {
	table := lineTable{
		3:  {0x4404},
		4:  {0x4408, 0x4420},
		10: {0x4430},
	}

	ix, err := directive.NewIndex("t.c", strings.NewReader(source), table)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, ix.File(), "t.c")

	lines := ix.Lines()
	test.DemandEquality(t, len(lines), 3)
	test.ExpectEquality(t, lines[0], 3)
	test.ExpectEquality(t, lines[2], 10)

	line, ds, ok := ix.Lookup(0x4420)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, line, 4)
	test.ExpectEquality(t, len(ds), 2)

	// lines 7 and 8 have directives but no code. the two parse warnings are
	// also retained
	test.ExpectEquality(t, len(ix.Warnings()), 4)

	test.ExpectEquality(t, len(ix.Addresses(4)), 2)
	test.ExpectEquality(t, len(ix.Directives(10)), 1)
}

func TestAbsentLookup(t *testing.T) {
	ix, err := directive.NewIndex("t.c", strings.NewReader(source), lineTable{3: {0x4404}})
	test.DemandSuccess(t, err)

	for range 3 {
		line, ds, ok := ix.Lookup(0x9999)
		test.ExpectFailure(t, ok)
		test.ExpectEquality(t, line, 0)
		test.ExpectEquality(t, len(ds), 0)
	}

	_, ok := ix.Line(0x4404)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, len(ix.Lines()), 1)
}

func TestDispatch(t *testing.T) {
	r := directive.NewRegistry("t.c", logger.Verbosity(false))

	var called []string
	r.Register(directive.Break, func(d directive.Directive) error {
		called = append(called, d.String())
		return nil
	})
	test.ExpectSuccess(t, r.Known(directive.Break))
	test.ExpectFailure(t, r.Known("unknown"))

	err := r.Dispatch([]directive.Directive{
		{Line: 1, Name: "unknown"},
		{Line: 1, Name: directive.Break},
	})
	test.ExpectSuccess(t, err)
	test.DemandEquality(t, len(called), 1)
	test.ExpectEquality(t, called[0], "br")

	stop := errors.New("stop")
	r.Register(directive.BreakEnd, func(d directive.Directive) error {
		return stop
	})
	err = r.Dispatch([]directive.Directive{
		{Line: 2, Name: directive.BreakEnd},
		{Line: 2, Name: directive.Break},
	})
	test.ExpectSuccess(t, errors.Is(err, stop))
	test.ExpectEquality(t, len(called), 1)
}
