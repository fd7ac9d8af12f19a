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

package session

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/qdt/c2t/architecture"
)

// Side identifies which toolchain a session is debugging.
type Side string

// List of valid Side values.
const (
	Target Side = "target"
	Oracle Side = "oracle"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Target {
		return Oracle
	}
	return Target
}

// Dump is the state of a debug session when it stopped on a directive line.
type Dump struct {
	Side     Side
	Artifact string
	Time     time.Time

	Addr uint64
	Line int

	// names of the directives that produced the dump
	Directives []string

	Registers *architecture.Snapshot

	// values named by ch and chc directives. nil if there were none
	Values map[string]uint64

	// the test has ended. either a bre directive or the program exited
	End bool

	// the stop that ended the program. only meaningful if End is true and
	// there was no bre directive
	Exit string
}

// Names returns the value names of the dump in sorted order.
func (d *Dump) Names() []string {
	return slices.Sorted(maps.Keys(d.Values))
}

// Lines returns the dump formatted for a text log. Source level details come
// first. The format is designed to be used with line based diff tools.
func (d *Dump) Lines() []string {
	var l []string
	if d.End {
		if d.Exit != "" {
			l = append(l, "end", "  "+d.Exit)
		} else {
			l = append(l, "end")
		}
	}
	l = append(l, "lineno", fmt.Sprintf("  %d", d.Line))
	if d.Values != nil {
		l = append(l, "vars:")
		for _, n := range d.Names() {
			v := d.Values[n]
			l = append(l, "  "+n, fmt.Sprintf("    %d (%#x)", v, v))
		}
	}
	l = append(l, "addr", fmt.Sprintf("  %#x", d.Addr))
	if d.Registers != nil {
		l = append(l, "regs")
		p := d.Registers.Profile()
		for _, n := range p.Names() {
			v, _ := d.Registers.Get(n)
			l = append(l, "  "+n, fmt.Sprintf("    %#x", v))
		}
	}
	return l
}

func (d *Dump) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: line %d at %#x", d.Side, d.Line, d.Addr)
	if len(d.Directives) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(d.Directives, " "))
	}
	for _, n := range d.Names() {
		fmt.Fprintf(&b, " %s=%#x", n, d.Values[n])
	}
	if d.End {
		b.WriteString(" end")
	}
	return b.String()
}
