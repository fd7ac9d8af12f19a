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

package compare

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/qdt/c2t/session"
)

// DivergenceError is the pattern of the error returned when the target and
// the oracle disagree. The error wraps a *Divergence.
const DivergenceError = "divergence: %v"

// List of reasons for a divergence.
const (
	// the sessions stopped on different lines
	ReasonBranch = "branch instruction error"

	// the sessions stopped on the same line with different values
	ReasonBinary = "binary instruction error"

	// one session ended before the other. the placeholder is the side that
	// ended
	ReasonEnded = "%s ended earlier"
)

// Pair is a value observed by both sessions. A value that a session could not
// observe is marked as missing.
type Pair struct {
	Target        uint64
	Oracle        uint64
	TargetMissing bool
	OracleMissing bool
}

func (p Pair) String() string {
	f := func(v uint64, missing bool) string {
		if missing {
			return "missing"
		}
		return fmt.Sprintf("%d (%#x)", v, v)
	}
	return fmt.Sprintf("target %s, oracle %s", f(p.Target, p.TargetMissing), f(p.Oracle, p.OracleMissing))
}

// Divergence describes a disagreement between the target and the oracle.
type Divergence struct {
	Reason string
	Target *session.Dump
	Oracle *session.Dump

	// the values that differ. empty unless Reason is ReasonBinary
	Values map[string]Pair

	// disassembly of the instruction at each dump's address. may be empty
	TargetInstruction string
	OracleInstruction string
}

func (d *Divergence) Error() string {
	return d.Reason
}

// Compare two dumps. Returns nil if they agree.
//
// Two end dumps always agree. Otherwise the lines must be the same and, if
// both dumps have values, the values must be the same.
func Compare(target *session.Dump, oracle *session.Dump) *Divergence {
	div := &Divergence{
		Target: target,
		Oracle: oracle,
	}

	switch {
	case target.End && oracle.End:
		return nil
	case target.End:
		div.Reason = fmt.Sprintf(ReasonEnded, session.Target)
		return div
	case oracle.End:
		div.Reason = fmt.Sprintf(ReasonEnded, session.Oracle)
		return div
	case target.Line != oracle.Line:
		div.Reason = ReasonBranch
		return div
	}

	if target.Values == nil || oracle.Values == nil {
		return nil
	}

	names := slices.Sorted(maps.Keys(target.Values))
	for n := range oracle.Values {
		if _, ok := target.Values[n]; !ok {
			names = append(names, n)
		}
	}

	for _, n := range names {
		t, tok := target.Values[n]
		o, ook := oracle.Values[n]
		if tok && ook && t == o {
			continue
		}
		if div.Values == nil {
			div.Values = make(map[string]Pair)
		}
		div.Values[n] = Pair{
			Target:        t,
			Oracle:        o,
			TargetMissing: !tok,
			OracleMissing: !ook,
		}
	}

	if div.Values == nil {
		return nil
	}
	div.Reason = ReasonBinary
	return div
}

// Report writes a human readable description of the divergence. The oracle
// dump is written before the target dump.
func (d *Divergence) Report(w io.Writer) {
	fmt.Fprintf(w, "error: %s\n", d.Reason)

	for _, n := range slices.Sorted(maps.Keys(d.Values)) {
		fmt.Fprintf(w, "    %s: %s\n", n, d.Values[n])
	}

	d.dump(w, d.Oracle, d.OracleInstruction)
	d.dump(w, d.Target, d.TargetInstruction)
}

func (d *Divergence) dump(w io.Writer, dmp *session.Dump, inst string) {
	if dmp == nil {
		return
	}

	fmt.Fprintf(w, "\n%s dump (%s):\n", strings.ToUpper(string(dmp.Side)), dmp.Artifact)
	if dmp.End {
		fmt.Fprintf(w, "    Test ended %s\n", dmp.Exit)
	}
	fmt.Fprintf(w, "    Source code line number: %d\n", dmp.Line)
	fmt.Fprintf(w, "    Instruction address: %#x", dmp.Addr)
	if inst != "" {
		fmt.Fprintf(w, " (%s)", inst)
	}
	fmt.Fprintln(w)

	if dmp.Values != nil {
		var v []string
		for _, n := range dmp.Names() {
			v = append(v, fmt.Sprintf("%s = %d (%#x)", n, dmp.Values[n], dmp.Values[n]))
		}
		fmt.Fprintf(w, "    Variables: %s\n", rows(v, 2))
	}

	if dmp.Registers != nil {
		var v []string
		for _, n := range dmp.Registers.Profile().Names() {
			r, _ := dmp.Registers.Get(n)
			v = append(v, fmt.Sprintf("%s = %#x", n, r))
		}
		fmt.Fprintf(w, "    Registers: %s\n", rows(v, 3))
	}
}

// rows joins the strings with the specified number of columns per row
func rows(s []string, columns int) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			if i%columns == 0 {
				b.WriteString("\n               ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(r)
	}
	return b.String()
}
