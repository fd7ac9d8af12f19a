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

package logger

import (
	"io"
	"strings"
)

const (
	penNormal = "\033[0m"
	penDimRed = "\033[2;31m"
	penRed    = "\033[31m"
	penGreen  = "\033[32m"
)

// Colorizer applies basic coloring rules to logging output. The first line of
// every write is coloured according to its tag and any following lines (build
// output, divergence detail) are dimmed.
type Colorizer struct {
	out  io.Writer
	pens map[string]string
}

// NewColorizer is the preferred method if initialisation for the Colorizer
// type.
func NewColorizer(out io.Writer) Colorizer {
	return Colorizer{
		out: out,
		pens: map[string]string{
			"passed":         penGreen,
			"failed":         penRed,
			"divergence":     penRed,
			"error":          penRed,
			"timed out":      penRed,
			"build error":    penRed,
			"launch error":   penRed,
			"protocol error": penRed,
		},
	}
}

// Write implements the io.Writer interface.
func (c Colorizer) Write(p []byte) (n int, err error) {
	// partial lines are control sequences or progress meters
	if len(p) == 0 || p[len(p)-1] != '\n' {
		return c.out.Write(p)
	}

	l := strings.Split(strings.TrimRight(string(p), "\n"), "\n")

	first := l[0] + "\n"
	tag, _, _ := strings.Cut(l[0], ":")
	if pen, ok := c.pens[strings.TrimSpace(tag)]; ok {
		first = pen + l[0] + penNormal + "\n"
	}

	if _, err := io.WriteString(c.out, first); err != nil {
		return 0, err
	}

	if len(l) > 1 {
		s := penDimRed + strings.Join(l[1:], "\n") + penNormal + "\n"
		if _, err := io.WriteString(c.out, s); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}
