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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/qdt/c2t/curated"
)

// directives follow the //$ marker and run to the end of the line
var marker = regexp.MustCompile(`//\$(.*)$`)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse scans the source for directives. The source file name is only used
// for warnings. Malformed statements are reported as warnings and skipped.
func Parse(file string, src io.Reader) ([]Directive, []error, error) {
	var directives []Directive
	var warnings []error

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	line := 0
	for scanner.Scan() {
		line++

		m := marker.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		if strings.TrimSpace(m[1]) == "" {
			warnings = append(warnings, curated.Errorf(DirectiveError, file, line, "empty directive"))
			continue
		}

		for _, stmt := range strings.Split(m[1], ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			d, err := parseStatement(stmt)
			if err != nil {
				warnings = append(warnings, curated.Errorf(DirectiveError, file, line, err))
				continue
			}
			d.Line = line
			directives = append(directives, d)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return directives, warnings, nil
}

// parseStatement accepts the forms:
//
//	name
//	name.arg.arg
//	name(arg, arg)
func parseStatement(stmt string) (Directive, error) {
	var d Directive

	if open := strings.IndexRune(stmt, '('); open >= 0 {
		if !strings.HasSuffix(stmt, ")") {
			return d, fmt.Errorf("missing closing bracket in %q", stmt)
		}
		d.Name = strings.TrimSpace(stmt[:open])
		inner := strings.TrimSpace(stmt[open+1 : len(stmt)-1])
		if inner != "" {
			for _, a := range strings.Split(inner, ",") {
				d.Args = append(d.Args, strings.TrimSpace(a))
			}
		}
	} else {
		parts := strings.Split(stmt, ".")
		d.Name = strings.TrimSpace(parts[0])
		for _, a := range parts[1:] {
			d.Args = append(d.Args, strings.TrimSpace(a))
		}
	}

	if !identifier.MatchString(d.Name) {
		return d, fmt.Errorf("invalid directive name %q", d.Name)
	}
	for _, a := range d.Args {
		if !identifier.MatchString(a) {
			return d, fmt.Errorf("invalid argument %q to %s", a, d.Name)
		}
	}

	return d, nil
}
