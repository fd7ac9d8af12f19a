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

package supervisor

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/qdt/c2t/curated"
)

// List of placeholder names that may appear in a Run template.
const (
	PlaceholderSrc        = "src"
	PlaceholderIR         = "ir"
	PlaceholderBin        = "bin"
	PlaceholderPort       = "port"
	PlaceholderC2TDir     = "c2t_dir"
	PlaceholderTestDir    = "test_dir"
	PlaceholderC2TTestDir = "c2t_test_dir"
)

// Placeholders is the list of every valid placeholder name.
var Placeholders = []string{
	PlaceholderSrc,
	PlaceholderIR,
	PlaceholderBin,
	PlaceholderPort,
	PlaceholderC2TDir,
	PlaceholderTestDir,
	PlaceholderC2TTestDir,
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitutions maps placeholder names (without braces) to their values.
type Substitutions map[string]string

// Run is a command template: an executable and an argument string containing
// placeholders such as {src} and {port}.
type Run struct {
	Executable string
	Args       string
}

func (r Run) String() string {
	return strings.TrimSpace(r.Executable + " " + r.Args)
}

// Uses returns true if the named placeholder appears in the arguments.
func (r Run) Uses(name string) bool {
	return slices.Contains(r.placeholders(), name)
}

func (r Run) placeholders() []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(r.Executable+" "+r.Args, -1) {
		names = append(names, m[1])
	}
	return names
}

// Validate checks that the template has an executable, that quotes are
// balanced and that every placeholder is known.
func (r Run) Validate() error {
	if strings.TrimSpace(r.Executable) == "" {
		return curated.Errorf(TemplateError, "no executable")
	}
	if _, err := splitArgs(r.Args); err != nil {
		return curated.Errorf(TemplateError, fmt.Errorf("%s: %w", r, err))
	}
	for _, n := range r.placeholders() {
		if !slices.Contains(Placeholders, n) {
			return curated.Errorf(TemplateError, fmt.Sprintf("%s: unknown placeholder {%s}", r, n))
		}
	}
	return nil
}

// Expand the template into an argument vector. The arguments are split
// before substitution and so substituted paths may contain spaces.
func (r Run) Expand(subst Substitutions) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	args, _ := splitArgs(r.Args)
	argv := append([]string{r.Executable}, args...)

	for i := range argv {
		var missing string
		argv[i] = placeholder.ReplaceAllStringFunc(argv[i], func(s string) string {
			name := s[1 : len(s)-1]
			v, ok := subst[name]
			if !ok {
				missing = name
			}
			return v
		})
		if missing != "" {
			return nil, curated.Errorf(TemplateError, fmt.Sprintf("%s: no value for {%s}", r, missing))
		}
	}

	return argv, nil
}

// splitArgs splits an argument string on white space. Single and double
// quotes group words and a backslash escapes the next character outside of
// single quotes.
func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inArg := false
	var quote rune

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '\\':
			i++
			if i >= len(runes) {
				return nil, fmt.Errorf("trailing backslash")
			}
			cur.WriteRune(runes[i])
			inArg = true
		case quote == '"':
			if c == '"' {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inArg = true
		case c == ' ' || c == '\t' || c == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inArg {
		args = append(args, cur.String())
	}

	return args, nil
}
