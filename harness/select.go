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

package harness

import (
	"os"
	"regexp"

	"github.com/qdt/c2t/curated"
)

// DefaultInclude selects every C source.
const DefaultInclude = `.*\.c`

// SelectTests returns the names of the test sources in dir. Names must match
// the include expression and must not match the exclude expression. Both
// expressions are anchored at the start of the name. An empty exclude
// expression excludes nothing.
func SelectTests(dir string, include string, exclude string) ([]string, error) {
	if include == "" {
		include = DefaultInclude
	}

	incl, err := regexp.Compile("^(?:" + include + ")")
	if err != nil {
		return nil, curated.Errorf(SelectError, err)
	}

	var excl *regexp.Regexp
	if exclude != "" {
		excl, err = regexp.Compile("^(?:" + exclude + ")")
		if err != nil {
			return nil, curated.Errorf(SelectError, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, curated.Errorf(SelectError, err)
	}

	var tests []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if !incl.MatchString(n) {
			continue
		}
		if excl != nil && excl.MatchString(n) {
			continue
		}
		tests = append(tests, n)
	}

	if len(tests) == 0 {
		if excl != nil {
			return nil, curated.Errorf(SelectError, "no matches in "+dir+" with inclusive "+include+" and exclusive "+exclude)
		}
		return nil, curated.Errorf(SelectError, "no matches in "+dir+" with inclusive "+include)
	}

	return tests, nil
}
