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

package results

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

// SaveFails writes the list of failed keys to the file. Duplicate keys are
// removed. An empty list removes the file.
func SaveFails(path string, keys []string) error {
	sort.Strings(keys)
	keys = slices.Compact(keys)

	if len(keys) == 0 {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("save fails: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save fails: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	for _, v := range keys {
		if _, err := fmt.Fprintf(f, "%s\n", v); err != nil {
			return fmt.Errorf("save fails: %w", err)
		}
	}

	return nil
}

// LoadFails reads the list of failed keys. A file that does not exist is an
// empty list.
func LoadFails(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return []string{}, fmt.Errorf("load fails: %w", err)
	}

	keys := strings.Split(string(b), "\n")

	sort.Strings(keys)
	keys = slices.Compact(keys)

	keys = slices.DeleteFunc(keys, func(s string) bool {
		s = strings.TrimSpace(s)
		return len(s) == 0
	})

	return keys, nil
}

// ErrNoPreviousFails is returned by PreviousFails() if there is nothing to
// rerun.
var ErrNoPreviousFails = errors.New("no previous fails")

// PreviousFails returns the tests that failed for the configuration in the
// previous run.
func PreviousFails(path string, config string) ([]string, error) {
	keys, err := LoadFails(path)
	if err != nil {
		return nil, err
	}

	var tests []string
	for _, k := range keys {
		c, t, ok := strings.Cut(k, ":")
		if ok && c == config {
			tests = append(tests, t)
		}
	}

	if len(tests) == 0 {
		return nil, ErrNoPreviousFails
	}

	return tests, nil
}
