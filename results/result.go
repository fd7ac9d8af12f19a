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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResultID is the entry ID of Result entries.
const ResultID = "result"

const (
	resultFieldTime int = iota
	resultFieldConfig
	resultFieldTest
	resultFieldStatus
	resultFieldChecks
	resultFieldDuration
	resultFieldReason
	numResultFields
)

// Result is the outcome of a single test under a single configuration.
type Result struct {
	Time     time.Time
	Config   string
	Test     string
	Status   string
	Checks   int
	Duration time.Duration

	// short description of a failure. empty if the test passed
	Reason string
}

// ID implements the Entry interface.
func (r *Result) ID() string {
	return ResultID
}

func (r *Result) String() string {
	s := fmt.Sprintf("[%s] %s: %s (%d checks in %s)", r.Config, r.Test, r.Status, r.Checks, r.Duration.Round(time.Millisecond))
	if r.Reason != "" {
		s = fmt.Sprintf("%s: %s", s, r.Reason)
	}
	return s
}

// Key returns a string that identifies the test and configuration of the
// result. Used by the fails list.
func (r *Result) Key() string {
	return fmt.Sprintf("%s:%s", r.Config, r.Test)
}

// Serialise implements the Entry interface.
func (r *Result) Serialise() ([]string, error) {
	return []string{
		r.Time.UTC().Format(time.RFC3339),
		r.Config,
		r.Test,
		r.Status,
		strconv.Itoa(r.Checks),
		strconv.FormatInt(int64(r.Duration), 10),
		flatten(r.Reason),
	}, nil
}

// the reason is the last field and may contain the field separator. the
// entry separator is replaced
func flatten(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return s
}

// DeserialiseResult is the Deserialiser for Result entries.
func DeserialiseResult(fields []string) (Entry, error) {
	if len(fields) < numResultFields {
		return nil, fmt.Errorf("result entry has %d fields, expected %d", len(fields), numResultFields)
	}

	r := &Result{
		Config: fields[resultFieldConfig],
		Test:   fields[resultFieldTest],
		Status: fields[resultFieldStatus],
		Reason: strings.Join(fields[resultFieldReason:], fieldSep),
	}

	var err error

	r.Time, err = time.Parse(time.RFC3339, fields[resultFieldTime])
	if err != nil {
		return nil, fmt.Errorf("invalid time: %w", err)
	}

	r.Checks, err = strconv.Atoi(fields[resultFieldChecks])
	if err != nil {
		return nil, fmt.Errorf("invalid checks: %w", err)
	}

	d, err := strconv.ParseInt(fields[resultFieldDuration], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid duration: %w", err)
	}
	r.Duration = time.Duration(d)

	return r, nil
}

// Init registers the entry types of the results database. Suitable for use
// as the init argument of StartSession().
func Init(db *Session) error {
	return db.RegisterEntryType(ResultID, DeserialiseResult)
}
