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
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/qdt/c2t/compare"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/results"
	"github.com/qdt/c2t/supervisor"
)

// clears the progress line
const clearLine = "\033[2K\r"

// Summary of a run.
type Summary struct {
	Start    time.Time
	Duration time.Duration

	// number of cases that reached each terminal status
	Counts map[Status]int

	// cases that were built but not run
	Built int

	// cases that were interrupted by the end of the run
	Cancelled int

	// keys of cases that did not pass
	Fails []string
}

// Failures returns the number of cases that did not pass.
func (s *Summary) Failures() int {
	n := 0
	for st, c := range s.Counts {
		if st != Passed {
			n += c
		}
	}
	return n
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "c2t: %d passed, %d failed", s.Counts[Passed], s.Counts[Failed])
	for _, st := range []Status{TimedOut, BuildError, LaunchError, ProtocolError} {
		if s.Counts[st] > 0 {
			fmt.Fprintf(&b, ", %d %s", s.Counts[st], st)
		}
	}
	if s.Built > 0 {
		fmt.Fprintf(&b, ", %d built", s.Built)
	}
	if s.Cancelled > 0 {
		fmt.Fprintf(&b, ", %d cancelled", s.Cancelled)
	}
	fmt.Fprintf(&b, " (%s)", s.Duration.Round(time.Millisecond))
	return b.String()
}

// Recorder collects the outcome of every test case. Outcomes are written to
// the output as they arrive and, optionally, to a results database. It is
// safe for concurrent use.
type Recorder struct {
	crit sync.Mutex

	out      io.Writer
	verbose  bool
	progress bool

	// the progress line is on screen
	dirty bool

	summary Summary

	// keys of every recorded case
	ran []string

	db *results.Session
}

// NewRecorder is the preferred method of initialisation for the Recorder
// type. If dbPath is not empty the outcome of every case is added to the
// results database at that path.
func NewRecorder(out io.Writer, verbose bool, progress bool, dbPath string) (*Recorder, error) {
	if out == nil {
		out = io.Discard
	}

	rec := &Recorder{
		out:      out,
		verbose:  verbose,
		progress: progress,
		summary: Summary{
			Start:  time.Now(),
			Counts: make(map[Status]int),
		},
	}

	if dbPath != "" {
		var err error
		rec.db, err = results.StartSession(dbPath, results.Init)
		if err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func (rec *Recorder) clear() {
	if rec.dirty {
		io.WriteString(rec.out, clearLine)
		rec.dirty = false
	}
}

// Progress shows the number of recorded cases out of the total and the rate
// at which they are being recorded. It does nothing unless the Recorder was
// created with progress enabled.
func (rec *Recorder) Progress(total int, rate float64) {
	rec.crit.Lock()
	defer rec.crit.Unlock()
	if !rec.progress {
		return
	}
	rec.clear()
	fmt.Fprintf(rec.out, "running: %d/%d (%d failures, %.2f tests/s)", len(rec.ran), total, len(rec.summary.Fails), rate)
	rec.dirty = true
}

// Record the outcome of a case. Returns the number of failures so far.
func (rec *Recorder) Record(tc *TestCase) int {
	rec.crit.Lock()
	defer rec.crit.Unlock()

	rec.clear()

	st := tc.Status()

	switch {
	case st == Cancelled:
		rec.summary.Cancelled++
		fmt.Fprintf(rec.out, "cancelled: %s\n", tc)
		return len(rec.summary.Fails)

	case st == Building && tc.Err == nil:
		rec.summary.Built++
		fmt.Fprintf(rec.out, "built: %s\n", tc)

	case st == Passed:
		rec.summary.Counts[st]++
		fmt.Fprintf(rec.out, "passed: %s (%d checks in %s)\n", tc, tc.Checks, tc.Duration.Round(time.Millisecond))

	default:
		rec.summary.Counts[st]++
		rec.summary.Fails = append(rec.summary.Fails, tc.Key())
		fmt.Fprintf(rec.out, "%s: %s: %v\n", st, tc, tc.Err)
		rec.detail(tc)
	}

	rec.ran = append(rec.ran, tc.Key())

	if rec.db != nil {
		_, err := rec.db.Add(&results.Result{
			Time:     tc.Start,
			Config:   tc.Config.Name,
			Test:     tc.Name,
			Status:   resultStatus(tc),
			Checks:   tc.Checks,
			Duration: tc.Duration,
			Reason:   reason(tc.Err),
		})
		if err != nil {
			logger.Log(logger.Allow, "recorder", err)
		}
	}

	return len(rec.summary.Fails)
}

func resultStatus(tc *TestCase) string {
	if tc.Status() == Building && tc.Err == nil {
		return "built"
	}
	return tc.Status().String()
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// detail writes the divergence report or the build output of a failed case
func (rec *Recorder) detail(tc *TestCase) {
	var div *compare.Divergence
	if errors.As(tc.Err, &div) {
		div.Report(rec.out)
		return
	}

	var bf *supervisor.BuildFailure
	if errors.As(tc.Err, &bf) && bf.Stderr != "" {
		fmt.Fprintf(rec.out, "%s\n", strings.TrimRight(bf.Stderr, "\n"))
		return
	}

	if rec.verbose {
		logger.Tail(rec.out, 10)
	}
}

// Finish the recording. The results database is written and, if failsPath is
// not empty, the fails list is updated: the keys of the cases that ran are
// removed and the keys of the cases that failed are added.
func (rec *Recorder) Finish(failsPath string) (*Summary, error) {
	rec.crit.Lock()
	defer rec.crit.Unlock()

	rec.clear()
	rec.summary.Duration = time.Since(rec.summary.Start)

	var errs []error

	if rec.db != nil {
		errs = append(errs, rec.db.EndSession(true))
	}

	if failsPath != "" {
		keys, err := results.LoadFails(failsPath)
		if err != nil {
			errs = append(errs, err)
		} else {
			keys = slices.DeleteFunc(keys, func(k string) bool {
				return slices.Contains(rec.ran, k)
			})
			keys = append(keys, rec.summary.Fails...)
			errs = append(errs, results.SaveFails(failsPath, keys))
		}
	}

	s := rec.summary
	s.Counts = maps.Clone(rec.summary.Counts)
	s.Fails = slices.Clone(rec.summary.Fails)

	return &s, errors.Join(errs...)
}
