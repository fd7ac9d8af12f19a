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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/qdt/c2t/session"
)

type logEntry struct {
	time  time.Time
	lines []string
}

// TestLog is the record of every dump of a single test, kept per side. The
// logs of the two sides are written to separate files so that they can be
// compared with a diff tool.
type TestLog struct {
	crit  sync.Mutex
	start time.Time
	sides map[session.Side][]logEntry
}

// NewTestLog is the preferred method of initialisation for the TestLog type.
func NewTestLog() *TestLog {
	return &TestLog{
		start: time.Now(),
		sides: make(map[session.Side][]logEntry),
	}
}

// Log a dump.
func (tl *TestLog) Log(d *session.Dump) {
	tl.crit.Lock()
	defer tl.crit.Unlock()
	t := d.Time
	if t.IsZero() {
		t = time.Now()
	}
	tl.sides[d.Side] = append(tl.sides[d.Side], logEntry{time: t, lines: d.Lines()})
}

// Note adds free text to the log of a side.
func (tl *TestLog) Note(side session.Side, text string) {
	tl.crit.Lock()
	defer tl.crit.Unlock()
	tl.sides[side] = append(tl.sides[side], logEntry{
		time:  time.Now(),
		lines: strings.Split(strings.TrimRight(text, "\n"), "\n"),
	})
}

// Len returns the number of entries for the side.
func (tl *TestLog) Len(side session.Side) int {
	tl.crit.Lock()
	defer tl.crit.Unlock()
	return len(tl.sides[side])
}

// Lines returns the log of the side. If withTime is true each entry is
// preceded by its time relative to the creation of the log.
func (tl *TestLog) Lines(side session.Side, withTime bool) []string {
	tl.crit.Lock()
	defer tl.crit.Unlock()

	var l []string
	for _, e := range tl.sides[side] {
		if withTime {
			l = append(l, "time", "  "+timestamp(e.time.Sub(tl.start)))
		}
		l = append(l, e.lines...)
	}
	return l
}

func timestamp(d time.Duration) string {
	d = max(d, 0)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(int(d.Minutes())*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// Filename returns the name of the log file for a test and a side.
func Filename(dir string, test string, side session.Side) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.log", test, side))
}

// WriteFiles writes the log of each side to its own file in dir. The dir is
// created if necessary.
func (tl *TestLog) WriteFiles(dir string, test string, withTime bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, side := range []session.Side{session.Target, session.Oracle} {
		if tl.Len(side) == 0 {
			continue
		}
		text := strings.Join(tl.Lines(side, withTime), "\n") + "\n"
		if err := os.WriteFile(Filename(dir, test, side), []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}
