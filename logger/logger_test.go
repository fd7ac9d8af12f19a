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

package logger_test

import (
	"testing"

	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/test"
)

func TestLogger(t *testing.T) {
	tw := &test.CompareWriter{}
	l := logger.NewLogger(3)

	l.Write(tw)
	test.ExpectEquality(t, tw.String(), "")

	l.Log(logger.Allow, "rsp", "connected")
	l.Write(tw)
	test.ExpectEquality(t, tw.String(), "rsp: connected\n")

	// consecutive identical entries are folded
	tw.Clear()
	l.Log(logger.Allow, "rsp", "connected")
	l.Write(tw)
	test.ExpectEquality(t, tw.String(), "rsp: connected (repeat x2)\n")

	// permission denied
	tw.Clear()
	l.Log(logger.Verbosity(false), "session", "stop")
	l.Write(tw)
	test.ExpectEquality(t, tw.String(), "rsp: connected (repeat x2)\n")

	// the log is bounded
	tw.Clear()
	l.Logf(logger.Allow, "a", "%d", 1)
	l.Logf(logger.Allow, "b", "%d", 2)
	l.Logf(logger.Allow, "c", "%d", 3)
	l.Write(tw)
	test.ExpectEquality(t, tw.String(), "a: 1\nb: 2\nc: 3\n")

	tw.Clear()
	l.Tail(tw, 1)
	test.ExpectEquality(t, tw.String(), "c: 3\n")

	tw.Clear()
	l.Log(logger.Allow, "d", "multi\nline")
	l.WriteRecent(tw)
	test.ExpectEquality(t, tw.String(), "d: multi line\n")
}

func TestEcho(t *testing.T) {
	tw := &test.CompareWriter{}
	l := logger.NewLogger(10)
	l.Log(logger.Allow, "a", "before")
	l.SetEcho(tw, true)
	l.Log(logger.Allow, "b", "after")
	test.ExpectEquality(t, tw.String(), "a: before\nb: after\n")

	l.SetEcho(nil, false)
	l.Log(logger.Allow, "c", "silent")
	test.ExpectEquality(t, tw.String(), "a: before\nb: after\n")
}

func TestColorizer(t *testing.T) {
	tw := &test.CompareWriter{}
	c := logger.NewColorizer(tw)

	c.Write([]byte("passed: [m3] a.c (2 checks in 1s)\n"))
	test.ExpectEquality(t, tw.String(), "\033[32mpassed: [m3] a.c (2 checks in 1s)\033[0m\n")

	tw.Clear()
	c.Write([]byte("failed: [m3] b.c: divergence\nerror: binary instruction error\n"))
	test.ExpectEquality(t, tw.String(), "\033[31mfailed: [m3] b.c: divergence\033[0m\n\033[2;31merror: binary instruction error\033[0m\n")

	// progress lines have no newline and are not coloured
	tw.Clear()
	c.Write([]byte("running: 1/2"))
	test.ExpectEquality(t, tw.String(), "running: 1/2")

	tw.Clear()
	c.Write([]byte("built: [m3] a.c\n"))
	test.ExpectEquality(t, tw.String(), "built: [m3] a.c\n")
}
