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

package supervisor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/supervisor"
	"github.com/qdt/c2t/test"
)

func shell(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

func TestProcessOutput(t *testing.T) {
	p, err := supervisor.Start("echo", shell("echo hello; echo world >&2"), "")
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, p.Wait(context.Background()))
	test.ExpectSuccess(t, strings.Contains(p.Output(), "hello"))
	test.ExpectSuccess(t, strings.Contains(p.Output(), "world"))
	test.ExpectFailure(t, strings.Contains(p.Stderr(), "hello"))
	test.ExpectSuccess(t, strings.Contains(p.Stderr(), "world"))
	test.ExpectSuccess(t, p.Exited())
}

func TestProcessGroupStop(t *testing.T) {
	// the shell forks a child that would otherwise keep running
	p, err := supervisor.Start("sleeper", shell("sleep 30 & sleep 30; wait"), "")
	test.DemandSuccess(t, err)

	start := time.Now()
	p.Stop()
	test.ExpectSuccess(t, p.Exited())
	test.ExpectSuccess(t, time.Since(start) < 10*time.Second)

	// safe to call again
	p.Stop()
}

func TestProcessWaitCancel(t *testing.T) {
	p, err := supervisor.Start("sleeper", shell("sleep 30"), "")
	test.DemandSuccess(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = p.Wait(ctx)
	test.ExpectSuccess(t, errors.Is(err, context.DeadlineExceeded))
	test.ExpectSuccess(t, p.Exited())
}

func TestStartMissing(t *testing.T) {
	_, err := supervisor.Start("missing", []string{"/nonexistent/c2t-server"}, "")
	test.ExpectSuccess(t, curated.Is(err, supervisor.LaunchError))
}

func TestAwait(t *testing.T) {
	p, err := supervisor.Start("server", shell("sleep 30"), "")
	test.DemandSuccess(t, err)
	defer p.Stop()

	n := 0
	err = p.Await(context.Background(), time.Second, 1234, func(ctx context.Context) (bool, error) {
		n++
		if n < 3 {
			return true, errors.New("not yet")
		}
		return false, nil
	})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, n, 3)
}

func TestAwaitTimeout(t *testing.T) {
	p, err := supervisor.Start("server", shell("sleep 30"), "")
	test.DemandSuccess(t, err)
	defer p.Stop()

	err = p.Await(context.Background(), 100*time.Millisecond, 1234, func(ctx context.Context) (bool, error) {
		return true, errors.New("connection refused")
	})
	test.ExpectSuccess(t, curated.Is(err, supervisor.LaunchTimeout))
	test.ExpectSuccess(t, curated.Has(err, supervisor.LaunchTimeout))
	test.ExpectFailure(t, p.Exited())
}

func TestAwaitExit(t *testing.T) {
	p, err := supervisor.Start("server", shell("echo bad option >&2; exit 1"), "")
	test.DemandSuccess(t, err)
	defer p.Stop()

	err = p.Await(context.Background(), 5*time.Second, 1234, func(ctx context.Context) (bool, error) {
		return true, errors.New("connection refused")
	})
	test.ExpectSuccess(t, curated.Is(err, supervisor.LaunchError))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "bad option"))
}

func TestAwaitPortInUse(t *testing.T) {
	p, err := supervisor.Start("server", shell("echo 'bind: Address already in use' >&2; exit 1"), "")
	test.DemandSuccess(t, err)
	defer p.Stop()

	err = p.Await(context.Background(), 5*time.Second, 1234, func(ctx context.Context) (bool, error) {
		return true, errors.New("connection refused")
	})
	test.ExpectSuccess(t, curated.Is(err, supervisor.PortInUse))
}

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "t.c")
	test.DemandSuccess(t, os.WriteFile(src, []byte("int main(void) { return 0; }\n"), 0o644))
	past := time.Now().Add(-time.Hour)
	test.DemandSuccess(t, os.Chtimes(src, past, past))

	subst := supervisor.Substitutions{
		supervisor.PlaceholderSrc: src,
		supervisor.PlaceholderIR:  filepath.Join(dir, "build", "t.ir"),
		supervisor.PlaceholderBin: filepath.Join(dir, "build", "t.elf"),
	}

	tb := supervisor.TestBuilder{
		Name: "cc",
		Runs: []supervisor.Run{
			{Executable: "/bin/cp", Args: "{src} {ir}"},
			{Executable: "/bin/cp", Args: "{ir} {bin}"},
		},
	}

	built, err := tb.Build(context.Background(), subst, 5*time.Second)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, built)
	test.ExpectSuccess(t, supervisor.Fresh(src, subst[supervisor.PlaceholderBin]))

	// binary is newer than the source so nothing is done
	built, err = tb.Build(context.Background(), subst, 5*time.Second)
	test.ExpectSuccess(t, err)
	test.ExpectFailure(t, built)

	// source is touched so the binary is rebuilt
	future := time.Now().Add(time.Hour)
	test.DemandSuccess(t, os.Chtimes(src, future, future))
	built, err = tb.Build(context.Background(), subst, 5*time.Second)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, built)
}

func TestBuilderFailure(t *testing.T) {
	dir := t.TempDir()
	subst := supervisor.Substitutions{
		supervisor.PlaceholderSrc: filepath.Join(dir, "missing.c"),
		supervisor.PlaceholderBin: filepath.Join(dir, "t.elf"),
	}

	tb := supervisor.TestBuilder{
		Name: "cc",
		Runs: []supervisor.Run{
			{Executable: "/bin/sh", Args: `-c "echo 'compiling missing.c'; echo 'error: no such file' >&2; exit 1"`},
		},
	}

	_, err := tb.Build(context.Background(), subst, 5*time.Second)
	test.DemandFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, supervisor.BuildError))

	var bf *supervisor.BuildFailure
	test.DemandSuccess(t, errors.As(err, &bf))
	test.ExpectSuccess(t, strings.Contains(bf.Stderr, "no such file"))

	// standard output of the compiler is not part of the failure
	test.ExpectFailure(t, strings.Contains(bf.Stderr, "compiling"))
}
