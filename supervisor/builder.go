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
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
)

// TestBuilder produces a test binary from a test source. Each Run is a stage
// of the build and they are performed in order. The first Run may produce an
// intermediate file {ir} that the next Run consumes.
type TestBuilder struct {
	Name string
	Runs []Run

	// the directory the build commands are run in
	Dir string
}

// Fresh returns true if bin exists and was modified after src.
func Fresh(src string, bin string) bool {
	s, err := os.Stat(src)
	if err != nil {
		return false
	}
	b, err := os.Stat(bin)
	if err != nil {
		return false
	}
	return b.ModTime().After(s.ModTime())
}

// Build performs each stage. The returned bool is false if the build was
// skipped because the binary is newer than the source.
//
// The {bin} and {ir} substitutions must be present. Their parent directories
// are created as required.
func (tb TestBuilder) Build(ctx context.Context, subst Substitutions, timeout time.Duration) (bool, error) {
	src := subst[PlaceholderSrc]
	bin := subst[PlaceholderBin]

	if src != "" && bin != "" && Fresh(src, bin) {
		logger.Logf(logger.Allow, "build", "%s: up to date", bin)
		return false, nil
	}

	for _, k := range []string{PlaceholderBin, PlaceholderIR} {
		if f, ok := subst[k]; ok && f != "" {
			if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
				return false, curated.Errorf(BuildError, err)
			}
		}
	}

	for _, r := range tb.Runs {
		argv, err := r.Expand(subst)
		if err != nil {
			return false, curated.Errorf(BuildError, err)
		}

		err = tb.stage(ctx, argv, timeout)
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

func (tb TestBuilder) stage(ctx context.Context, argv []string, timeout time.Duration) error {
	command := Run{Executable: argv[0]}.String()

	p, err := Start(tb.Name, argv, tb.Dir)
	if err != nil {
		return curated.Errorf(BuildError, &BuildFailure{Command: command, Err: err})
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err = p.Wait(ctx)
	if err != nil {
		return curated.Errorf(BuildError, &BuildFailure{
			Command: command,
			Stderr:  p.Stderr(),
			Err:     err,
		})
	}

	return nil
}
