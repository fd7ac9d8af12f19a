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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/qdt/c2t/compare"
	"github.com/qdt/c2t/config"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/debuginfo"
	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/session"
	"github.com/qdt/c2t/supervisor"
)

// Artifact is the build of a test case by one of the compilers.
type Artifact struct {
	Side session.Side

	// paths of the binary and of the intermediate file
	Bin string
	IR  string

	// debugging information of the binary and the directives of the source
	// resolved against it. nil until the binary has been built
	Program debuginfo.Program
	Index   *directive.Index
}

// TestCase is a single test source under a single configuration.
type TestCase struct {
	Config *config.Config

	// name of the test relative to the tests directory and the full path of
	// the source
	Name   string
	Source string

	Target Artifact
	Oracle Artifact

	status Status

	// the reason for a terminal status other than Passed
	Err error

	// number of dump pairs compared
	Checks int

	Start    time.Time
	Duration time.Duration

	// dumps of both sessions
	Log *compare.TestLog

	// stop traces of the sessions
	TargetTrace []int
	OracleTrace []int

	live *live
}

// processes and sessions of a case while it is launching or running
type live struct {
	procs  []*supervisor.Process
	target *session.Session
	oracle *session.Session
}

// NewTestCase is the preferred method of initialisation for the TestCase
// type. Binaries are placed in the work directory:
//
//	<work>/<config>/bin/<test>
//	<work>/<config>/oracle/bin/<test>
//
// Intermediate files are placed in the ir directory next to bin.
func NewTestCase(cfg *config.Config, testsDir string, workDir string, name string) *TestCase {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	target := filepath.Join(workDir, cfg.Name)
	oracle := filepath.Join(target, string(session.Oracle))

	return &TestCase{
		Config: cfg,
		Name:   name,
		Source: filepath.Join(testsDir, name),
		Target: Artifact{
			Side: session.Target,
			Bin:  filepath.Join(target, "bin", stem),
			IR:   filepath.Join(target, "ir", stem),
		},
		Oracle: Artifact{
			Side: session.Oracle,
			Bin:  filepath.Join(oracle, "bin", stem),
			IR:   filepath.Join(oracle, "ir", stem),
		},
		Log: compare.NewTestLog(),
	}
}

func (tc *TestCase) String() string {
	return fmt.Sprintf("[%s] %s", tc.Config.Name, tc.Name)
}

// Key identifies the case in the fails list.
func (tc *TestCase) Key() string {
	return fmt.Sprintf("%s:%s", tc.Config.Name, tc.Name)
}

// Status returns the current status of the case.
func (tc *TestCase) Status() Status {
	return tc.status
}

// SetStatus moves the case to the next status. An illegal change is an
// error and the status is not changed.
func (tc *TestCase) SetStatus(s Status) error {
	if !tc.status.CanBecome(s) {
		return curated.Errorf(IllegalTransition, tc, tc.status, s)
	}
	tc.status = s
	return nil
}

// Fail ends the case with the terminal status appropriate for the error.
func (tc *TestCase) Fail(err error) error {
	tc.Err = err
	return tc.SetStatus(Classify(tc.status, err))
}

// artifact returns the artifact for the side
func (tc *TestCase) artifact(side session.Side) *Artifact {
	if side == session.Target {
		return &tc.Target
	}
	return &tc.Oracle
}
