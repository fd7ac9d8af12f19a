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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/bradleyjkemp/memviz"
	"golang.org/x/term"

	"github.com/qdt/c2t/config"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/harness"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/modalflag"
	"github.com/qdt/c2t/paths"
	"github.com/qdt/c2t/results"
	"github.com/qdt/c2t/statsview"
	"github.com/qdt/c2t/version"
)

// exit values
const (
	exitPassed   = 0
	exitUsage    = 10
	exitFailures = 20
)

// names of the files and directories in the c2t resource path
const (
	workDir     = "work"
	resultsFile = "results.db"
	failsFile   = "fails"
	configsDir  = "configs"
)

// errFailures is returned when the run completed but some cases did not pass
var errFailures = errors.New("some tests did not pass")

func main() {
	os.Exit(launch(os.Stdout, os.Args[1:]))
}

// launch runs c2t with the command line arguments and returns the exit
// value.
func launch(output io.Writer, args []string) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.NewMode()
	md.AddSubModes("RUN", "BUILD", "LIST", "CHECK", "RESULTS", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitPassed

	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return exitUsage
	}

	// interrupt ends the run after the cases in progress have been released
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch md.Mode() {
	case "RUN":
		err = run(ctx, md, false)

	case "BUILD":
		err = run(ctx, md, true)

	case "LIST":
		err = list(md)

	case "CHECK":
		err = check(md)

	case "RESULTS":
		err = listResults(md)

	case "VERSION":
		fmt.Fprintln(output, version.Version())
	}

	switch {
	case err == nil:
		return exitPassed
	case errors.Is(err, errFailures):
		return exitFailures
	case curated.IsAny(err):
		fmt.Fprintf(output, "* error in %s mode: %v\n", md, err)
		if curated.Has(err, config.ConfigError) || curated.Has(err, harness.SelectError) {
			return exitUsage
		}
		return exitFailures
	default:
		fmt.Fprintf(output, "* error in %s mode: %v\n", md, err)
		return exitUsage
	}
}

// loadConfigs loads every configuration named on the command line
func loadConfigs(md *modalflag.Modes) ([]*config.Config, error) {
	if len(md.RemainingArgs()) == 0 {
		return nil, fmt.Errorf("at least one configuration required for %s mode", md)
	}

	var configs []*config.Config
	for _, name := range md.RemainingArgs() {
		fn, err := config.Find(name, configsDir, paths.ResourcePath(configsDir))
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(fn)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// isTerminal returns true if the writer is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func run(ctx context.Context, md *modalflag.Modes, buildOnly bool) error {
	md.NewMode()

	include := md.AddString("include", harness.DefaultInclude, "regular expression selecting test sources")
	exclude := md.AddString("exclude", "", "regular expression excluding test sources")
	testsDir := md.AddString("tests", "tests", "directory of the test sources")
	jobs := md.AddInt("jobs", 1, "number of test pipelines per configuration")
	errorLimit := md.AddInt("errors", 1, "stop after this number of errors (0 never stops)")
	limit := md.AddInt("limit", 0, "number of cases run by each pipeline (0 is no limit)")
	timeout := md.AddDuration("timeout", 0, "override the test timeout of every configuration")
	stall := md.AddDuration("stall", 0, "abandon a test that makes no progress for this period")
	logs := md.AddString("logs", "", "directory for the dump logs of every test")
	fails := md.AddBool("fails", false, "run only the tests that failed in the previous run")
	verbose := md.AddBool("verbose", false, "output more detail (eg. debug server output)")
	stats := md.AddBool("statsview", false, "run the runtime statistics server")
	viz := md.AddString("memviz", "", "write a graph of the run summary to the file")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	configs, err := loadConfigs(md)
	if err != nil {
		return err
	}

	tests, err := harness.SelectTests(*testsDir, *include, *exclude)
	if err != nil {
		return err
	}

	failsPath := paths.ResourcePath(failsFile)

	if *fails {
		var previous []string
		for _, cfg := range configs {
			f, err := results.PreviousFails(failsPath, cfg.Name)
			if err != nil && !errors.Is(err, results.ErrNoPreviousFails) {
				return err
			}
			previous = append(previous, f...)
		}

		// the failed tests must still be selected
		tests = slices.DeleteFunc(tests, func(t string) bool {
			return !slices.Contains(previous, t)
		})
		if len(tests) == 0 {
			fmt.Fprintln(md.Output, "no previous failures")
			return nil
		}
	}

	terminal := isTerminal(md.Output)

	out := md.Output
	if terminal {
		out = logger.NewColorizer(md.Output)
	}

	if *verbose {
		logger.SetEcho(out, false)
		logger.Log(logger.Allow, "c2t", version.Version())
	} else {
		logger.SetEcho(nil, false)
	}

	if *stats {
		statsview.Launch(md.Output, "")
	}

	work, err := paths.MkResourcePath(workDir)
	if err != nil {
		return err
	}

	opts := harness.Options{
		Jobs:      *jobs,
		Errors:    *errorLimit,
		Limit:     *limit,
		Timeout:   *timeout,
		Stall:     *stall,
		BuildOnly: buildOnly,
		TestsDir:  *testsDir,
		WorkDir:   work,
		Results:   paths.ResourcePath(resultsFile),
		Fails:     failsPath,
		Output:    out,
		Progress:  terminal && !*verbose,
		Verbose:   *verbose,
	}

	// dump logs go to a new directory for every run
	if *logs != "" {
		opts.LogsDir = filepath.Join(*logs, time.Now().Format("20060102-150405"))
	}

	r, err := harness.NewRun(configs, tests, opts)
	if err != nil {
		return err
	}

	summary, err := r.Execute(ctx)
	if summary != nil {
		fmt.Fprintln(md.Output, summary)

		if *viz != "" {
			if verr := writeMemviz(*viz, summary); verr != nil {
				logger.Log(logger.Allow, "memviz", verr)
			}
		}
	}
	if err != nil {
		return err
	}

	if summary.Failures() > 0 {
		return errFailures
	}

	return nil
}

func writeMemviz(path string, summary *harness.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	memviz.Map(f, summary)
	return nil
}

func list(md *modalflag.Modes) error {
	md.NewMode()

	include := md.AddString("include", harness.DefaultInclude, "regular expression selecting test sources")
	exclude := md.AddString("exclude", "", "regular expression excluding test sources")
	testsDir := md.AddString("tests", "tests", "directory of the test sources")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("no additional arguments required for %s mode", md)
	}

	tests, err := harness.SelectTests(*testsDir, *include, *exclude)
	if err != nil {
		return err
	}

	for _, t := range tests {
		fmt.Fprintln(md.Output, t)
	}
	fmt.Fprintf(md.Output, "Total: %d\n", len(tests))

	return nil
}

func check(md *modalflag.Modes) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	configs, err := loadConfigs(md)
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		fmt.Fprintf(md.Output, "%s: target %s, oracle %s (%s)\n", cfg,
			cfg.TargetProfile().Name(), cfg.OracleProfile().Name(), cfg.Path)
	}

	return nil
}

func listResults(md *modalflag.Modes) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("no additional arguments required for %s mode", md)
	}

	db, err := results.StartSession(paths.ResourcePath(resultsFile), results.Init)
	if err != nil {
		return err
	}
	defer db.EndSession(false)

	return db.List(md.Output)
}
