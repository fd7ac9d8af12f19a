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
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qdt/c2t/config"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/debuginfo"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/performance"
	"github.com/qdt/c2t/performance/limiter"
	"github.com/qdt/c2t/pipeline"
	"github.com/qdt/c2t/supervisor"
)

// Default values for Options fields.
const (
	DefaultLaunchTimeout = 5 * time.Second
	DefaultBuildTimeout  = 2 * time.Minute
)

// Options for a Run.
type Options struct {
	// number of pipelines per configuration
	Jobs int

	// stop the run after this number of failed cases. zero never stops
	Errors int

	// maximum number of cases run by each pipeline. zero is no limit
	Limit int

	// overrides the test timeout of every configuration if not zero
	Timeout time.Duration

	// time allowed for a debug server to accept a connection and for a
	// single build stage
	LaunchTimeout time.Duration
	BuildTimeout  time.Duration

	// a case that produces no dumps for this period is abandoned. zero
	// disables the watchdog
	Stall time.Duration

	// maximum number of dump pairs compared for a single case. zero is the
	// default of the compare package
	MaxChecks int

	// build the test binaries but do not run them
	BuildOnly bool

	// directories of the test sources and of the build output
	TestsDir string
	WorkDir  string

	// directory for the dump logs of every case. no logs are written if
	// empty
	LogsDir string

	// paths of the results database and of the fails list. not used if
	// empty
	Results string
	Fails   string

	// the first port tried for a debug server
	FirstPort int

	// opens the debugging information of a test binary. defaults to
	// reading the ELF file
	Open func(path string) (debuginfo.Program, error)

	// outcome of each case and the summary. progress lines are only written
	// if Progress is true
	Output   io.Writer
	Progress bool
	Verbose  bool
}

func openELF(path string) (debuginfo.Program, error) {
	e, err := debuginfo.Open(path)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Run is the context of one invocation of the harness: the configurations,
// their test cases and the resources shared between the pipelines.
type Run struct {
	opts    Options
	configs []*config.Config
	queues  map[*config.Config]*Queue
	cases   []*TestCase

	ports *supervisor.PortPool
	rec   *Recorder

	// rate at which cases are completed
	eps *performance.EPS

	log logger.Permission

	cancel context.CancelCauseFunc
}

// NewRun is the preferred method of initialisation for the Run type. Every
// test is run under every configuration.
func NewRun(configs []*config.Config, tests []string, opts Options) (*Run, error) {
	if opts.Jobs < 1 {
		return nil, curated.Errorf(HarnessError, fmt.Sprintf("wrong number of jobs: %d", opts.Jobs))
	}
	if len(configs) == 0 {
		return nil, curated.Errorf(HarnessError, "no configurations")
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = DefaultLaunchTimeout
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = DefaultBuildTimeout
	}
	if opts.FirstPort == 0 {
		opts.FirstPort = supervisor.DefaultFirstPort
	}
	if opts.Open == nil {
		opts.Open = openELF
	}

	// no more pipelines than there are tests
	opts.Jobs = min(opts.Jobs, max(len(tests), 1))

	eps, err := performance.NewEPS(performance.DefaultEvents)
	if err != nil {
		return nil, curated.Errorf(HarnessError, err)
	}

	rec, err := NewRecorder(opts.Output, opts.Verbose, opts.Progress, opts.Results)
	if err != nil {
		return nil, curated.Errorf(HarnessError, err)
	}

	r := &Run{
		opts:    opts,
		configs: configs,
		queues:  make(map[*config.Config]*Queue),
		ports:   supervisor.NewPortPool(opts.FirstPort),
		rec:     rec,
		eps:     eps,
		log:     logger.Verbosity(opts.Verbose),
	}

	for _, cfg := range configs {
		q := &Queue{}
		for _, t := range tests {
			tc := NewTestCase(cfg, opts.TestsDir, opts.WorkDir, t)
			q.Push(tc)
			r.cases = append(r.cases, tc)
		}
		q.Close()
		r.queues[cfg] = q
	}

	return r, nil
}

// Cases returns every test case of the run.
func (r *Run) Cases() []*TestCase {
	return r.cases
}

// Execute the run. Each worker runs one pipeline per configuration,
// interleaved by a Dispatcher, and every pipeline takes cases from the queue
// of its configuration.
//
// The run ends when every case has been recorded, when the number of failed
// cases reaches Options.Errors, or when the context is cancelled. Only the
// last of these is an error.
func (r *Run) Execute(ctx context.Context) (*Summary, error) {
	ctx, r.cancel = context.WithCancelCause(ctx)
	defer r.cancel(nil)

	done := make(chan struct{})
	var progress sync.WaitGroup
	if r.opts.Progress {
		progress.Add(1)
		go func() {
			defer progress.Done()
			r.showProgress(done)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := range r.opts.Jobs {
		d := pipeline.NewDispatcher()
		for _, cfg := range r.configs {
			// a serial device is used by one case at a time
			if w > 0 && cfg.RSPTarget.Serial != "" {
				continue
			}
			d.Add(pipeline.NewTask(fmt.Sprintf("%s/%d", cfg.Name, w), r.stages(gctx, r.queues[cfg])...))
		}
		g.Go(func() error {
			return d.Run(gctx)
		})
	}
	err := g.Wait()

	close(done)
	progress.Wait()

	cause := context.Cause(ctx)
	if curated.Is(cause, TooManyErrors) {
		fmt.Fprintf(r.rec.out, "%v\n", cause)
		err = nil
	}

	summary, ferr := r.rec.Finish(r.opts.Fails)
	if ferr != nil {
		logger.Log(logger.Allow, "harness", ferr)
	}

	if err != nil {
		return summary, curated.Errorf(HarnessError, err)
	}
	return summary, nil
}

// the number of progress updates per second
const progressRate = 2

func (r *Run) showProgress(done chan struct{}) {
	lim, err := limiter.NewLimiter(progressRate)
	if err != nil {
		return
	}
	defer lim.Stop()

	for {
		select {
		case <-done:
			return
		default:
		}
		lim.Wait()
		r.rec.Progress(len(r.cases), r.eps.Get())
	}
}

// stages returns the stages of a pipeline taking cases from the queue:
//
//	selection -> [limit] -> build -> launch -> lockstep -> record
//
// A case that fails passes through the remaining stages untouched until it
// is recorded. The launch and lockstep stages are omitted in build only mode.
func (r *Run) stages(ctx context.Context, q *Queue) []pipeline.Stage[*TestCase] {
	stages := []pipeline.Stage[*TestCase]{
		pipeline.StageFunc[*TestCase](func(_ *TestCase, _ bool) pipeline.Result[*TestCase] {
			return r.selection(ctx, q)
		}),
	}

	if r.opts.Limit > 0 {
		stages = append(stages, pipeline.Limit[*TestCase](r.opts.Limit))
	}

	stages = append(stages, r.step(ctx, r.build))
	if !r.opts.BuildOnly {
		stages = append(stages, r.step(ctx, r.launch), r.step(ctx, r.lockstep))
	}

	stages = append(stages, pipeline.StageFunc[*TestCase](func(tc *TestCase, ok bool) pipeline.Result[*TestCase] {
		if !ok {
			return pipeline.Wait[*TestCase]()
		}
		r.record(tc)
		return pipeline.Out(tc)
	}))

	return stages
}

// step adapts a function to a pipeline stage. Cases that have already
// reached a terminal status are passed on without calling the function
func (r *Run) step(ctx context.Context, f func(context.Context, *TestCase)) pipeline.Stage[*TestCase] {
	return pipeline.StageFunc[*TestCase](func(tc *TestCase, ok bool) pipeline.Result[*TestCase] {
		if !ok {
			return pipeline.Wait[*TestCase]()
		}
		if !tc.Status().Terminal() && tc.Err == nil {
			f(ctx, tc)
		}
		return pipeline.Out(tc)
	})
}

func (r *Run) selection(ctx context.Context, q *Queue) pipeline.Result[*TestCase] {
	if ctx.Err() != nil {
		return pipeline.Finish[*TestCase]()
	}
	tc, finished := q.Pop()
	if finished {
		return pipeline.Finish[*TestCase]()
	}
	if tc == nil {
		return pipeline.Wait[*TestCase]()
	}
	return pipeline.Out(tc)
}

// fail ends the case with the error
//
// errors following the interruption of the run are replaced by the cause of
// the interruption
func (r *Run) fail(ctx context.Context, tc *TestCase, err error) {
	if ctx.Err() != nil {
		err = curated.Errorf(Interrupted, context.Cause(ctx))
	}
	if ferr := tc.Fail(err); ferr != nil {
		logger.Log(logger.Allow, "harness", ferr)
	}
	logger.Logf(r.log, tc.Name, "%s: %v", tc.Status(), err)
}

func (r *Run) record(tc *TestCase) {
	r.release(tc)

	if !tc.Start.IsZero() {
		tc.Duration = time.Since(tc.Start)
	}

	if r.opts.LogsDir != "" && !r.opts.BuildOnly {
		if err := r.writeLogs(tc); err != nil {
			logger.Log(logger.Allow, "harness", err)
		}
	}

	failures := r.rec.Record(tc)
	r.eps.Event()

	if r.opts.Errors > 0 && failures >= r.opts.Errors {
		r.cancel(curated.Errorf(TooManyErrors, failures))
	}
}

// the time allowed for the kill request when a session is closed
const releaseTimeout = time.Second

// release the sessions and processes of a case
func (r *Run) release(tc *TestCase) {
	if tc.live == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if s := tc.live.target; s != nil {
		tc.TargetTrace = s.Trace()
		if err := s.Close(ctx); err != nil {
			logger.Logf(r.log, tc.Name, "target: %v", err)
		}
	}
	if s := tc.live.oracle; s != nil {
		tc.OracleTrace = s.Trace()
		if err := s.Close(ctx); err != nil {
			logger.Logf(r.log, tc.Name, "oracle: %v", err)
		}
	}
	for _, p := range tc.live.procs {
		p.Stop()
		if r.opts.Verbose {
			logger.Logf(r.log, p.Name, "%s", p.Output())
		}
	}

	tc.live = nil
}
