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
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/compare"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/performance"
	"github.com/qdt/c2t/rsp"
	"github.com/qdt/c2t/session"
	"github.com/qdt/c2t/supervisor"
)

// the number of times a debug server is launched on a fresh port if the
// port it was given is taken
const launchAttempts = 3

// debug servers are addressed on the local host
const serverHost = "127.0.0.1"

func (r *Run) substitutions(tc *TestCase, a *Artifact, port int) supervisor.Substitutions {
	s := supervisor.Substitutions{
		supervisor.PlaceholderSrc:        tc.Source,
		supervisor.PlaceholderIR:         a.IR,
		supervisor.PlaceholderBin:        a.Bin,
		supervisor.PlaceholderTestDir:    r.opts.TestsDir,
		supervisor.PlaceholderC2TTestDir: r.opts.TestsDir,
	}
	if tc.Config.Path != "" {
		s[supervisor.PlaceholderC2TDir] = filepath.Dir(tc.Config.Path)
	} else {
		s[supervisor.PlaceholderC2TDir] = "."
	}
	if port > 0 {
		s[supervisor.PlaceholderPort] = supervisor.PortString(port)
	}
	return s
}

// build both binaries of the case at the same time. the debugging
// information of each binary is read and the directive index built
func (r *Run) build(ctx context.Context, tc *TestCase) {
	tc.Start = time.Now()

	if err := tc.SetStatus(Building); err != nil {
		tc.Err = err
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range []*Artifact{&tc.Target, &tc.Oracle} {
		g.Go(func() error {
			return r.buildArtifact(gctx, tc, a)
		})
	}

	if err := g.Wait(); err != nil {
		r.fail(ctx, tc, err)
	}
}

func (r *Run) buildArtifact(ctx context.Context, tc *TestCase, a *Artifact) error {
	tb := tc.Config.OracleCompiler
	if a.Side == session.Target {
		tb = tc.Config.TargetCompiler
	}

	built, err := tb.Build(ctx, r.substitutions(tc, a, 0), r.opts.BuildTimeout)
	if err != nil {
		return err
	}
	if built {
		logger.Logf(r.log, tc.Name, "%s: built %s", a.Side, a.Bin)
	}

	if r.opts.BuildOnly {
		return nil
	}

	prog, err := r.opts.Open(a.Bin)
	if err != nil {
		return curated.Errorf(supervisor.BuildError, err)
	}

	f, err := os.Open(tc.Source)
	if err != nil {
		return curated.Errorf(supervisor.BuildError, err)
	}
	defer f.Close()

	ix, err := directive.NewIndex(tc.Source, f, prog)
	if err != nil {
		return curated.Errorf(supervisor.BuildError, err)
	}
	for _, w := range ix.Warnings() {
		logger.Log(logger.Allow, string(a.Side), w)
	}

	a.Program = prog
	a.Index = ix

	return nil
}

// launch the debug servers of the case and connect to them
func (r *Run) launch(ctx context.Context, tc *TestCase) {
	if err := tc.SetStatus(Launching); err != nil {
		tc.Err = err
		return
	}

	tc.live = &live{}

	for _, side := range []session.Side{session.Target, session.Oracle} {
		s, err := r.connect(ctx, tc, tc.artifact(side))
		if err != nil {
			r.fail(ctx, tc, err)
			return
		}
		if side == session.Target {
			tc.live.target = s
		} else {
			tc.live.oracle = s
		}
	}
}

func (r *Run) connect(ctx context.Context, tc *TestCase, a *Artifact) (*session.Session, error) {
	cfg := tc.Config
	dc := cfg.RSPTarget

	profile := cfg.OracleProfile()
	server := cfg.GDBServer
	if a.Side == session.Target {
		profile = cfg.TargetProfile()
		server = cfg.Qemu
	}

	opts := rsp.Options{
		Timeout: dc.RSPTimeout,
		Name:    tc.Name + "." + string(a.Side),
		Log:     r.log,
	}

	var client *rsp.Client
	var err error

	if a.Side == session.Target && dc.Serial != "" {
		var conn rsp.Transport
		conn, err = rsp.OpenSerial(dc.Serial, dc.Baud)
		if err != nil {
			return nil, curated.Errorf(supervisor.LaunchError, err)
		}
		client, err = rsp.NewClient(ctx, conn, profile, opts)
	} else {
		client, err = r.serve(ctx, tc, a, server, profile, opts)
	}
	if err != nil {
		return nil, err
	}

	target := a.Side == session.Target

	return session.New(client, session.Config{
		Side:     a.Side,
		Artifact: a.Bin,
		Program:  a.Program,
		Index:    a.Index,
		Load:     target && !dc.User,
		Entry:    target,
		SetSP:    target && dc.SP != "",
		Log:      r.log,
	}), nil
}

// serve launches the debug server and connects to it. the server is
// relaunched on a fresh port if the port was taken by the time the server
// tried to bind it
func (r *Run) serve(ctx context.Context, tc *TestCase, a *Artifact, server supervisor.DebugServer,
	profile *architecture.Profile, opts rsp.Options) (*rsp.Client, error) {

	var err error
	for attempt := 1; attempt <= launchAttempts; attempt++ {
		var port int
		port, err = r.ports.Alloc()
		if err != nil {
			return nil, curated.Errorf(supervisor.LaunchError, err)
		}

		var client *rsp.Client
		client, err = r.await(ctx, tc, a, server, port, profile, opts)

		// the port is bound by the server or the server is gone
		r.ports.Free(port)

		if err == nil {
			return client, nil
		}
		if !curated.Has(err, supervisor.PortInUse) {
			return nil, err
		}

		logger.Logf(logger.Allow, tc.Name, "%s: attempt %d: %v", server.Name, attempt, err)
	}

	return nil, err
}

func (r *Run) await(ctx context.Context, tc *TestCase, a *Artifact, server supervisor.DebugServer, port int,
	profile *architecture.Profile, opts rsp.Options) (*rsp.Client, error) {

	p, err := server.Launch(r.substitutions(tc, a, port))
	if err != nil {
		return nil, err
	}
	tc.live.procs = append(tc.live.procs, p)

	address := net.JoinHostPort(serverHost, strconv.Itoa(port))

	var client *rsp.Client
	err = p.Await(ctx, r.opts.LaunchTimeout, port, func(actx context.Context) (bool, error) {
		c, err := rsp.Connect(actx, address, profile, opts)
		if err != nil {
			return curated.Has(err, rsp.ConnectError), err
		}
		client = c
		return false, nil
	})
	if err != nil {
		p.Stop()
		return nil, err
	}

	return client, nil
}

// monitored counts the dumps produced by a session
type monitored struct {
	*session.Session
	eps *performance.EPS
}

func (m monitored) Next(ctx context.Context) (*session.Dump, error) {
	d, err := m.Session.Next(ctx)
	m.eps.Event()
	return d, err
}

// lockstep runs the sessions of the case and compares their dumps
func (r *Run) lockstep(ctx context.Context, tc *TestCase) {
	if err := tc.SetStatus(Running); err != nil {
		tc.Err = err
		return
	}

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = tc.Config.RSPTarget.TestTimeout
	}

	tctx, cancel := context.WithTimeoutCause(ctx, timeout, curated.Errorf(TestTimeout, timeout))
	defer cancel()

	wctx, stop := context.WithCancelCause(tctx)
	defer stop(nil)

	eps, err := performance.NewEPS(performance.DefaultEvents)
	if err != nil {
		r.fail(ctx, tc, err)
		return
	}
	eps.Event()

	if r.opts.Stall > 0 {
		go watch(wctx, stop, eps, r.opts.Stall)
	}

	n, err := compare.Lockstep(wctx,
		monitored{Session: tc.live.target, eps: eps},
		monitored{Session: tc.live.oracle, eps: eps},
		tc.Log, r.opts.MaxChecks)
	tc.Checks = n

	if err != nil {
		// replace the timeout reported by the RSP client with the reason for
		// the timeout
		if wctx.Err() != nil {
			if c := context.Cause(wctx); curated.Is(c, TestTimeout) || curated.Is(c, Stalled) {
				err = c
			}
		}
		r.fail(ctx, tc, err)
		return
	}

	if err := tc.SetStatus(Passed); err != nil {
		tc.Err = err
	}
}

// watch cancels the context if the rate of events falls to zero for longer
// than the grace period
func watch(ctx context.Context, stop context.CancelCauseFunc, eps *performance.EPS, grace time.Duration) {
	t := time.NewTicker(max(grace/4, time.Millisecond))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if eps.Idle(now) > grace {
				logger.Logf(logger.Allow, "watchdog", "no progress for %v (%.2f dumps/s)", grace, eps.Get())
				stop(curated.Errorf(Stalled, grace))
				return
			}
		}
	}
}
