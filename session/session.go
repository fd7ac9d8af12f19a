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

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/debuginfo"
	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/rsp"
)

// Sentinal patterns for errors returned by the session package.
const (
	SessionError = "session: %s: %v"
	LoadError    = "session: %s: load: %v"

	// the program stopped on a fault signal and cannot continue
	ProgramFault = "session: %s: program %v at %#x"
)

// the stack pointer is placed at this offset from main() when a program is
// loaded
const stackOffset = 0x10000

// the maximum number of bytes read for a variable
const maxVariable = 8

// how long to wait when sending the kill request on close
const killTimeout = 500 * time.Millisecond

// Config for a new Session.
type Config struct {
	Side     Side
	Artifact string

	Program debuginfo.Program
	Index   *directive.Index

	// write the program image to the target and set the program counter to
	// main(). not required when the debug server has loaded the program
	// itself, such as a gdbserver running a user mode program
	Load bool

	// set the program counter to main() without writing the program image.
	// implied by Load
	Entry bool

	// set the stack pointer when setting the program counter
	SetSP bool

	Log logger.Permission
}

// Session is the debugging of one program by one debug server. The stops of
// the program on directive lines produce Dumps.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg    Config
	client *rsp.Client

	registry *directive.Registry

	// directives that have fired and will not fire again. keyed by
	// Directive.String() and line
	spent map[spentKey]bool

	// the dump being built during a dispatch and the context of that
	// dispatch
	pending *Dump
	ctx     context.Context

	regs *architecture.Snapshot

	started  bool
	finished bool

	// line trace of the dumps produced so far
	trace []int
}

type spentKey struct {
	line int
	d    string
}

// New is the preferred method of initialisation for the Session type. The
// client is owned by the Session from this point.
func New(client *rsp.Client, cfg Config) *Session {
	s := &Session{
		cfg:      cfg,
		client:   client,
		registry: directive.NewRegistry(cfg.Index.File(), cfg.Log),
		spent:    make(map[spentKey]bool),
	}

	s.registry.Register(directive.Break, s.once(s.check))
	s.registry.Register(directive.BreakCyclic, s.check)
	s.registry.Register(directive.BreakEnd, s.end)
	s.registry.Register(directive.Check, s.once(s.checkValues))
	s.registry.Register(directive.CheckCyclic, s.checkValues)

	return s
}

func (s *Session) String() string {
	return fmt.Sprintf("%s (%s)", s.cfg.Side, s.client.Profile().Name())
}

// Side returns the side of the session.
func (s *Session) Side() Side {
	return s.cfg.Side
}

// Trace returns the lines of every dump produced so far.
func (s *Session) Trace() []int {
	return s.trace
}

// Finished returns true once the session has produced its end dump.
func (s *Session) Finished() bool {
	return s.finished
}

// Start prepares the program for running. If Config.Load is set the program
// image is written. If Config.Load or Config.Entry is set the program counter
// is set to main(). A breakpoint is set on every line
// that has a directive.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	s.started = true

	if s.cfg.Load || s.cfg.Entry {
		if err := s.load(ctx); err != nil {
			return err
		}
	}

	for _, line := range s.cfg.Index.Lines() {
		for _, addr := range s.cfg.Index.Addresses(line) {
			if err := s.client.SetBreakpoint(ctx, addr); err != nil {
				return err
			}
		}
	}

	logger.Logf(s.cfg.Log, string(s.cfg.Side), "%d breakpoints set", s.client.Breakpoints())

	return nil
}

func (s *Session) load(ctx context.Context) error {
	if s.cfg.Load {
		segments, err := s.cfg.Program.Segments()
		if err != nil {
			return curated.Errorf(LoadError, s.cfg.Side, err)
		}

		for _, sg := range segments {
			if err := s.client.WriteMemory(ctx, sg.Addr, sg.Data); err != nil {
				return err
			}
			logger.Logf(s.cfg.Log, string(s.cfg.Side), "loaded %d bytes at %#x", len(sg.Data), sg.Addr)
		}
	}

	main, _, ok := s.cfg.Program.Symbol("main")
	if !ok {
		return curated.Errorf(LoadError, s.cfg.Side, "no main symbol")
	}

	p := s.client.Profile()
	if err := s.client.WriteRegister(ctx, p.PC(), main); err != nil {
		return err
	}
	if s.cfg.SetSP {
		if err := s.client.WriteRegister(ctx, p.SP(), main+stackOffset); err != nil {
			return err
		}
	}

	return nil
}

// Next runs the program until it stops on a directive line that produces a
// dump. Stops on addresses without a directive are ignored. When the program
// exits or reaches a bre directive the returned Dump has End set. Once the
// end has been reached every following call returns the same end dump.
//
// A program that stops on a fault signal is finished and Next returns a
// ProgramFault error.
func (s *Session) Next(ctx context.Context) (*Dump, error) {
	if !s.started {
		if err := s.Start(ctx); err != nil {
			return nil, err
		}
	}

	if s.finished {
		return s.endDump(""), nil
	}

	for {
		stop, err := s.resume(ctx)
		if err != nil {
			return nil, err
		}

		if !stop.Running() {
			s.finished = true
			logger.Logf(s.cfg.Log, string(s.cfg.Side), "program %s", stop)
			return s.endDump(stop.String()), nil
		}

		if stop.Faulted() {
			return nil, s.fault(ctx, stop)
		}

		d, err := s.stopped(ctx)
		if err != nil {
			return nil, err
		}
		if d != nil {
			s.trace = append(s.trace, d.Line)
			return d, nil
		}
	}
}

func (s *Session) fault(ctx context.Context, stop rsp.Stop) error {
	s.finished = true
	regs, err := s.client.ReadRegisters(ctx)
	if err != nil {
		return err
	}
	s.regs = regs
	logger.Logf(s.cfg.Log, string(s.cfg.Side), "program %s at %#x", stop, regs.PC())
	return curated.Errorf(ProgramFault, s.cfg.Side, stop, regs.PC())
}

func (s *Session) endDump(exit string) *Dump {
	d := &Dump{
		Side:     s.cfg.Side,
		Artifact: s.cfg.Artifact,
		Time:     time.Now(),
		End:      true,
		Exit:     exit,
	}
	if s.regs != nil {
		d.Registers = s.regs
		d.Addr = s.regs.PC()
		d.Line, _ = s.cfg.Index.Line(d.Addr)
	}
	return d
}

// resume the program from the current stop. a breakpoint at the current
// address is stepped over first so that it does not trigger immediately. if
// the program is then at another breakpoint, or if it is at a breakpoint
// before it has run at all, that is treated as a stop without continuing
func (s *Session) resume(ctx context.Context) (rsp.Stop, error) {
	atBreakpoint := rsp.Stop{Kind: rsp.Stopped, Value: rsp.SIGTRAP}

	if s.regs == nil {
		regs, err := s.client.ReadRegisters(ctx)
		if err != nil {
			return rsp.Stop{}, err
		}
		s.regs = regs
		if s.client.HasBreakpoint(regs.PC()) {
			return atBreakpoint, nil
		}
	} else if s.client.HasBreakpoint(s.regs.PC()) {
		stop, err := s.client.StepOverBreakpoint(ctx)
		if err != nil || !stop.Running() || stop.Faulted() {
			return stop, err
		}
		regs, err := s.client.ReadRegisters(ctx)
		if err != nil {
			return rsp.Stop{}, err
		}
		s.regs = regs
		if s.client.HasBreakpoint(regs.PC()) {
			return stop, nil
		}
	}

	return s.client.Continue(ctx)
}

// stopped handles a stop of the program. returns nil if the stop did not
// produce a dump
func (s *Session) stopped(ctx context.Context) (*Dump, error) {
	regs, err := s.client.ReadRegisters(ctx)
	if err != nil {
		return nil, err
	}
	s.regs = regs

	line, ds, ok := s.cfg.Index.Lookup(regs.PC())
	if !ok {
		logger.Logf(s.cfg.Log, string(s.cfg.Side), "no directive at %#x", regs.PC())
		return nil, nil
	}

	s.pending = nil
	s.ctx = ctx
	err = s.registry.Dispatch(ds)
	s.ctx = nil
	if err != nil {
		return nil, err
	}

	if s.lineSpent(line, ds) {
		for _, addr := range s.cfg.Index.Addresses(line) {
			if s.client.HasBreakpoint(addr) {
				if err := s.client.ClearBreakpoint(ctx, addr); err != nil {
					return nil, err
				}
			}
		}
	}

	d := s.pending
	s.pending = nil
	if d != nil && d.End {
		s.finished = true
	}

	return d, nil
}

// lineSpent returns true if no directive on the line will fire again
func (s *Session) lineSpent(line int, ds []directive.Directive) bool {
	for _, d := range ds {
		switch d.Name {
		case directive.BreakCyclic, directive.CheckCyclic:
			return false
		case directive.Break, directive.Check:
			if !s.spent[spentKey{line: line, d: d.String()}] {
				return false
			}
		}
	}
	return true
}

// Close the session. The program is killed and the connection closed. The
// debug server process is not affected.
func (s *Session) Close(ctx context.Context) error {
	if !s.finished {
		kctx, cancel := context.WithTimeout(ctx, killTimeout)
		defer cancel()
		_ = s.client.Kill(kctx)
	}
	return s.client.Close()
}

// Client returns the RSP client of the session.
func (s *Session) Client() *rsp.Client {
	return s.client
}

// Instruction returns the disassembly of the instruction at addr. Returns the
// empty string if the architecture has no disassembler or if the memory could
// not be read.
func (s *Session) Instruction(ctx context.Context, addr uint64) string {
	code, err := s.client.ReadMemory(ctx, addr, architecture.CodeLength)
	if err != nil {
		return ""
	}
	text, _ := s.client.Profile().Disassemble(code, addr)
	return text
}
