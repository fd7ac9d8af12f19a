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

package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/debuginfo"
	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/rsp"
	"github.com/qdt/c2t/rsp/rspstub"
	"github.com/qdt/c2t/session"
	"github.com/qdt/c2t/test"
)

const source = `int a;
int main(void) {
    a = 1; //$ ch(a, r12)
    while (a) { //$ brc
        a--;
    } //$ bre; zz
}
`

type program struct {
	lines    map[int][]uint64
	symbols  map[string][2]uint64
	segments []debuginfo.Segment
}

func (p program) Addresses(_ string, line int) []uint64 {
	return p.lines[line]
}

func (p program) Symbol(name string) (uint64, uint64, bool) {
	s, ok := p.symbols[name]
	return s[0], s[1], ok
}

func (p program) Segments() ([]debuginfo.Segment, error) {
	return p.segments, nil
}

var testProgram = program{
	lines: map[int][]uint64{
		3: {0x4404},
		4: {0x4408},
		6: {0x440c},
	},
	symbols: map[string][2]uint64{
		"main": {0x4400, 0x20},
		"a":    {0x200, 2},
	},
	segments: []debuginfo.Segment{
		{Addr: 0x300, Data: []byte{1, 2, 3}},
	},
}

func stubProgram(t *testing.T) rspstub.Program {
	t.Helper()
	p, err := architecture.Lookup("msp430")
	test.DemandSuccess(t, err)
	return rspstub.Program{
		Profile: p,
		Instructions: []rspstub.Instruction{
			{Addr: 0x4400, Set: map[string]uint64{"r12": 7}, Store: map[uint64][]byte{0x200: {0x34, 0x12}}},
			{Addr: 0x4404, Set: map[string]uint64{"r12": 8}},
			{Addr: 0x4408, Set: map[string]uint64{"r13": 1}},
			{Addr: 0x4406},
			{Addr: 0x4408, Set: map[string]uint64{"r13": 2}},
			{Addr: 0x440c},
			{Addr: 0x4410},
		},
	}
}

func newSession(t *testing.T, opts rspstub.Options, timeout time.Duration, cfg session.Config) *session.Session {
	t.Helper()

	prog := stubProgram(t)
	stub, err := rspstub.Listen(prog, opts)
	test.DemandSuccess(t, err)
	t.Cleanup(stub.Close)

	c, err := rsp.Connect(context.Background(), stub.Addr(), prog.Profile, rsp.Options{Timeout: timeout})
	test.DemandSuccess(t, err)

	ix, err := directive.NewIndex("t.c", strings.NewReader(source), testProgram)
	test.DemandSuccess(t, err)

	cfg.Index = ix
	cfg.Program = testProgram
	cfg.Log = logger.Allow

	s := session.New(c, cfg)
	t.Cleanup(func() { s.Close(context.Background()) })

	return s
}

func TestSession(t *testing.T) {
	s := newSession(t, rspstub.Options{}, time.Second, session.Config{
		Side:     session.Target,
		Artifact: "t.elf",
	})
	ctx := context.Background()

	d, err := s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Line, 3)
	test.ExpectEquality(t, d.Addr, uint64(0x4404))
	test.ExpectEquality(t, d.Side, session.Target)
	test.ExpectEquality(t, d.Values["a"], uint64(0x1234))
	test.ExpectEquality(t, d.Values["r12"], uint64(7))
	test.ExpectFailure(t, d.End)
	test.ExpectFailure(t, s.Client().HasBreakpoint(0x4404))

	d, err = s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Line, 4)
	test.ExpectSuccess(t, d.Values == nil)
	v, _ := d.Registers.Get("r12")
	test.ExpectEquality(t, v, uint64(8))

	// cyclic breakpoint triggers again
	d, err = s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Line, 4)
	v, _ = d.Registers.Get("r13")
	test.ExpectEquality(t, v, uint64(1))
	test.ExpectSuccess(t, s.Client().HasBreakpoint(0x4408))

	d, err = s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Line, 6)
	test.ExpectSuccess(t, d.End)
	test.ExpectEquality(t, len(d.Directives), 1)
	test.ExpectSuccess(t, s.Finished())

	// end dump is repeated
	d, err = s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, d.End)

	trace := s.Trace()
	test.DemandEquality(t, len(trace), 4)
	test.ExpectEquality(t, trace[0], 3)
	test.ExpectEquality(t, trace[3], 6)
}

func TestSessionLoad(t *testing.T) {
	s := newSession(t, rspstub.Options{}, time.Second, session.Config{
		Side:  session.Target,
		Load:  true,
		SetSP: true,
	})
	ctx := context.Background()

	test.DemandSuccess(t, s.Start(ctx))

	b, err := s.Client().ReadMemory(ctx, 0x300, 3)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(b), string([]byte{1, 2, 3}))

	regs, err := s.Client().ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, regs.PC(), uint64(0x4400))
	test.ExpectEquality(t, regs.SP(), uint64(0x4400+0x10000)&0xffff)
}

func TestSessionExit(t *testing.T) {
	prog := stubProgram(t)

	// a program without a bre directive ends when it exits
	src := strings.Replace(source, "//$ bre; zz", "", 1)
	stub, err := rspstub.Listen(prog, rspstub.Options{})
	test.DemandSuccess(t, err)
	defer stub.Close()

	c, err := rsp.Connect(context.Background(), stub.Addr(), prog.Profile, rsp.Options{Timeout: time.Second})
	test.DemandSuccess(t, err)

	ix, err := directive.NewIndex("t.c", strings.NewReader(src), testProgram)
	test.DemandSuccess(t, err)

	s := session.New(c, session.Config{Side: session.Oracle, Index: ix, Program: testProgram})
	defer s.Close(context.Background())

	var dumps []*session.Dump
	for !s.Finished() {
		d, err := s.Next(context.Background())
		test.DemandSuccess(t, err)
		dumps = append(dumps, d)
	}

	test.DemandEquality(t, len(dumps), 4)
	test.ExpectSuccess(t, dumps[3].End)
	test.ExpectSuccess(t, strings.Contains(dumps[3].Exit, "exited"))
}

func TestSessionTimeout(t *testing.T) {
	s := newSession(t, rspstub.Options{Delay: 500 * time.Millisecond}, 50*time.Millisecond, session.Config{
		Side: session.Target,
	})

	_, err := s.Next(context.Background())
	test.ExpectSuccess(t, curated.Is(err, rsp.StepTimeout))
}

func TestSessionFault(t *testing.T) {
	prog := stubProgram(t)

	// the instruction after the first directive line faults. no directive
	// is on the faulting address
	prog.Instructions = []rspstub.Instruction{
		{Addr: 0x4400},
		{Addr: 0x4404},
		{Addr: 0x4406, Signal: 11},
		{Addr: 0x440c},
	}

	stub, err := rspstub.Listen(prog, rspstub.Options{})
	test.DemandSuccess(t, err)
	defer stub.Close()

	c, err := rsp.Connect(context.Background(), stub.Addr(), prog.Profile, rsp.Options{Timeout: time.Second})
	test.DemandSuccess(t, err)

	ix, err := directive.NewIndex("t.c", strings.NewReader(source), testProgram)
	test.DemandSuccess(t, err)

	s := session.New(c, session.Config{Side: session.Target, Index: ix, Program: testProgram})
	defer s.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d, err := s.Next(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Line, 3)

	start := time.Now()
	d, err = s.Next(ctx)
	test.ExpectSuccess(t, d == nil)
	test.ExpectSuccess(t, curated.Is(err, session.ProgramFault), err)
	test.ExpectSuccess(t, strings.Contains(err.Error(), "signal 11 at 0x4406"), err)
	test.ExpectSuccess(t, time.Since(start) < time.Second)
	test.ExpectSuccess(t, s.Finished())

	// the program is not resumed after the fault
	n := 0
	for _, p := range stub.Received() {
		if p == "c" {
			n++
		}
	}
	test.ExpectEquality(t, n, 2)
}

func TestDumpLines(t *testing.T) {
	d := session.Dump{
		Line:   12,
		Addr:   0x4404,
		Values: map[string]uint64{"b": 2, "a": 10},
	}
	l := d.Lines()
	test.DemandEquality(t, len(l), 9)
	test.ExpectEquality(t, l[0], "lineno")
	test.ExpectEquality(t, l[1], "  12")
	test.ExpectEquality(t, l[3], "  a")
	test.ExpectEquality(t, l[4], "    10 (0xa)")
	test.ExpectEquality(t, l[8], "  0x4404")
}
