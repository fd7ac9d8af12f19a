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

package rsp_test

import (
	"context"
	"testing"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/rsp"
	"github.com/qdt/c2t/rsp/rspstub"
	"github.com/qdt/c2t/test"
)

func program(t *testing.T) rspstub.Program {
	t.Helper()
	p, err := architecture.Lookup("msp430")
	test.DemandSuccess(t, err)
	return rspstub.Program{
		Profile: p,
		Instructions: []rspstub.Instruction{
			{Addr: 0x4400, Set: map[string]uint64{"r1": 0x2400}},
			{Addr: 0x4404, Set: map[string]uint64{"r12": 5}},
			{Addr: 0x4406, Set: map[string]uint64{"r12": 6}, Store: map[uint64][]byte{0x200: {0xaa, 0xbb}}},
			{Addr: 0x4408, Set: map[string]uint64{"r13": 1}},
			{Addr: 0x440a},
		},
		ExitCode: 3,
	}
}

func connect(t *testing.T, prog rspstub.Program, opts rspstub.Options, timeout time.Duration) (*rspstub.Stub, *rsp.Client) {
	t.Helper()
	stub, err := rspstub.Listen(prog, opts)
	test.DemandSuccess(t, err)
	t.Cleanup(stub.Close)

	c, err := rsp.Connect(context.Background(), stub.Addr(), prog.Profile, rsp.Options{Timeout: timeout})
	test.DemandSuccess(t, err)
	t.Cleanup(func() { c.Close() })

	return stub, c
}

func TestRegisters(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{}, time.Second)

	s, err := c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.PC(), uint64(0x4400))

	test.DemandSuccess(t, c.WriteRegister(ctx, "r15", 0x1234))
	s, err = c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	v, _ := s.Get("r15")
	test.ExpectEquality(t, v, uint64(0x1234))

	test.DemandSuccess(t, s.Set("r14", 0xbeef))
	test.DemandSuccess(t, c.WriteRegisters(ctx, s))
	s, err = c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	v, _ = s.Get("r14")
	test.ExpectEquality(t, v, uint64(0xbeef))

	err = c.WriteRegister(ctx, "xyz", 1)
	test.ExpectSuccess(t, curated.Is(err, architecture.UnknownRegister))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{}, time.Second)

	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i)
	}
	test.DemandSuccess(t, c.WriteMemory(ctx, 0x1000, data))

	b, err := c.ReadMemory(ctx, 0x1000, len(data))
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(b), len(data))
	for i := range b {
		if !test.ExpectEquality(t, b[i], data[i], i) {
			break
		}
	}
}

func TestBreakpoints(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{}, time.Second)

	test.DemandSuccess(t, c.SetBreakpoint(ctx, 0x4406))
	test.ExpectSuccess(t, c.HasBreakpoint(0x4406))

	stop, err := c.Continue(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, stop.Kind, rsp.Stopped)
	test.ExpectEquality(t, stop.Value, rsp.SIGTRAP)

	s, err := c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.PC(), uint64(0x4406))
	v, _ := s.Get("r12")
	test.ExpectEquality(t, v, uint64(5))

	// stepping over the breakpoint does not trigger it again and the
	// breakpoint remains in place
	stop, err = c.StepOverBreakpoint(ctx)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, stop.Running())
	test.ExpectSuccess(t, c.HasBreakpoint(0x4406))

	s, err = c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.PC(), uint64(0x4408))

	b, err := c.ReadMemory(ctx, 0x200, 2)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, b[1], byte(0xbb))

	test.DemandSuccess(t, c.ClearBreakpoint(ctx, 0x4406))
	test.ExpectEquality(t, c.Breakpoints(), 0)

	stop, err = c.Continue(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, stop.Kind, rsp.Exited)
	test.ExpectEquality(t, stop.Value, 3)
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{Compress: true}, time.Second)

	stop, err := c.Step(ctx)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, stop.Running())

	s, err := c.ReadRegisters(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.PC(), uint64(0x4404))
	test.ExpectEquality(t, s.SP(), uint64(0x2400))
}

func TestStepTimeout(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{Silent: "c"}, 100*time.Millisecond)

	_, err := c.Continue(ctx)
	test.ExpectSuccess(t, curated.Is(err, rsp.StepTimeout))

	// the client is unusable after a timeout
	_, err = c.ReadRegisters(ctx)
	test.ExpectSuccess(t, curated.Is(err, rsp.StepTimeout))
}

func TestCancellation(t *testing.T) {
	_, c := connect(t, program(t), rspstub.Options{Delay: time.Second}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Continue(ctx)
	test.ExpectSuccess(t, curated.Is(err, rsp.StepTimeout))
	test.ExpectSuccess(t, time.Since(start) < time.Second)
}

func TestChecksumError(t *testing.T) {
	prog := program(t)
	stub, err := rspstub.Listen(prog, rspstub.Options{Corrupt: true})
	test.DemandSuccess(t, err)
	defer stub.Close()

	_, err = rsp.Connect(context.Background(), stub.Addr(), prog.Profile, rsp.Options{Timeout: time.Second})
	test.ExpectSuccess(t, curated.Is(err, rsp.ProtocolError))
}

func TestDetach(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{}, time.Second)
	test.ExpectSuccess(t, c.Detach(ctx))
}

func TestErrorReply(t *testing.T) {
	ctx := context.Background()
	_, c := connect(t, program(t), rspstub.Options{Reject: "MZ"}, time.Second)

	err := c.WriteMemory(ctx, 0x200, []byte{1, 2, 3})
	test.ExpectSuccess(t, curated.Is(err, rsp.ProtocolError))

	err = c.SetBreakpoint(ctx, 0x4404)
	test.ExpectSuccess(t, curated.Is(err, rsp.ProtocolError))
	test.ExpectFailure(t, c.HasBreakpoint(0x4404))

	// the client remains usable after an error reply
	_, err = c.ReadRegisters(ctx)
	test.ExpectSuccess(t, err)
}

func TestConnectRefused(t *testing.T) {
	p, _ := architecture.Lookup("msp430")
	stub, err := rspstub.Listen(program(t), rspstub.Options{})
	test.DemandSuccess(t, err)
	addr := stub.Addr()
	stub.Close()

	_, err = rsp.Connect(context.Background(), addr, p, rsp.Options{Timeout: 100 * time.Millisecond})
	test.ExpectSuccess(t, curated.Is(err, rsp.ConnectError))
}

func TestClose(t *testing.T) {
	_, c := connect(t, program(t), rspstub.Options{}, time.Second)
	test.ExpectSuccess(t, c.Kill(context.Background()))
	test.ExpectSuccess(t, c.Close())
	test.ExpectSuccess(t, c.Close())
	_, err := c.ReadRegisters(context.Background())
	test.ExpectSuccess(t, curated.Is(err, rsp.ClientClosed))
}
