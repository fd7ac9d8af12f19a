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

package rsp

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
)

// DefaultTimeout is the read timeout used when Options.Timeout is zero.
const DefaultTimeout = 3 * time.Second

// the largest block of memory requested in a single m or M packet
const memoryChunk = 1024

// Options for a new Client.
type Options struct {
	// read timeout for every request. a reply that does not arrive within
	// this time is a StepTimeout
	Timeout time.Duration

	// number of times a read-only request is resent if the stub rejects it
	// with a NAK. requests that change the state of the target are never
	// resent
	Retries int

	// name used to tag log entries
	Name string

	// permission for logging packet traffic
	Log logger.Permission
}

// Client is a GDB Remote Serial Protocol client. A Client is owned by a
// single debug session and is not safe for concurrent use.
type Client struct {
	profile *architecture.Profile
	opts    Options

	conn Transport
	pr   packetReader

	// the client is unusable after a timeout or protocol error because the
	// stream may be out of step with the stub
	broken error
	closed bool

	breakpoints map[uint64]bool
}

// Connect dials the debug server at address and performs the initial
// handshake.
func Connect(ctx context.Context, address string, profile *architecture.Profile, opts Options) (*Client, error) {
	opts = opts.normalise()
	conn, err := DialTCP(ctx, address, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, conn, profile, opts)
}

// NewClient creates a client over an established transport and performs the
// initial handshake. The transport is closed if the handshake fails.
func NewClient(ctx context.Context, conn Transport, profile *architecture.Profile, opts Options) (*Client, error) {
	c := &Client{
		profile:     profile,
		opts:        opts.normalise(),
		conn:        conn,
		pr:          packetReader{rd: bufio.NewReader(conn)},
		breakpoints: make(map[uint64]bool),
	}

	// the reason for the current halt. the reply is not interesting but it
	// proves that the stub is alive and speaking the protocol
	reply, err := c.request(ctx, "?", true)
	if err == nil {
		_, err = parseStop(reply)
		if err != nil {
			err = curated.Errorf(ProtocolError, err)
		}
	}
	if err != nil {
		c.Close()
		return nil, err
	}

	logger.Logf(c.opts.Log, c.opts.Name, "connected (%s)", profile)

	return c, nil
}

func (o Options) normalise() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.Name == "" {
		o.Name = "rsp"
	}
	if o.Log == nil {
		o.Log = logger.Verbosity(false)
	}
	return o
}

// Profile returns the architecture profile used to decode register dumps.
func (c *Client) Profile() *architecture.Profile {
	return c.profile
}

// request sends a packet and waits for the reply. the readOnly flag
// indicates that the packet can be resent safely if it is rejected.
func (c *Client) request(ctx context.Context, payload string, readOnly bool) (string, error) {
	if err := c.send(ctx, payload, readOnly); err != nil {
		return "", err
	}
	return c.receive(ctx)
}

// prepare the transport for an exchange with the stub. the returned function
// must be called once the exchange is complete
func (c *Client) begin(ctx context.Context) (func(), error) {
	if c.closed {
		return nil, curated.Errorf(ClientClosed)
	}
	if c.broken != nil {
		return nil, c.broken
	}
	if err := ctx.Err(); err != nil {
		return nil, c.fail(curated.Errorf(StepTimeout, err))
	}

	deadline := time.Now().Add(c.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, c.fail(curated.Errorf(ProtocolError, err))
	}

	// cancellation of the context wakes a blocked read
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})

	return func() { stop() }, nil
}

func (c *Client) send(ctx context.Context, payload string, readOnly bool) error {
	end, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	logger.Logf(c.opts.Log, c.opts.Name, "-> %s", payload)

	pkt := frame(payload)
	for attempt := 0; ; attempt++ {
		if _, err := c.conn.Write([]byte(pkt)); err != nil {
			return c.fail(c.ioError(ctx, err))
		}

		ack, err := c.pr.readAck()
		if err != nil {
			return c.fail(c.ioError(ctx, err))
		}
		if ack {
			return nil
		}

		if !readOnly || attempt >= c.opts.Retries {
			return c.fail(curated.Errorf(ProtocolError, fmt.Sprintf("packet %q rejected by stub", payload)))
		}
		logger.Logf(c.opts.Log, c.opts.Name, "resending %s", payload)
	}
}

func (c *Client) receive(ctx context.Context) (string, error) {
	end, err := c.begin(ctx)
	if err != nil {
		return "", err
	}
	defer end()

	data, ok, err := c.pr.readPacket()
	if err != nil {
		if errors.Is(err, errPacketTooLong) {
			return "", c.fail(curated.Errorf(ProtocolError, err))
		}
		return "", c.fail(c.ioError(ctx, err))
	}

	if !ok {
		_, _ = c.conn.Write([]byte{'-'})
		return "", c.fail(curated.Errorf(ProtocolError, fmt.Sprintf("checksum mismatch in packet %q", data)))
	}

	if _, err := c.conn.Write([]byte{'+'}); err != nil {
		return "", c.fail(c.ioError(ctx, err))
	}

	reply, err := decode(data)
	if err != nil {
		return "", c.fail(curated.Errorf(ProtocolError, err))
	}

	logger.Logf(c.opts.Log, c.opts.Name, "<- %s", reply)

	return reply, nil
}

// ioError classifies an error from the transport.
func (c *Client) ioError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return curated.Errorf(StepTimeout, ctx.Err())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return curated.Errorf(StepTimeout, fmt.Sprintf("no reply within %s", c.opts.Timeout))
	}
	return curated.Errorf(ProtocolError, fmt.Sprintf("connection lost: %v", err))
}

func (c *Client) fail(err error) error {
	c.broken = err
	return err
}

// expectOK checks for the OK reply to a command.
func (c *Client) expectOK(cmd string, reply string) error {
	if reply == "OK" {
		return nil
	}
	return c.unexpected(cmd, reply)
}

// unexpected returns the error for an unexpected reply. error replies and
// empty (unsupported command) replies leave the stream in step and so the
// client remains usable
func (c *Client) unexpected(cmd string, reply string) error {
	switch {
	case reply == "":
		return curated.Errorf(ProtocolError, fmt.Sprintf("%s: not supported by stub", cmd))
	case reply[0] == 'E' && len(reply) == 3:
		return curated.Errorf(ProtocolError, fmt.Sprintf("%s: error reply %s", cmd, reply))
	}
	return curated.Errorf(ProtocolError, fmt.Sprintf("%s: unexpected reply %q", cmd, reply))
}

// ReadRegisters returns a snapshot of every register.
func (c *Client) ReadRegisters(ctx context.Context) (*architecture.Snapshot, error) {
	reply, err := c.request(ctx, "g", true)
	if err != nil {
		return nil, err
	}
	if len(reply) == 3 && reply[0] == 'E' {
		return nil, c.unexpected("g", reply)
	}
	s, err := c.profile.Decode(reply)
	if err != nil {
		return nil, curated.Errorf(ProtocolError, err)
	}
	return s, nil
}

// WriteRegisters writes every register in the snapshot.
func (c *Client) WriteRegisters(ctx context.Context, s *architecture.Snapshot) error {
	cmd := "G" + c.profile.Encode(s)
	reply, err := c.request(ctx, cmd, false)
	if err != nil {
		return err
	}
	return c.expectOK("G", reply)
}

// WriteRegister writes a single register. Stubs that do not support the P
// packet are written to with a full G packet.
func (c *Client) WriteRegister(ctx context.Context, name string, v uint64) error {
	n, ok := c.profile.Number(name)
	if !ok {
		return curated.Errorf(architecture.UnknownRegister, c.profile, name)
	}
	enc, err := c.profile.EncodeValue(name, v)
	if err != nil {
		return err
	}

	reply, err := c.request(ctx, fmt.Sprintf("P%x=%s", n, enc), false)
	if err != nil {
		return err
	}
	if reply != "" {
		return c.expectOK("P", reply)
	}

	s, err := c.ReadRegisters(ctx)
	if err != nil {
		return err
	}
	if err := s.Set(name, v); err != nil {
		return err
	}
	return c.WriteRegisters(ctx, s)
}

// ReadMemory reads length bytes starting at addr.
func (c *Client) ReadMemory(ctx context.Context, addr uint64, length int) ([]byte, error) {
	data := make([]byte, 0, length)
	for len(data) < length {
		n := min(length-len(data), memoryChunk)
		cmd := fmt.Sprintf("m%x,%x", addr+uint64(len(data)), n)
		reply, err := c.request(ctx, cmd, true)
		if err != nil {
			return nil, err
		}
		if reply == "" || (reply[0] == 'E' && len(reply) == 3) {
			return nil, c.unexpected(cmd, reply)
		}
		b, err := hex.DecodeString(reply)
		if err != nil {
			return nil, curated.Errorf(ProtocolError, fmt.Sprintf("%s: %v", cmd, err))
		}
		data = append(data, b...)

		// a short read means the remainder is not readable
		if len(b) < n {
			break
		}
	}
	return data, nil
}

// WriteMemory writes data starting at addr.
func (c *Client) WriteMemory(ctx context.Context, addr uint64, data []byte) error {
	for i := 0; i < len(data); i += memoryChunk {
		chunk := data[i:min(i+memoryChunk, len(data))]
		cmd := fmt.Sprintf("M%x,%x:%s", addr+uint64(i), len(chunk), hex.EncodeToString(chunk))
		reply, err := c.request(ctx, cmd, false)
		if err != nil {
			return err
		}
		if err := c.expectOK("M", reply); err != nil {
			return err
		}
	}
	return nil
}

// SetBreakpoint inserts a software breakpoint at addr.
func (c *Client) SetBreakpoint(ctx context.Context, addr uint64) error {
	reply, err := c.request(ctx, fmt.Sprintf("Z0,%x,%x", addr, c.profile.BreakKind()), false)
	if err != nil {
		return err
	}
	if err := c.expectOK("Z0", reply); err != nil {
		return err
	}
	c.breakpoints[addr] = true
	return nil
}

// ClearBreakpoint removes the software breakpoint at addr.
func (c *Client) ClearBreakpoint(ctx context.Context, addr uint64) error {
	reply, err := c.request(ctx, fmt.Sprintf("z0,%x,%x", addr, c.profile.BreakKind()), false)
	if err != nil {
		return err
	}
	if err := c.expectOK("z0", reply); err != nil {
		return err
	}
	delete(c.breakpoints, addr)
	return nil
}

// HasBreakpoint returns true if a breakpoint has been set at addr.
func (c *Client) HasBreakpoint(addr uint64) bool {
	return c.breakpoints[addr]
}

// Breakpoints returns the number of breakpoints set by the client.
func (c *Client) Breakpoints() int {
	return len(c.breakpoints)
}

// Continue resumes the target and waits for it to stop.
func (c *Client) Continue(ctx context.Context) (Stop, error) {
	return c.resume(ctx, "c")
}

// Step executes a single instruction and waits for the target to stop.
func (c *Client) Step(ctx context.Context) (Stop, error) {
	return c.resume(ctx, "s")
}

func (c *Client) resume(ctx context.Context, cmd string) (Stop, error) {
	if err := c.send(ctx, cmd, false); err != nil {
		return Stop{}, err
	}

	for {
		reply, err := c.receive(ctx)
		if err != nil {
			return Stop{}, err
		}

		// console output from the program while it runs
		if strings.HasPrefix(reply, "O") && reply != "OK" {
			if b, err := hex.DecodeString(reply[1:]); err == nil {
				logger.Logf(c.opts.Log, c.opts.Name, "console: %s", strings.TrimRight(string(b), "\n"))
				continue
			}
		}

		stop, err := parseStop(reply)
		if err != nil {
			return Stop{}, c.fail(curated.Errorf(ProtocolError, err))
		}
		return stop, nil
	}
}

// StepOverBreakpoint steps a single instruction from the current program
// counter. If a breakpoint has been set at the program counter it is
// removed for the duration of the step and reinstated afterwards, so the
// breakpoint does not trigger again.
func (c *Client) StepOverBreakpoint(ctx context.Context) (Stop, error) {
	s, err := c.ReadRegisters(ctx)
	if err != nil {
		return Stop{}, err
	}

	pc := s.PC()
	if !c.breakpoints[pc] {
		return c.Step(ctx)
	}

	if err := c.ClearBreakpoint(ctx, pc); err != nil {
		return Stop{}, err
	}

	stop, err := c.Step(ctx)
	if err != nil {
		return Stop{}, err
	}

	if stop.Running() {
		if err := c.SetBreakpoint(ctx, pc); err != nil {
			return Stop{}, err
		}
	}

	return stop, nil
}

// Detach from the target, leaving it running.
func (c *Client) Detach(ctx context.Context) error {
	reply, err := c.request(ctx, "D", false)
	if err != nil {
		return err
	}
	return c.expectOK("D", reply)
}

// Kill the target. The stub does not reply to a kill request.
func (c *Client) Kill(ctx context.Context) error {
	return c.send(ctx, "k", false)
}

// Close the connection to the stub. It is safe to call Close() more than
// once.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
