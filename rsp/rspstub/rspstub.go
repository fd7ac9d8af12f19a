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

// Package rspstub is a minimal GDB remote stub for testing. It executes a
// scripted program: a list of instructions, each at an address and each with
// a set of register and memory effects. It understands enough of the remote
// protocol for the rsp client and the debug sessions built on it.
package rspstub

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qdt/c2t/architecture"
)

// Instruction is one step of a scripted program.
type Instruction struct {
	Addr uint64

	// register and memory effects of executing the instruction
	Set   map[string]uint64
	Store map[uint64][]byte

	// the instruction faults with this signal instead of executing. the
	// program counter does not advance
	Signal int
}

// Program is a straight-line program. Execution begins at the first
// instruction and the program exits once the last instruction has executed.
type Program struct {
	Profile      *architecture.Profile
	Instructions []Instruction
	ExitCode     int
}

// Options change the behaviour of the stub. The zero value is a well
// behaved stub.
type Options struct {
	// delay before replying to c and s packets
	Delay time.Duration

	// never reply to the named packet types (the first character of the
	// packet)
	Silent string

	// reply with an error to the named packet types
	Reject string

	// send replies with an incorrect checksum
	Corrupt bool

	// compress replies with run-length encoding
	Compress bool
}

// Stub is a remote stub listening on a local TCP port. Each connection runs
// the program from the beginning.
type Stub struct {
	ln   net.Listener
	prog Program
	opts Options

	crit  sync.Mutex
	conns map[net.Conn]bool
	wg    sync.WaitGroup

	// packets received by the most recent connection
	log []string
}

// Listen starts a stub on a free local port.
func Listen(prog Program, opts Options) (*Stub, error) {
	return ListenOn("127.0.0.1:0", prog, opts)
}

// ListenOn starts a stub on the specified address.
func ListenOn(address string, prog Program, opts Options) (*Stub, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	s := &Stub{
		ln:    ln,
		prog:  prog,
		opts:  opts,
		conns: make(map[net.Conn]bool),
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

// Addr returns the address of the stub.
func (s *Stub) Addr() string {
	return s.ln.Addr().String()
}

// Port returns the port the stub is listening on.
func (s *Stub) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Received returns the packets received on the most recent connection.
func (s *Stub) Received() []string {
	s.crit.Lock()
	defer s.crit.Unlock()
	return append([]string{}, s.log...)
}

// Close the stub and every open connection.
func (s *Stub) Close() {
	s.ln.Close()
	s.crit.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.crit.Unlock()
	s.wg.Wait()
}

func (s *Stub) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.crit.Lock()
		s.conns[conn] = true
		s.log = s.log[:0]
		s.crit.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
			s.crit.Lock()
			delete(s.conns, conn)
			s.crit.Unlock()
			conn.Close()
		}()
	}
}

// machine is the state of one run of the program.
type machine struct {
	prog   Program
	regs   *architecture.Snapshot
	mem    map[uint64]byte
	bps    map[uint64]bool
	idx    int
	byNum  map[int]string
	exited bool

	// signal raised by the most recent instruction
	signal int
}

func newMachine(prog Program) *machine {
	m := &machine{
		prog:  prog,
		regs:  prog.Profile.NewSnapshot(),
		mem:   make(map[uint64]byte),
		bps:   make(map[uint64]bool),
		byNum: make(map[int]string),
	}
	for _, n := range prog.Profile.Names() {
		i, _ := prog.Profile.Number(n)
		m.byNum[i] = n
	}
	m.syncPC()
	return m
}

func (m *machine) syncPC() {
	if m.idx < len(m.prog.Instructions) {
		_ = m.regs.Set(m.prog.Profile.PC(), m.prog.Instructions[m.idx].Addr)
	}
}

// jump moves execution to the instruction at the program counter
func (m *machine) jump() {
	pc := m.regs.PC()
	for i, in := range m.prog.Instructions {
		if in.Addr == pc {
			m.idx = i
			return
		}
	}
}

// execute the current instruction. returns false if the program has exited
// or the instruction faulted.
func (m *machine) execute() bool {
	if m.idx >= len(m.prog.Instructions) {
		m.exited = true
		return false
	}
	in := m.prog.Instructions[m.idx]
	m.signal = in.Signal
	if m.signal != 0 {
		return false
	}
	for k, v := range in.Set {
		_ = m.regs.Set(k, v)
	}
	for a, b := range in.Store {
		for i := range b {
			m.mem[a+uint64(i)] = b[i]
		}
	}
	m.idx++
	if m.idx >= len(m.prog.Instructions) {
		m.exited = true
		return false
	}
	m.syncPC()
	return true
}

func (m *machine) stopReply() string {
	if m.exited {
		return fmt.Sprintf("W%02x", m.prog.ExitCode)
	}
	if m.signal != 0 {
		return fmt.Sprintf("S%02x", m.signal)
	}
	return "T05"
}

func (s *Stub) serve(conn net.Conn) {
	m := newMachine(s.prog)
	rd := bufio.NewReader(conn)

	for {
		pkt, err := readPacket(rd)
		if err != nil {
			return
		}
		if _, err := conn.Write([]byte{'+'}); err != nil {
			return
		}

		s.crit.Lock()
		s.log = append(s.log, pkt)
		s.crit.Unlock()

		if pkt == "" || strings.ContainsRune(s.opts.Silent, rune(pkt[0])) {
			continue
		}

		if strings.ContainsRune(s.opts.Reject, rune(pkt[0])) {
			if err := s.reply(conn, "E01"); err != nil {
				return
			}
			continue
		}

		reply, stop := s.handle(m, pkt)
		if stop {
			return
		}
		if err := s.reply(conn, reply); err != nil {
			return
		}
	}
}

func (s *Stub) handle(m *machine, pkt string) (string, bool) {
	switch pkt[0] {
	case '?':
		return m.stopReply(), false

	case 'g':
		return s.prog.Profile.Encode(m.regs), false

	case 'G':
		regs, err := s.prog.Profile.Decode(pkt[1:])
		if err != nil {
			return "E01", false
		}
		m.regs = regs
		m.jump()
		return "OK", false

	case 'P':
		num, val, ok := strings.Cut(pkt[1:], "=")
		if !ok {
			return "E01", false
		}
		n, err := strconv.ParseInt(num, 16, 32)
		if err != nil {
			return "E01", false
		}
		name, ok := m.byNum[int(n)]
		if !ok {
			return "E02", false
		}
		v, err := s.prog.Profile.DecodeValue(name, val)
		if err != nil {
			return "E03", false
		}
		_ = m.regs.Set(name, v)
		if name == s.prog.Profile.PC() {
			m.jump()
		}
		return "OK", false

	case 'm':
		addr, length, err := addrLength(pkt[1:])
		if err != nil {
			return "E01", false
		}
		b := make([]byte, length)
		for i := range b {
			b[i] = m.mem[addr+uint64(i)]
		}
		return hex.EncodeToString(b), false

	case 'M':
		al, data, ok := strings.Cut(pkt[1:], ":")
		if !ok {
			return "E01", false
		}
		addr, _, err := addrLength(al)
		if err != nil {
			return "E01", false
		}
		b, err := hex.DecodeString(data)
		if err != nil {
			return "E02", false
		}
		for i := range b {
			m.mem[addr+uint64(i)] = b[i]
		}
		return "OK", false

	case 'Z', 'z':
		if len(pkt) < 3 || pkt[1] != '0' {
			return "", false
		}
		addr, _, err := addrLength(pkt[3:])
		if err != nil {
			return "E01", false
		}
		if pkt[0] == 'Z' {
			m.bps[addr] = true
		} else {
			delete(m.bps, addr)
		}
		return "OK", false

	case 'c':
		time.Sleep(s.opts.Delay)
		for m.execute() {
			if m.bps[m.regs.PC()] {
				break
			}
		}
		return m.stopReply(), false

	case 's':
		time.Sleep(s.opts.Delay)
		m.execute()
		return m.stopReply(), false

	case 'D':
		return "OK", false

	case 'k':
		return "", true
	}

	return "", false
}

func (s *Stub) reply(w io.Writer, payload string) error {
	data := payload
	if s.opts.Compress {
		data = compress(payload)
	}
	var cs byte
	for i := 0; i < len(data); i++ {
		cs += data[i]
	}
	if s.opts.Corrupt {
		cs++
	}
	_, err := fmt.Fprintf(w, "$%s#%02x", data, cs)
	return err
}

// compress runs of more than three identical characters. run lengths that
// would produce one of the special characters are avoided
func compress(payload string) string {
	var b strings.Builder
	for i := 0; i < len(payload); {
		c := payload[i]
		j := i + 1
		for j < len(payload) && payload[j] == c && j-i < 98 {
			j++
		}
		n := j - i - 1
		if n >= 3 && n+29 != '#' && n+29 != '$' {
			b.WriteByte(c)
			b.WriteByte('*')
			b.WriteByte(byte(n + 29))
		} else {
			b.WriteString(payload[i:j])
		}
		i = j
	}
	return b.String()
}

func addrLength(s string) (uint64, uint64, error) {
	a, l, _ := strings.Cut(s, ",")
	addr, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, 0, err
	}
	if l == "" {
		return addr, 0, nil
	}
	length, err := strconv.ParseUint(l, 16, 64)
	return addr, length, err
}

// readPacket returns the unescaped payload of the next packet. Acks and
// interrupts between packets are skipped.
func readPacket(rd *bufio.Reader) (string, error) {
	for {
		c, err := rd.ReadByte()
		if err != nil {
			return "", err
		}
		if c != '$' {
			continue
		}
		data, err := rd.ReadString('#')
		if err != nil {
			return "", err
		}
		if _, err := io.ReadFull(rd, make([]byte, 2)); err != nil {
			return "", err
		}
		data = data[:len(data)-1]

		var b strings.Builder
		for i := 0; i < len(data); i++ {
			if data[i] == '}' && i+1 < len(data) {
				i++
				b.WriteByte(data[i] ^ 0x20)
			} else {
				b.WriteByte(data[i])
			}
		}
		return b.String(), nil
	}
}
