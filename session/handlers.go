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
	"time"

	"github.com/qdt/c2t/directive"
	"github.com/qdt/c2t/logger"
)

// once wraps a handler so that it fires only the first time the program
// stops on the directive
func (s *Session) once(h directive.Handler) directive.Handler {
	return func(d directive.Directive) error {
		k := spentKey{line: d.Line, d: d.String()}
		if s.spent[k] {
			return nil
		}
		s.spent[k] = true
		return h(d)
	}
}

// dump returns the dump for the current stop, creating it if necessary
func (s *Session) dump(d directive.Directive) *Dump {
	if s.pending == nil {
		s.pending = &Dump{
			Side:      s.cfg.Side,
			Artifact:  s.cfg.Artifact,
			Time:      time.Now(),
			Addr:      s.regs.PC(),
			Line:      d.Line,
			Registers: s.regs,
		}
	}
	s.pending.Directives = append(s.pending.Directives, d.Name)
	return s.pending
}

// check the line number of the stop
func (s *Session) check(d directive.Directive) error {
	s.dump(d)
	return nil
}

// end the test
func (s *Session) end(d directive.Directive) error {
	s.dump(d).End = true
	return nil
}

// check the line number and the values named by the directive arguments
func (s *Session) checkValues(d directive.Directive) error {
	dmp := s.dump(d)
	if dmp.Values == nil {
		dmp.Values = make(map[string]uint64)
	}

	for _, name := range d.Args {
		v, ok, err := s.value(name)
		if err != nil {
			return err
		}
		if !ok {
			logger.Logf(s.cfg.Log, string(s.cfg.Side), "line %d: unknown register or variable %q", d.Line, name)
			continue
		}
		dmp.Values[name] = v
	}

	return nil
}

// value returns the named value. a register of the session's architecture
// takes priority over a variable of the same name
func (s *Session) value(name string) (uint64, bool, error) {
	if v, ok := s.regs.Get(name); ok {
		return v, true, nil
	}

	addr, size, ok := s.cfg.Program.Symbol(name)
	if !ok {
		return 0, false, nil
	}

	p := s.client.Profile()
	if size == 0 {
		size = uint64(p.Bits(p.PC()) / 8)
	}
	size = min(size, maxVariable)

	b, err := s.client.ReadMemory(s.ctx, addr, int(size))
	if err != nil {
		return 0, false, err
	}

	var v uint64
	if p.BigEndian() {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
	} else {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	}

	return v, true, nil
}
