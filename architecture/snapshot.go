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

package architecture

import (
	"fmt"
	"strings"

	"github.com/qdt/c2t/curated"
)

// UnknownRegister is returned when a snapshot is asked for a register that
// is not part of its profile.
const UnknownRegister = "register: %s: unknown register %q"

// Snapshot is the value of every register of a profile at a moment in time.
type Snapshot struct {
	profile *Profile

	// indexed in the same way as profile.regs. gaps are always zero
	values []uint64
}

// NewSnapshot returns a snapshot with every register set to zero.
func (p *Profile) NewSnapshot() *Snapshot {
	return &Snapshot{
		profile: p,
		values:  make([]uint64, len(p.regs)),
	}
}

// Profile returns the profile the snapshot was taken with.
func (s *Snapshot) Profile() *Profile {
	return s.profile
}

// Get returns the value of the named register.
func (s *Snapshot) Get(name string) (uint64, bool) {
	n, ok := s.profile.index[name]
	if !ok {
		return 0, false
	}
	return s.values[n], true
}

// Set the value of the named register. The value is truncated to the width
// of the register.
func (s *Snapshot) Set(name string, v uint64) error {
	n, ok := s.profile.index[name]
	if !ok {
		return curated.Errorf(UnknownRegister, s.profile.name, name)
	}
	s.values[n] = v & mask(s.profile.regs[n].Bits)
	return nil
}

// PC returns the value of the program counter.
func (s *Snapshot) PC() uint64 {
	return s.values[s.profile.pc]
}

// SP returns the value of the stack pointer.
func (s *Snapshot) SP() uint64 {
	return s.values[s.profile.sp]
}

// Equal returns true if both snapshots are of the same profile and every
// register has the same value.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s.profile != o.profile {
		return false
	}
	for i := range s.values {
		if s.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		profile: s.profile,
		values:  make([]uint64, len(s.values)),
	}
	copy(c.values, s.values)
	return c
}

// String returns the registers in dump order, one name=value pair each.
func (s *Snapshot) String() string {
	var b strings.Builder
	for i, r := range s.profile.regs {
		if r.Name == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteRune(' ')
		}
		b.WriteString(fmt.Sprintf("%s=%#0*x", r.Name, r.Bits/4+2, s.values[i]))
	}
	return b.String()
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}
