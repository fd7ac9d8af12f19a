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

	"github.com/qdt/c2t/curated"
)

// ProfileError is returned when a profile definition is invalid.
const ProfileError = "profile: %s: %v"

// Register is a single entry in the register layout of a profile. A register
// with an empty name is a gap: it occupies space in the register dump but its
// value is not recorded.
type Register struct {
	Name string
	Bits int
}

// Definition describes a profile before it is validated by NewProfile().
type Definition struct {
	Name      string
	Registers []Register

	// names of the program counter and stack pointer registers
	PC string
	SP string

	// width of registers that do not specify their own width
	Bits int

	BigEndian bool

	// the kind argument of Z0/z0 packets. zero means the width of the
	// program counter in bytes
	BreakKind int

	// disassembly mode for reports. one of the Disasm* values
	Disasm string
}

// Profile is the validated, immutable register schema of one architecture.
// A Profile is safe to share between goroutines.
type Profile struct {
	name      string
	regs      []Register
	index     map[string]int
	pc        int
	sp        int
	bigEndian bool
	breakKind int
	disasm    string

	// number of hex characters in a full register dump
	dumpLen int
}

// NewProfile validates the definition and returns a new profile.
func NewProfile(def Definition) (*Profile, error) {
	if def.Name == "" {
		return nil, curated.Errorf(ProfileError, "<unnamed>", "no name")
	}
	if len(def.Registers) == 0 {
		return nil, curated.Errorf(ProfileError, def.Name, "no registers")
	}

	p := &Profile{
		name:      def.Name,
		regs:      make([]Register, len(def.Registers)),
		index:     make(map[string]int),
		bigEndian: def.BigEndian,
		breakKind: def.BreakKind,
		disasm:    def.Disasm,
	}

	for i, r := range def.Registers {
		if r.Bits == 0 {
			r.Bits = def.Bits
		}
		if r.Bits <= 0 || r.Bits%8 != 0 {
			return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("register %d (%s) has invalid width %d", i, r.Name, r.Bits))
		}
		if r.Name != "" {
			if r.Bits > 64 {
				return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("register %s is wider than 64 bits", r.Name))
			}
			if _, ok := p.index[r.Name]; ok {
				return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("duplicate register %s", r.Name))
			}
			p.index[r.Name] = i
		}
		p.regs[i] = r
		p.dumpLen += r.Bits / 4
	}

	var ok bool
	if p.pc, ok = p.index[def.PC]; !ok {
		return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("program counter %q is not a register", def.PC))
	}
	if p.sp, ok = p.index[def.SP]; !ok {
		return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("stack pointer %q is not a register", def.SP))
	}

	if p.breakKind == 0 {
		p.breakKind = p.regs[p.pc].Bits / 8
	}

	switch p.disasm {
	case DisasmNone, DisasmX86_64, DisasmI386, DisasmARM, DisasmARM64:
	default:
		return nil, curated.Errorf(ProfileError, def.Name, fmt.Sprintf("unknown disassembly mode %q", p.disasm))
	}

	return p, nil
}

func (p *Profile) String() string {
	return p.name
}

// Name of the profile.
func (p *Profile) Name() string {
	return p.name
}

// PC returns the name of the program counter register.
func (p *Profile) PC() string {
	return p.regs[p.pc].Name
}

// SP returns the name of the stack pointer register.
func (p *Profile) SP() string {
	return p.regs[p.sp].Name
}

// BreakKind returns the kind argument for software breakpoints.
func (p *Profile) BreakKind() int {
	return p.breakKind
}

// BigEndian returns true if register values are big-endian on the wire.
func (p *Profile) BigEndian() bool {
	return p.bigEndian
}

// Names returns the register names in dump order. Gaps are not included.
func (p *Profile) Names() []string {
	n := make([]string, 0, len(p.index))
	for _, r := range p.regs {
		if r.Name != "" {
			n = append(n, r.Name)
		}
	}
	return n
}

// Has returns true if the named register is part of the profile.
func (p *Profile) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Number returns the register number of the named register, as used by the
// p and P packets.
func (p *Profile) Number(name string) (int, bool) {
	n, ok := p.index[name]
	return n, ok
}

// Bits returns the width of the named register.
func (p *Profile) Bits(name string) int {
	n, ok := p.index[name]
	if !ok {
		return 0
	}
	return p.regs[n].Bits
}
