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

// DecodeError is returned when a register dump cannot be decoded.
const DecodeError = "register dump: %s: %v"

// Encode the snapshot as the payload of a G packet (or the reply to a g
// packet). Each register is a run of hex digits, least significant byte first
// for little-endian profiles.
func (p *Profile) Encode(s *Snapshot) string {
	var b strings.Builder
	b.Grow(p.dumpLen)
	for i, r := range p.regs {
		p.encodeValue(&b, s.values[i], r.Bits)
	}
	return b.String()
}

// EncodeValue returns the hex representation of a single register value, as
// used by the P packet.
func (p *Profile) EncodeValue(name string, v uint64) (string, error) {
	n, ok := p.index[name]
	if !ok {
		return "", curated.Errorf(UnknownRegister, p.name, name)
	}
	var b strings.Builder
	p.encodeValue(&b, v&mask(p.regs[n].Bits), p.regs[n].Bits)
	return b.String(), nil
}

func (p *Profile) encodeValue(b *strings.Builder, v uint64, bits int) {
	const hexDigits = "0123456789abcdef"

	bytes := bits / 8
	for i := range bytes {
		shift := i
		if p.bigEndian {
			shift = bytes - 1 - i
		}

		// bytes beyond the width of uint64 are only possible for gaps
		var c byte
		if shift < 8 {
			c = byte(v >> (shift * 8))
		}
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
}

// Decode the payload of a reply to a g packet. A payload longer than the
// profile requires is accepted and the excess ignored; stubs commonly send
// registers that the profile does not describe. Registers reported as
// unavailable (the digits are 'x') are zero.
func (p *Profile) Decode(payload string) (*Snapshot, error) {
	if len(payload) < p.dumpLen {
		return nil, curated.Errorf(DecodeError, p.name, fmt.Sprintf("short dump (%d digits, want %d)", len(payload), p.dumpLen))
	}

	s := p.NewSnapshot()

	idx := 0
	for i, r := range p.regs {
		n := r.Bits / 4
		field := payload[idx : idx+n]
		idx += n

		if r.Name == "" {
			continue
		}

		v, err := p.decodeValue(field)
		if err != nil {
			return nil, curated.Errorf(DecodeError, p.name, fmt.Sprintf("%s: %v", r.Name, err))
		}
		s.values[i] = v
	}

	return s, nil
}

// DecodeValue decodes the reply to a p packet for the named register.
func (p *Profile) DecodeValue(name string, field string) (uint64, error) {
	n, ok := p.index[name]
	if !ok {
		return 0, curated.Errorf(UnknownRegister, p.name, name)
	}
	if len(field) != p.regs[n].Bits/4 {
		return 0, curated.Errorf(DecodeError, p.name, fmt.Sprintf("%s: wrong width (%d digits)", name, len(field)))
	}
	v, err := p.decodeValue(field)
	if err != nil {
		return 0, curated.Errorf(DecodeError, p.name, fmt.Sprintf("%s: %v", name, err))
	}
	return v, nil
}

func (p *Profile) decodeValue(field string) (uint64, error) {
	bytes := len(field) / 2

	var v uint64
	for i := range bytes {
		hi, lo := field[i*2], field[i*2+1]
		if hi == 'x' && lo == 'x' {
			continue
		}

		h, ok1 := unhex(hi)
		l, ok2 := unhex(lo)
		if !ok1 || !ok2 {
			return 0, fmt.Errorf("invalid hex digits %q", field[i*2:i*2+2])
		}

		shift := i
		if p.bigEndian {
			shift = bytes - 1 - i
		}
		v |= uint64(h<<4|l) << (shift * 8)
	}

	return v, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
