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

package architecture_test

import (
	"testing"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/test"
)

func newProfile(t *testing.T, bits int, bigEndian bool) *architecture.Profile {
	t.Helper()
	p, err := architecture.NewProfile(architecture.Definition{
		Name:      "test",
		Registers: []architecture.Register{{Name: "a"}, {Name: "b"}, {Bits: 24}, {Name: "pc"}, {Name: "sp"}},
		PC:        "pc",
		SP:        "sp",
		Bits:      bits,
		BigEndian: bigEndian,
	})
	test.DemandSuccess(t, err)
	return p
}

func TestRoundTrip(t *testing.T) {
	for _, bits := range []int{16, 32, 64} {
		for _, bigEndian := range []bool{false, true} {
			p := newProfile(t, bits, bigEndian)

			s := p.NewSnapshot()
			test.DemandSuccess(t, s.Set("a", 0x0123456789abcdef))
			test.DemandSuccess(t, s.Set("b", 0xfedcba9876543210))
			test.DemandSuccess(t, s.Set("pc", 0x8000))
			test.DemandSuccess(t, s.Set("sp", 0x1ff0))

			enc := p.Encode(s)
			test.ExpectEquality(t, len(enc), (4*bits+24)/4, bits, bigEndian)

			dec, err := p.Decode(enc)
			test.DemandSuccess(t, err)
			test.ExpectSuccess(t, dec.Equal(s), bits, bigEndian)
			test.ExpectEquality(t, dec.PC(), uint64(0x8000))
			test.ExpectEquality(t, dec.SP(), uint64(0x1ff0))
		}
	}
}

func TestByteOrder(t *testing.T) {
	le := newProfile(t, 16, false)
	s, err := le.Decode("3412" + "0100" + "000000" + "0080" + "f01f")
	test.DemandSuccess(t, err)
	v, ok := s.Get("a")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, uint64(0x1234))
	test.ExpectEquality(t, s.PC(), uint64(0x8000))

	be := newProfile(t, 16, true)
	s, err = be.Decode("1234" + "0001" + "000000" + "8000" + "1ff0")
	test.DemandSuccess(t, err)
	v, _ = s.Get("a")
	test.ExpectEquality(t, v, uint64(0x1234))
	test.ExpectEquality(t, s.SP(), uint64(0x1ff0))

	enc, err := be.EncodeValue("pc", 0xabcd)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, enc, "abcd")
	enc, err = le.EncodeValue("pc", 0xabcd)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, enc, "cdab")
}

func TestDecodeErrors(t *testing.T) {
	p := newProfile(t, 16, false)

	_, err := p.Decode("0000")
	test.ExpectSuccess(t, curated.Is(err, architecture.DecodeError))

	_, err = p.Decode("zz00" + "0100" + "000000" + "0080" + "f01f")
	test.ExpectSuccess(t, curated.Is(err, architecture.DecodeError))

	// unavailable registers and excess digits
	s, err := p.Decode("xxxx" + "0100" + "000000" + "0080" + "f01f" + "deadbeef")
	test.DemandSuccess(t, err)
	v, _ := s.Get("a")
	test.ExpectEquality(t, v, uint64(0))
	v, _ = s.Get("b")
	test.ExpectEquality(t, v, uint64(1))
}

func TestInvalidDefinitions(t *testing.T) {
	_, err := architecture.NewProfile(architecture.Definition{
		Name:      "nopc",
		Registers: []architecture.Register{{Name: "a"}},
		PC:        "pc",
		SP:        "a",
		Bits:      32,
	})
	test.ExpectSuccess(t, curated.Is(err, architecture.ProfileError))

	_, err = architecture.NewProfile(architecture.Definition{
		Name:      "odd",
		Registers: []architecture.Register{{Name: "a", Bits: 12}},
		PC:        "a",
		SP:        "a",
	})
	test.ExpectFailure(t, err)

	_, err = architecture.NewProfile(architecture.Definition{
		Name:      "dup",
		Registers: []architecture.Register{{Name: "a"}, {Name: "a"}},
		PC:        "a",
		SP:        "a",
		Bits:      32,
	})
	test.ExpectFailure(t, err)
}

func TestSetTruncates(t *testing.T) {
	p := newProfile(t, 16, false)
	s := p.NewSnapshot()
	test.ExpectSuccess(t, s.Set("a", 0x12345))
	v, _ := s.Get("a")
	test.ExpectEquality(t, v, uint64(0x2345))
	test.ExpectSuccess(t, curated.Is(s.Set("zz", 1), architecture.UnknownRegister))
	test.ExpectEquality(t, s.String(), "a=0x2345 b=0x0000 pc=0x0000 sp=0x0000")
}

func TestBuiltin(t *testing.T) {
	p, err := architecture.Lookup("msp430")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p.PC(), "r0")
	test.ExpectEquality(t, p.SP(), "r1")
	test.ExpectEquality(t, p.BreakKind(), 2)
	test.ExpectEquality(t, len(p.Names()), 16)

	p, err = architecture.Lookup("cortexm3")
	test.DemandSuccess(t, err)
	n, ok := p.Number("xpsr")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, n, 25)

	p, err = architecture.Lookup("x86_64")
	test.DemandSuccess(t, err)
	n, _ = p.Number("rip")
	test.ExpectEquality(t, n, 16)
	test.ExpectEquality(t, p.Bits("eflags"), 32)

	_, err = architecture.Lookup("pdp11")
	test.ExpectSuccess(t, curated.Is(err, architecture.UnsupportedTarget))

	for _, name := range architecture.Builtin() {
		test.ExpectSuccess(t, architecture.IsBuiltin(name))
	}

	host, err := architecture.Host()
	if err == nil {
		test.ExpectSuccess(t, architecture.IsBuiltin(host))
	}
}

func TestDisassemble(t *testing.T) {
	p, _ := architecture.Lookup("x86_64")
	s, n := p.Disassemble([]byte{0x90, 0x90}, 0x1000)
	test.ExpectEquality(t, s, "nop")
	test.ExpectEquality(t, n, 1)

	p, _ = architecture.Lookup("aarch64")
	s, n = p.Disassemble([]byte{0x1f, 0x20, 0x03, 0xd5}, 0x1000)
	test.ExpectEquality(t, s, "nop")
	test.ExpectEquality(t, n, 4)

	p, _ = architecture.Lookup("msp430")
	_, n = p.Disassemble([]byte{0x03, 0x43}, 0x1000)
	test.ExpectEquality(t, n, 0)
}
