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

// Package architecture describes the register schema of the machines c2t
// tests: the order and width of registers in a GDB register dump, which
// registers are the program counter and stack pointer, and the byte order.
//
// Profiles are immutable once created by NewProfile(). Built-in profiles are
// available through Lookup(). Custom profiles can be declared in the
// configuration file.
//
// A register dump (the reply to a g packet) is decoded into a Snapshot:
//
//	p, _ := architecture.Lookup("msp430")
//	s, err := p.Decode(payload)
//	fmt.Println(s.PC())
//
// Encode() is the inverse of Decode() and the two are lossless for every
// named register.
package architecture
