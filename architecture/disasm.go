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
	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// List of valid disassembly modes.
const (
	DisasmNone   = ""
	DisasmX86_64 = "x86_64"
	DisasmI386   = "i386"
	DisasmARM    = "arm"
	DisasmARM64  = "aarch64"
)

// CodeLength is the number of bytes that should be read from memory to be
// sure of disassembling one instruction.
const CodeLength = 16

// Disassemble the first instruction in code, which was read from address pc.
// Returns the instruction in GNU syntax and its length in bytes. The length
// is zero if the profile has no disassembly mode or the bytes do not decode.
func (p *Profile) Disassemble(code []byte, pc uint64) (string, int) {
	switch p.disasm {
	case DisasmX86_64, DisasmI386:
		mode := 64
		if p.disasm == DisasmI386 {
			mode = 32
		}
		inst, err := x86asm.Decode(code, mode)
		if err != nil {
			return "", 0
		}
		return x86asm.GNUSyntax(inst, pc, nil), inst.Len

	case DisasmARM:
		inst, err := armasm.Decode(code, armasm.ModeARM)
		if err != nil {
			return "", 0
		}
		return armasm.GNUSyntax(inst), inst.Len

	case DisasmARM64:
		inst, err := arm64asm.Decode(code)
		if err != nil {
			return "", 0
		}
		return arm64asm.GNUSyntax(inst), 4
	}

	return "", 0
}
