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
	"runtime"
	"slices"
	"sort"

	"github.com/qdt/c2t/curated"
)

// UnsupportedTarget is returned by Lookup() for an unknown architecture name.
const UnsupportedTarget = "unsupported GDB RSP target: %s"

func named(prefix string, n int) []Register {
	r := make([]Register, n)
	for i := range r {
		r[i].Name = fmt.Sprintf("%s%d", prefix, i)
	}
	return r
}

func regs(names ...string) []Register {
	r := make([]Register, len(names))
	for i := range names {
		r[i].Name = names[i]
	}
	return r
}

// the legacy ARM stub layout. eight FPA registers of 96 bits each sit
// between the core registers and the status registers
func armLayout(status string) []Register {
	r := append(named("r", 13), regs("sp", "lr", "pc")...)
	for range 8 {
		r = append(r, Register{Bits: 96})
	}
	return append(r, regs("fps", status)...)
}

var definitions = map[string]Definition{
	"msp430": {
		Name:      "msp430",
		Registers: named("r", 16),
		PC:        "r0",
		SP:        "r1",
		Bits:      16,
		BreakKind: 2,
	},
	"cortexm3": {
		Name:      "cortexm3",
		Registers: armLayout("xpsr"),
		PC:        "pc",
		SP:        "sp",
		Bits:      32,
		BreakKind: 2,
	},
	"arm": {
		Name:      "arm",
		Registers: armLayout("cpsr"),
		PC:        "pc",
		SP:        "sp",
		Bits:      32,
		Disasm:    DisasmARM,
	},
	"aarch64": {
		Name:      "aarch64",
		Registers: append(append(named("x", 31), regs("sp", "pc")...), Register{Name: "cpsr", Bits: 32}),
		PC:        "pc",
		SP:        "sp",
		Bits:      64,
		Disasm:    DisasmARM64,
	},
	"i386": {
		Name:      "i386",
		Registers: regs("eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi", "eip", "eflags", "cs", "ss", "ds", "es", "fs", "gs"),
		PC:        "eip",
		SP:        "esp",
		Bits:      32,
		BreakKind: 1,
		Disasm:    DisasmI386,
	},
	"x86_64": {
		Name: "x86_64",
		Registers: append(
			append(regs("rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp"), named("r", 16)[8:]...),
			Register{Name: "rip"},
			Register{Name: "eflags", Bits: 32},
			Register{Name: "cs", Bits: 32},
			Register{Name: "ss", Bits: 32},
			Register{Name: "ds", Bits: 32},
			Register{Name: "es", Bits: 32},
			Register{Name: "fs", Bits: 32},
			Register{Name: "gs", Bits: 32},
		),
		PC:        "rip",
		SP:        "rsp",
		Bits:      64,
		BreakKind: 1,
		Disasm:    DisasmX86_64,
	},
}

// builtin profiles are validated once and shared
var builtin = map[string]*Profile{}

func init() {
	for name, def := range definitions {
		p, err := NewProfile(def)
		if err != nil {
			panic(err)
		}
		builtin[name] = p
	}
}

// Lookup returns the built-in profile for the architecture name.
func Lookup(name string) (*Profile, error) {
	if p, ok := builtin[name]; ok {
		return p, nil
	}
	return nil, curated.Errorf(UnsupportedTarget, name)
}

// Builtin returns the names of the built-in profiles in alphabetical order.
func Builtin() []string {
	n := make([]string, 0, len(builtin))
	for k := range builtin {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Host returns the name of the profile for the machine c2t is running on. The
// oracle toolchain builds for this machine.
func Host() (string, error) {
	hosts := map[string]string{
		"amd64": "x86_64",
		"386":   "i386",
		"arm64": "aarch64",
		"arm":   "arm",
	}
	if n, ok := hosts[runtime.GOARCH]; ok {
		return n, nil
	}
	return "", curated.Errorf(UnsupportedTarget, runtime.GOARCH)
}

// IsBuiltin returns true if the name is one of the built-in profiles.
func IsBuiltin(name string) bool {
	return slices.Contains(Builtin(), name)
}
