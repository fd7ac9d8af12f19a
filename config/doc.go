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

// Package config loads c2t configuration files. A configuration is a Lua
// script that declares the target architecture, the debug servers and the
// compilers of a test run. For example:
//
//	frontend = Run{
//		executable = "/usr/bin/clang",
//		args = "-g -O0 -emit-llvm -c {src} -o {ir}.bc",
//	}
//
//	cfg = C2TConfig{
//		rsp_target = DebugClient{march = "cortexm3", sp = "sp"},
//		qemu = DebugServer(Run{
//			executable = "/usr/bin/qemu-system-arm",
//			args = "-M netduino2 -kernel {bin} -gdb tcp:localhost:{port} -S -nographic",
//		}),
//		gdbserver = DebugServer(Run{
//			executable = "/usr/bin/gdbserver",
//			args = "localhost:{port} {bin}",
//		}),
//		target_compiler = TestBuilder(frontend, Run{
//			executable = "/usr/bin/llc",
//			args = "-O0 -march=thumb -mcpu=cortex-m3 -filetype=obj {ir}.bc -o {bin}",
//		}),
//		oracle_compiler = TestBuilder(frontend, Run{
//			executable = "/usr/bin/clang",
//			args = "{ir}.bc -o {bin}",
//		}),
//	}
//
// The name of the global variable holding the C2TConfig does not matter but
// there must be exactly one. Timeouts in DebugClient are in seconds.
package config
