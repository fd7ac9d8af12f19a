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

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/config"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/test"
)

const sample = `
frontend = Run{
	executable = "/usr/bin/clang",
	args = "-g -O0 -emit-llvm -c {src} -o {ir}.bc",
}

cfg = C2TConfig{
	rsp_target = DebugClient{
		march = "cortexm3",
		sp = "sp",
		test_timeout = 2.5,
	},
	qemu = DebugServer(Run{
		executable = "/usr/bin/qemu-system-arm",
		args = "-M netduino2 -kernel {bin} -gdb tcp:localhost:{port} -S",
	}),
	gdbserver = DebugServer(Run{
		executable = "/usr/bin/gdbserver",
		args = "localhost:{port} {bin}",
	}),
	target_compiler = TestBuilder(frontend, Run{
		executable = "/usr/bin/llc",
		args = "-O0 -march=thumb -filetype=obj {ir}.bc -o {bin}",
	}),
	oracle_compiler = TestBuilder(frontend, Run{
		executable = "/usr/bin/clang",
		args = "{ir}.bc -o {bin}",
	}),
}
`

func TestLoad(t *testing.T) {
	cfg, err := config.LoadString("cortexm3", sample)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, cfg.Name, "cortexm3")
	test.ExpectEquality(t, cfg.RSPTarget.March, "cortexm3")
	test.ExpectEquality(t, cfg.RSPTarget.SP, "sp")
	test.ExpectEquality(t, cfg.RSPTarget.TestTimeout, 2500*time.Millisecond)
	test.ExpectSuccess(t, cfg.RSPTarget.RSPTimeout > 0)
	test.ExpectFailure(t, cfg.RSPTarget.User)

	test.ExpectEquality(t, cfg.Qemu.Run.Executable, "/usr/bin/qemu-system-arm")
	test.ExpectEquality(t, cfg.GDBServer.Run.Args, "localhost:{port} {bin}")
	test.ExpectEquality(t, len(cfg.TargetCompiler.Runs), 2)
	test.ExpectEquality(t, len(cfg.OracleCompiler.Runs), 2)
	test.ExpectEquality(t, cfg.OracleCompiler.Runs[0].Executable, "/usr/bin/clang")

	test.ExpectEquality(t, cfg.TargetProfile().Name(), "cortexm3")
	host, err := architecture.Host()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cfg.OracleProfile().Name(), host)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "m3.lua")
	test.DemandSuccess(t, os.WriteFile(fn, []byte(sample), 0o644))

	p, err := config.Find("m3", dir)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p, fn)

	cfg, err := config.Load(p)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cfg.Name, "m3")
	test.ExpectEquality(t, cfg.TargetCompiler.Dir, dir)

	_, err = config.Find("missing", dir)
	test.ExpectSuccess(t, curated.Is(err, config.ConfigError))
}

func TestCustomProfile(t *testing.T) {
	src := strings.Replace(sample, `march = "cortexm3",`, `march = "arm926",
		regs = {"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8",
			"r9", "r10", "r11", "r12", "sp", "lr", "pc", "xpsr"},
		pc = "pc",
		regsize = 32,`, 1)

	cfg, err := config.LoadString("arm926", src)
	test.DemandSuccess(t, err)
	p := cfg.TargetProfile()
	test.ExpectEquality(t, p.Name(), "arm926")
	test.ExpectEquality(t, p.PC(), "pc")
	test.ExpectEquality(t, p.SP(), "sp")
	test.ExpectEquality(t, len(p.Names()), 17)
}

func TestUnsupportedTarget(t *testing.T) {
	src := strings.Replace(sample, `march = "cortexm3",`, `march = "z80",`, 1)
	_, err := config.LoadString("z80", src)
	test.ExpectSuccess(t, curated.Is(err, config.ConfigError))
	test.ExpectSuccess(t, curated.Has(err, architecture.UnsupportedTarget))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "unsupported GDB RSP target: z80"))
}

func TestBinNotUsed(t *testing.T) {
	src := strings.Replace(sample, `args = "{ir}.bc -o {bin}",`, `args = "{ir}.bc -o a.out",`, 1)
	_, err := config.LoadString("nobin", src)
	test.ExpectSuccess(t, curated.Is(err, config.ConfigError))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "oracle_compiler: {bin} is not used"))
}

func TestMalformed(t *testing.T) {
	cases := map[string]string{
		"syntax":         `cfg = C2TConfig{`,
		"none":           `x = 1`,
		"missing field":  strings.Replace(sample, `gdbserver = DebugServer`, `gdbserverx = DebugServer`, 1),
		"wrong type":     strings.Replace(sample, `test_timeout = 2.5`, `test_timeout = "long"`, 1),
		"not a run":      strings.Replace(sample, `TestBuilder(frontend,`, `TestBuilder("clang",`, 1),
		"bad template":   strings.Replace(sample, `{src}`, `{source}`, 1),
		"port not used":  strings.Replace(sample, `localhost:{port} {bin}`, `localhost:1234 {bin}`, 1),
		"no executable":  strings.Replace(sample, `executable = "/usr/bin/llc",`, ``, 1),
		"custom no size": strings.Replace(sample, `march = "cortexm3",`, `march = "x", regs = {"a", "b"}, pc = "a",`, 1),
	}

	for name, src := range cases {
		_, err := config.LoadString(name, src)
		test.ExpectSuccess(t, curated.Is(err, config.ConfigError), name)
	}
}

func TestDuplicateConfig(t *testing.T) {
	// the same configuration under two names is not a duplicate
	_, err := config.LoadString("alias", sample+"\nother = cfg\n")
	test.ExpectSuccess(t, err)

	_, err = config.LoadString("dup", sample+strings.Replace(sample, "cfg =", "cfg2 =", 1))
	test.ExpectSuccess(t, curated.Is(err, config.ConfigError))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "more than one"))
}
