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

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
	"github.com/qdt/c2t/supervisor"
)

// Load a configuration from a Lua file. The file must create exactly one
// C2TConfig. The configuration is verified before being returned.
func Load(path string) (*Config, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, curated.Errorf(ConfigError, name, err)
	}

	cfg, err := load(name, path, string(b))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadString is the same as Load() except that the configuration is read
// from a string.
func LoadString(name string, source string) (*Config, error) {
	return load(name, "", source)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func load(name string, path string, source string) (*Config, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// only the base and string libraries are required by configurations
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	L.SetGlobal("Run", L.NewFunction(luaRun))
	L.SetGlobal("DebugClient", L.NewFunction(luaDebugClient))
	L.SetGlobal("DebugServer", L.NewFunction(luaDebugServer))
	L.SetGlobal("TestBuilder", L.NewFunction(luaTestBuilder))
	L.SetGlobal("C2TConfig", L.NewFunction(luaC2TConfig))

	if err := L.DoString(source); err != nil {
		return nil, curated.Errorf(ConfigError, name, err)
	}

	var found []*Config
	L.G.Global.ForEach(func(k lua.LValue, v lua.LValue) {
		if ud, ok := v.(*lua.LUserData); ok {
			if cfg, ok := ud.Value.(*Config); ok && !slices.Contains(found, cfg) {
				logger.Logf(logger.Allow, "config", "%s: found C2TConfig %s", name, k)
				found = append(found, cfg)
			}
		}
	})

	switch len(found) {
	case 0:
		return nil, curated.Errorf(ConfigError, name, "no C2TConfig instance was defined by the config")
	case 1:
	default:
		return nil, curated.Errorf(ConfigError, name, "more than one C2TConfig instance was defined by the config")
	}

	cfg := found[0]
	cfg.Name = name
	cfg.Path = path
	if path != "" {
		dir := filepath.Dir(path)
		cfg.TargetCompiler.Dir = dir
		cfg.OracleCompiler.Dir = dir
	}
	cfg.TargetCompiler.Name = "target_compiler"
	cfg.OracleCompiler.Name = "oracle_compiler"
	cfg.Qemu.Name = "qemu"
	cfg.GDBServer.Name = "gdbserver"

	if err := cfg.Verify(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func userData[T any](L *lua.LState, v T) int {
	ud := L.NewUserData()
	ud.Value = v
	L.Push(ud)
	return 1
}

// checkUserData raises a Lua error if argument n is not user data of type T
func checkUserData[T any](L *lua.LState, n int, what string) T {
	ud := L.CheckUserData(n)
	v, ok := ud.Value.(T)
	if !ok {
		L.ArgError(n, what+" expected")
	}
	return v
}

func field(L *lua.LState, tbl *lua.LTable, key string, want lua.LValueType, required bool) lua.LValue {
	v := tbl.RawGetString(key)
	if v == lua.LNil {
		if required {
			L.RaiseError("field %q is required", key)
		}
		return v
	}
	if v.Type() != want {
		L.RaiseError("field %q must be a %s not a %s", key, want, v.Type())
	}
	return v
}

func stringField(L *lua.LState, tbl *lua.LTable, key string, required bool) string {
	v := field(L, tbl, key, lua.LTString, required)
	if v == lua.LNil {
		return ""
	}
	return lua.LVAsString(v)
}

func intField(L *lua.LState, tbl *lua.LTable, key string) int {
	v := field(L, tbl, key, lua.LTNumber, false)
	if v == lua.LNil {
		return 0
	}
	return int(lua.LVAsNumber(v))
}

func boolField(L *lua.LState, tbl *lua.LTable, key string) bool {
	v := field(L, tbl, key, lua.LTBool, false)
	return lua.LVAsBool(v)
}

func durationField(L *lua.LState, tbl *lua.LTable, key string) time.Duration {
	v := field(L, tbl, key, lua.LTNumber, false)
	if v == lua.LNil {
		return 0
	}
	return time.Duration(float64(lua.LVAsNumber(v)) * float64(time.Second))
}

// Run{executable = "...", args = "..."}
func luaRun(L *lua.LState) int {
	tbl := L.CheckTable(1)
	r := &supervisor.Run{
		Executable: stringField(L, tbl, "executable", true),
		Args:       stringField(L, tbl, "args", false),
	}
	return userData(L, r)
}

// DebugClient{march = "...", ...}
func luaDebugClient(L *lua.LState) int {
	tbl := L.CheckTable(1)
	dc := &DebugClient{
		March:       stringField(L, tbl, "march", true),
		PC:          stringField(L, tbl, "pc", false),
		SP:          stringField(L, tbl, "sp", false),
		RegSize:     intField(L, tbl, "regsize"),
		BigEndian:   boolField(L, tbl, "big_endian"),
		BreakKind:   intField(L, tbl, "break_kind"),
		User:        boolField(L, tbl, "user"),
		TestTimeout: durationField(L, tbl, "test_timeout"),
		RSPTimeout:  durationField(L, tbl, "rsp_timeout"),
		Serial:      stringField(L, tbl, "serial", false),
		Baud:        intField(L, tbl, "baud"),
	}

	if regs := field(L, tbl, "regs", lua.LTTable, false); regs != lua.LNil {
		t := regs.(*lua.LTable)
		for i := 1; i <= t.Len(); i++ {
			r := t.RawGetInt(i)
			if r.Type() != lua.LTString {
				L.RaiseError("regs[%d] must be a string", i)
			}
			dc.Regs = append(dc.Regs, lua.LVAsString(r))
		}
		if dc.PC == "" || dc.RegSize == 0 {
			L.RaiseError("custom register layout requires pc and regsize")
		}
	}

	return userData(L, dc)
}

// DebugServer(Run{...})
func luaDebugServer(L *lua.LState) int {
	r := checkUserData[*supervisor.Run](L, 1, "Run")
	return userData(L, &supervisor.DebugServer{Run: *r})
}

// TestBuilder(Run{...}, Run{...}, ...)
func luaTestBuilder(L *lua.LState) int {
	tb := &supervisor.TestBuilder{}
	for i := 1; i <= L.GetTop(); i++ {
		r := checkUserData[*supervisor.Run](L, i, "Run")
		tb.Runs = append(tb.Runs, *r)
	}
	return userData(L, tb)
}

// C2TConfig{rsp_target = ..., qemu = ..., gdbserver = ..., target_compiler =
// ..., oracle_compiler = ...}
func luaC2TConfig(L *lua.LState) int {
	tbl := L.CheckTable(1)

	cfg := &Config{}

	get := func(key string, required bool) any {
		v := tbl.RawGetString(key)
		if v == lua.LNil {
			if required {
				L.RaiseError("field %q is required", key)
			}
			return nil
		}
		ud, ok := v.(*lua.LUserData)
		if !ok {
			L.RaiseError("field %q has the wrong type", key)
		}
		return ud.Value
	}

	must := func(key string, ok bool) {
		if !ok {
			L.RaiseError("field %q has the wrong type", key)
		}
	}

	dc, ok := get("rsp_target", true).(*DebugClient)
	must("rsp_target", ok)
	cfg.RSPTarget = *dc

	if v := get("qemu", cfg.RSPTarget.Serial == ""); v != nil {
		ds, ok := v.(*supervisor.DebugServer)
		must("qemu", ok)
		cfg.Qemu = *ds
	}

	ds, ok := get("gdbserver", true).(*supervisor.DebugServer)
	must("gdbserver", ok)
	cfg.GDBServer = *ds

	tb, ok := get("target_compiler", true).(*supervisor.TestBuilder)
	must("target_compiler", ok)
	cfg.TargetCompiler = *tb

	tb, ok = get("oracle_compiler", true).(*supervisor.TestBuilder)
	must("oracle_compiler", ok)
	cfg.OracleCompiler = *tb

	return userData(L, cfg)
}
