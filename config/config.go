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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/qdt/c2t/architecture"
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/rsp"
	"github.com/qdt/c2t/supervisor"
)

// Sentinal patterns for errors returned by the config package.
const (
	// the placeholders are the configuration name and the reason
	ConfigError = "config: %s: %v"
)

// Default values for DebugClient fields.
const (
	DefaultTestTimeout = 10 * time.Second
	DefaultBaud        = 115200
)

// DebugClient describes the debug server of the target: its architecture and
// how a program is run on it.
type DebugClient struct {
	// name of the architecture. if the name is not a builtin profile then
	// Regs, PC and RegSize are required
	March string

	// custom register layout. an empty name is a gap in the layout
	Regs      []string
	PC        string
	SP        string
	RegSize   int
	BigEndian bool
	BreakKind int

	// the debug server loads and starts the program itself. the stack
	// pointer is set on loading the program only if SP is specified
	User bool

	// wall clock limit of a single test and the limit of a single RSP
	// exchange
	TestTimeout time.Duration
	RSPTimeout  time.Duration

	// connect over a serial line rather than TCP. the qemu server is not
	// launched
	Serial string
	Baud   int
}

// Config is a single configuration: a target architecture, the debug
// servers of the target and the oracle and the compilers of each.
type Config struct {
	// name of the configuration, taken from the filename
	Name string
	Path string

	RSPTarget      DebugClient
	Qemu           supervisor.DebugServer
	GDBServer      supervisor.DebugServer
	TargetCompiler supervisor.TestBuilder
	OracleCompiler supervisor.TestBuilder

	target *architecture.Profile
	oracle *architecture.Profile
}

func (cfg *Config) String() string {
	return cfg.Name
}

func (cfg *Config) errorf(format string, a ...any) error {
	return curated.Errorf(ConfigError, cfg.Name, fmt.Sprintf(format, a...))
}

// Verify checks the configuration and resolves the architecture profiles.
// Must be called before TargetProfile() or OracleProfile().
func (cfg *Config) Verify() error {
	dc := &cfg.RSPTarget

	if dc.March == "" {
		return cfg.errorf("rsp_target: march is required")
	}

	var err error
	if len(dc.Regs) > 0 {
		cfg.target, err = custom(dc)
		if err != nil {
			return curated.Errorf(ConfigError, cfg.Name, err)
		}
	} else if architecture.IsBuiltin(dc.March) {
		cfg.target, err = architecture.Lookup(dc.March)
		if err != nil {
			return curated.Errorf(ConfigError, cfg.Name, err)
		}
	} else {
		return curated.Errorf(ConfigError, cfg.Name, curated.Errorf(architecture.UnsupportedTarget, dc.March))
	}

	if dc.SP != "" && !cfg.target.Has(dc.SP) {
		return cfg.errorf("rsp_target: sp register %q is not in the layout of %s", dc.SP, dc.March)
	}

	host, err := architecture.Host()
	if err != nil {
		return curated.Errorf(ConfigError, cfg.Name, err)
	}
	cfg.oracle, err = architecture.Lookup(host)
	if err != nil {
		return curated.Errorf(ConfigError, cfg.Name, err)
	}

	if dc.TestTimeout <= 0 {
		dc.TestTimeout = DefaultTestTimeout
	}
	if dc.RSPTimeout <= 0 {
		dc.RSPTimeout = rsp.DefaultTimeout
	}
	if dc.Serial != "" && dc.Baud <= 0 {
		dc.Baud = DefaultBaud
	}

	servers := []struct {
		name string
		ds   supervisor.DebugServer
		need bool
	}{
		{name: "qemu", ds: cfg.Qemu, need: dc.Serial == ""},
		{name: "gdbserver", ds: cfg.GDBServer, need: true},
	}
	for _, s := range servers {
		if !s.need {
			continue
		}
		if err := s.ds.Run.Validate(); err != nil {
			return cfg.errorf("%s: %v", s.name, err)
		}
		if !s.ds.Run.Uses(supervisor.PlaceholderPort) {
			return cfg.errorf("%s: {%s} is not used", s.name, supervisor.PlaceholderPort)
		}
	}

	compilers := []struct {
		name string
		tb   supervisor.TestBuilder
	}{
		{name: "target_compiler", tb: cfg.TargetCompiler},
		{name: "oracle_compiler", tb: cfg.OracleCompiler},
	}
	for _, c := range compilers {
		if len(c.tb.Runs) == 0 {
			return cfg.errorf("%s: no runs", c.name)
		}
		bin := false
		for _, r := range c.tb.Runs {
			if err := r.Validate(); err != nil {
				return cfg.errorf("%s: %v", c.name, err)
			}
			bin = bin || r.Uses(supervisor.PlaceholderBin)
		}
		if !bin {
			return cfg.errorf("%s: {%s} is not used", c.name, supervisor.PlaceholderBin)
		}
	}

	return nil
}

func custom(dc *DebugClient) (*architecture.Profile, error) {
	def := architecture.Definition{
		Name:      dc.March,
		PC:        dc.PC,
		SP:        dc.SP,
		Bits:      dc.RegSize,
		BigEndian: dc.BigEndian,
		BreakKind: dc.BreakKind,
	}
	if def.SP == "" {
		def.SP = def.PC
	}
	for _, r := range dc.Regs {
		def.Registers = append(def.Registers, architecture.Register{Name: r, Bits: dc.RegSize})
	}
	return architecture.NewProfile(def)
}

// TargetProfile returns the architecture profile of the target debug server.
func (cfg *Config) TargetProfile() *architecture.Profile {
	return cfg.target
}

// OracleProfile returns the architecture profile of the oracle debug server.
func (cfg *Config) OracleProfile() *architecture.Profile {
	return cfg.oracle
}

// Find the configuration file for the name. The name may omit the .lua
// extension. The name is looked for as given and then in each of the dirs.
func Find(name string, dirs ...string) (string, error) {
	fn := name
	if !strings.HasSuffix(fn, ".lua") {
		fn += ".lua"
	}

	candidates := []string{fn}
	if !filepath.IsAbs(fn) {
		for _, d := range dirs {
			candidates = append(candidates, filepath.Join(d, fn))
		}
	}

	for _, c := range candidates {
		if exists(c) {
			return c, nil
		}
	}

	return "", curated.Errorf(ConfigError, name, "configuration file doesn't exist")
}
