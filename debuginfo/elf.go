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

package debuginfo

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"io"
	"path/filepath"
	"slices"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
)

// ELFError is returned when the debugging information in a program cannot
// be read.
const ELFError = "debuginfo: %s: %v"

// ELF is a Program implementation for ELF files with DWARF debugging data.
type ELF struct {
	path string

	// addresses indexed by the full path of the source file and by its base
	// name, and then by line number
	full map[string]map[int][]uint64
	base map[string]map[int][]uint64

	symbols  map[string]elf.Symbol
	segments []Segment
}

// Open an ELF file and read its line table, symbol table and loadable
// segments.
func Open(path string) (*ELF, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, curated.Errorf(ELFError, path, err)
	}
	defer f.Close()

	e := &ELF{
		path:    path,
		full:    make(map[string]map[int][]uint64),
		base:    make(map[string]map[int][]uint64),
		symbols: make(map[string]elf.Symbol),
	}

	d, err := f.DWARF()
	if err != nil {
		return nil, curated.Errorf(ELFError, path, err)
	}
	if err := e.readLines(d); err != nil {
		return nil, curated.Errorf(ELFError, path, err)
	}

	symbols, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, curated.Errorf(ELFError, path, err)
	}
	for _, s := range symbols {
		if s.Name != "" && elf.ST_TYPE(s.Info) != elf.STT_FILE && elf.ST_TYPE(s.Info) != elf.STT_SECTION {
			e.symbols[s.Name] = s
		}
	}

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Filesz == 0 {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
			return nil, curated.Errorf(ELFError, path, err)
		}
		addr := p.Paddr
		if addr == 0 {
			addr = p.Vaddr
		}
		e.segments = append(e.segments, Segment{Addr: addr, Data: data})
	}

	return e, nil
}

// readLines collects the first address of every run of line entries for the
// same line. these are the addresses a debugger would stop at for the line
func (e *ELF) readLines(d *dwarf.Data) error {
	r := d.Reader()
	for {
		ent, err := r.Next()
		if err != nil {
			return err
		}
		if ent == nil {
			break
		}

		// only the compile units are interesting
		r.SkipChildren()
		if ent.Tag != dwarf.TagCompileUnit {
			continue
		}

		lr, err := d.LineReader(ent)
		if err != nil {
			return err
		}
		if lr == nil {
			continue
		}

		var le dwarf.LineEntry
		var prevFile string
		prevLine := -1
		for {
			err := lr.Next(&le)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return err
			}

			if le.EndSequence {
				prevLine = -1
				continue
			}
			if le.File == nil || !le.IsStmt {
				continue
			}
			if le.Line == prevLine && le.File.Name == prevFile {
				continue
			}
			prevLine = le.Line
			prevFile = le.File.Name

			e.add(le.File.Name, le.Line, le.Address)
		}
	}

	logger.Logf(logger.Allow, "debuginfo", "%s: line table for %d files", e.path, len(e.full))

	return nil
}

func (e *ELF) add(file string, line int, addr uint64) {
	for _, m := range []struct {
		idx map[string]map[int][]uint64
		key string
	}{
		{idx: e.full, key: filepath.Clean(file)},
		{idx: e.base, key: filepath.Base(file)},
	} {
		lines, ok := m.idx[m.key]
		if !ok {
			lines = make(map[int][]uint64)
			m.idx[m.key] = lines
		}
		if !slices.Contains(lines[line], addr) {
			lines[line] = append(lines[line], addr)
			slices.Sort(lines[line])
		}
	}
}

// Addresses implements the LineTable interface. The file is matched by its
// full path if possible and by its base name otherwise.
func (e *ELF) Addresses(file string, line int) []uint64 {
	if abs, err := filepath.Abs(file); err == nil {
		if lines, ok := e.full[abs]; ok {
			return lines[line]
		}
	}
	if lines, ok := e.full[filepath.Clean(file)]; ok {
		return lines[line]
	}
	return e.base[filepath.Base(file)][line]
}

// Symbol implements the Symbols interface.
func (e *ELF) Symbol(name string) (uint64, uint64, bool) {
	s, ok := e.symbols[name]
	if !ok {
		return 0, 0, false
	}
	return s.Value, s.Size, true
}

// Segments implements the Program interface.
func (e *ELF) Segments() ([]Segment, error) {
	return e.segments, nil
}
