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

// Package version reports the build of c2t. The release number is set by
// the linker:
//
//	go build -ldflags "-X github.com/qdt/c2t/version.number=v1.2"
//
// Builds without a release number are identified by their VCS revision.
package version

import (
	"fmt"
	"runtime/debug"
)

// ApplicationName is used when referring to the program in output.
const ApplicationName = "c2t"

var number string

// Info describes the build of the running program.
type Info struct {
	// release number. "unreleased" for a build from a VCS checkout and
	// "local" if there is no VCS information either
	Number string

	Revision string
	Modified bool

	// version of the Go toolchain
	Go string
}

// Release returns true if the build has a release number.
func (inf Info) Release() bool {
	return number != "" && inf.Number == number
}

func (inf Info) String() string {
	if inf.Release() {
		return fmt.Sprintf("%s %s", ApplicationName, inf.Number)
	}
	rev := inf.Revision
	if rev == "" {
		rev = "no revision information"
	} else if inf.Modified {
		rev += "+dirty"
	}
	if inf.Go != "" {
		rev += ", " + inf.Go
	}
	return fmt.Sprintf("%s %s (%s)", ApplicationName, inf.Number, rev)
}

// Version returns the build information of the running program.
func Version() Info {
	inf := Info{Number: number}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if inf.Number == "" {
			inf.Number = "local"
		}
		return inf
	}

	inf.Go = bi.GoVersion

	vcs := false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs":
			vcs = true
		case "vcs.revision":
			inf.Revision = s.Value
		case "vcs.modified":
			inf.Modified = s.Value == "true"
		}
	}

	if inf.Number == "" {
		if vcs {
			inf.Number = "unreleased"
		} else {
			inf.Number = "local"
		}
	}

	return inf
}
