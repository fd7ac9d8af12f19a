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

package version_test

import (
	"strings"
	"testing"

	"github.com/qdt/c2t/test"
	"github.com/qdt/c2t/version"
)

func TestVersion(t *testing.T) {
	inf := version.Version()
	test.ExpectFailure(t, inf.Release())
	test.ExpectSuccess(t, inf.Number == "local" || inf.Number == "unreleased")
	test.ExpectSuccess(t, strings.HasPrefix(inf.String(), "c2t "+inf.Number+" ("))
}

func TestString(t *testing.T) {
	inf := version.Info{Number: "unreleased", Revision: "abc123", Modified: true, Go: "go1.25.4"}
	test.ExpectEquality(t, inf.String(), "c2t unreleased (abc123+dirty, go1.25.4)")

	inf = version.Info{Number: "local"}
	test.ExpectEquality(t, inf.String(), "c2t local (no revision information)")
}
