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

package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/qdt/c2t/paths"
	"github.com/qdt/c2t/test"
)

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("C2T_WORK", dir)

	test.ExpectEquality(t, paths.ResourcePath(), dir)
	test.ExpectEquality(t, paths.ResourcePath("msp430", "bin"), filepath.Join(dir, "msp430", "bin"))

	p, err := paths.MkResourcePath("logs")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, filepath.Join(dir, "logs"))
}
