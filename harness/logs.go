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

package harness

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/qdt/c2t/compare"
)

// writeLogs writes the dump log of each side of the case to the logs
// directory of its configuration. For a failed case the divergence report
// and the stop trace graph are written alongside
func (r *Run) writeLogs(tc *TestCase) error {
	dir := filepath.Join(r.opts.LogsDir, tc.Config.Name)

	if err := tc.Log.WriteFiles(dir, tc.Name, true); err != nil {
		return err
	}

	var div *compare.Divergence
	if !errors.As(tc.Err, &div) {
		return nil
	}

	var report strings.Builder
	div.Report(&report)
	if err := os.WriteFile(filepath.Join(dir, tc.Name+".divergence"), []byte(report.String()), 0o644); err != nil {
		return err
	}

	dot := compare.StopTraceDOT(tc.Name, tc.TargetTrace, tc.OracleTrace)
	return os.WriteFile(filepath.Join(dir, tc.Name+".trace.dot"), []byte(dot), 0o644)
}
