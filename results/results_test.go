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

package results_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/results"
	"github.com/qdt/c2t/test"
)

func TestDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	db, err := results.StartSession(path, results.Init)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.NumEntries(), 0)

	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	k, err := db.Add(&results.Result{
		Time: when, Config: "cortexm3", Test: "loop.c",
		Status: "passed", Checks: 12, Duration: 1500 * time.Millisecond,
	})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, k, 0)

	k, err = db.Add(&results.Result{
		Time: when, Config: "cortexm3", Test: "branch.c",
		Status: "failed", Checks: 3, Duration: time.Second,
		Reason: "divergence: branch instruction error, line 4\nmore detail",
	})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, k, 1)

	test.DemandSuccess(t, db.EndSession(true))

	db, err = results.StartSession(path, results.Init)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.NumEntries(), 2)

	var got []*results.Result
	err = db.SelectAll(func(_ int, ent results.Entry) error {
		got = append(got, ent.(*results.Result))
		return nil
	})
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(got), 2)

	test.ExpectEquality(t, got[0].Test, "loop.c")
	test.ExpectEquality(t, got[0].Checks, 12)
	test.ExpectEquality(t, got[0].Duration, 1500*time.Millisecond)
	test.ExpectSuccess(t, got[0].Time.Equal(when))

	// separators in the reason survive, anything after a newline does not
	test.ExpectEquality(t, got[1].Reason, "divergence: branch instruction error, line 4")
	test.ExpectEquality(t, got[1].Key(), "cortexm3:branch.c")

	// new keys follow on from the existing keys
	test.ExpectSuccess(t, db.Delete(0))
	test.ExpectFailure(t, db.Delete(0))
	k, err = db.Add(&results.Result{Time: when, Config: "c", Test: "t", Status: "passed"})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, k, 2)

	var b strings.Builder
	test.ExpectSuccess(t, db.List(&b))
	test.ExpectSuccess(t, strings.HasSuffix(b.String(), "Total: 2\n"))
	test.ExpectSuccess(t, strings.HasPrefix(b.String(), "00001 [cortexm3] branch.c: failed"))

	// uncommitted changes are lost
	test.DemandSuccess(t, db.EndSession(false))
	db, err = results.StartSession(path, results.Init)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.NumEntries(), 2)
}

func TestDatabaseErrors(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.db")
	test.DemandSuccess(t, os.WriteFile(path, []byte("00000,unknown,x\n"), 0o600))
	_, err := results.StartSession(path, results.Init)
	test.ExpectSuccess(t, curated.Is(err, results.DatabaseError))

	test.DemandSuccess(t, os.WriteFile(path, []byte("zz,result\n"), 0o600))
	_, err = results.StartSession(path, results.Init)
	test.ExpectFailure(t, err)

	test.DemandSuccess(t, os.WriteFile(path, []byte("00000,result,short\n"), 0o600))
	_, err = results.StartSession(path, results.Init)
	test.ExpectFailure(t, err)

	_, err = results.StartSession(path, func(db *results.Session) error {
		_ = results.Init(db)
		return results.Init(db)
	})
	test.ExpectSuccess(t, curated.Is(err, results.DatabaseError))

	db, err := results.StartSession(filepath.Join(dir, "empty.db"), results.Init)
	test.DemandSuccess(t, err)
	var b strings.Builder
	test.ExpectSuccess(t, db.List(&b))
	test.ExpectEquality(t, b.String(), "database is empty\n")
}

func TestFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fails")

	keys, err := results.LoadFails(path)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(keys), 0)

	err = results.SaveFails(path, []string{"b:two.c", "a:one.c", "b:two.c", "b:three.c"})
	test.DemandSuccess(t, err)

	keys, err = results.LoadFails(path)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, strings.Join(keys, " "), "a:one.c b:three.c b:two.c")

	tests, err := results.PreviousFails(path, "b")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, strings.Join(tests, " "), "three.c two.c")

	_, err = results.PreviousFails(path, "c")
	test.ExpectSuccess(t, errors.Is(err, results.ErrNoPreviousFails))

	// an empty list removes the file
	test.DemandSuccess(t, results.SaveFails(path, nil))
	_, err = os.Stat(path)
	test.ExpectSuccess(t, os.IsNotExist(err))
}
