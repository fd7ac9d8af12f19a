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

// Package results stores the outcome of test runs. The database is a very
// simple way of storing structured entries in what is essentially a flat
// file:
//
//	db, _ := results.StartSession(path, results.Init)
//	db.Add(&results.Result{Config: "cortexm3", Test: "loop.c", Status: "passed"})
//	db.EndSession(true)
//
// Each line of the file is a record. The first field is the key and the
// second field is the entry type. The remaining fields are passed to the
// Deserialiser registered for the entry type.
//
// The fails list is a separate file containing the keys of the tests that
// failed in the most recent run. It is used to rerun only those tests.
package results
