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

package results

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/qdt/c2t/curated"
)

// DatabaseError is the pattern of all errors returned by the database.
const DatabaseError = "results: %v"

// arbitrary maximum number of entries.
const maxEntries = 100000

const fieldSep = ","
const entrySep = "\n"

const (
	leaderFieldKey int = iota
	leaderFieldID
	numLeaderFields
)

func recordHeader(key int, id string) string {
	return fmt.Sprintf("%05d%s%s", key, fieldSep, id)
}

// Deserialiser creates an Entry from the fields of a record. The leader
// fields are not included.
type Deserialiser func(fields []string) (Entry, error)

// Entry is a record in the database.
type Entry interface {
	// ID returns the string that is used to identify the entry type in
	// the database
	ID() string

	// String should return information about the entry in a human readable
	// format. by contrast, machine readable representation is returned by the
	// Serialise function
	String() string

	// return the Entry data as a list of fields
	Serialise() ([]string, error)
}

// Session keeps track of a database session. The database is a flat file of
// records, one per line.
type Session struct {
	path string

	entries    map[int]Entry
	entryTypes map[string]Deserialiser

	// the next free key
	next int
}

// StartSession starts a new database session. The init function is called
// before the database file is read and should register the expected entry
// types. A database file that does not exist is treated as empty.
func StartSession(path string, init func(*Session) error) (*Session, error) {
	db := &Session{
		path:       path,
		entries:    make(map[int]Entry),
		entryTypes: make(map[string]Deserialiser),
	}

	if init != nil {
		if err := init(db); err != nil {
			return nil, curated.Errorf(DatabaseError, err)
		}
	}

	if err := db.readDBFile(); err != nil {
		return nil, err
	}

	return db, nil
}

// RegisterEntryType tells the database what entries it may expect in the
// database and what to do when it encounters one.
func (db *Session) RegisterEntryType(id string, des Deserialiser) error {
	if _, ok := db.entryTypes[id]; ok {
		return curated.Errorf(DatabaseError, fmt.Sprintf("trying to register a duplicate entry ID [%s]", id))
	}
	db.entryTypes[id] = des
	return nil
}

// EndSession ends the session. If commitChanges is true then the entries are
// written to the database file.
func (db *Session) EndSession(commitChanges bool) error {
	if !commitChanges {
		return nil
	}

	var s strings.Builder
	for _, key := range db.SortedKeyList() {
		ent := db.entries[key]
		ser, err := ent.Serialise()
		if err != nil {
			return curated.Errorf(DatabaseError, err)
		}

		s.WriteString(recordHeader(key, ent.ID()))
		for _, f := range ser {
			s.WriteString(fieldSep)
			s.WriteString(f)
		}
		s.WriteString(entrySep)
	}

	if err := os.WriteFile(db.path, []byte(s.String()), 0o600); err != nil {
		return curated.Errorf(DatabaseError, err)
	}

	return nil
}

func (db *Session) readDBFile() error {
	buffer, err := os.ReadFile(db.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return curated.Errorf(DatabaseError, err)
	}

	lines := strings.Split(string(buffer), entrySep)

	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
		if len(lines[i]) == 0 {
			continue
		}

		fields := strings.Split(lines[i], fieldSep)
		if len(fields) < numLeaderFields {
			return curated.Errorf(DatabaseError, fmt.Sprintf("malformed record at line %d", i+1))
		}

		key, err := strconv.Atoi(fields[leaderFieldKey])
		if err != nil {
			return curated.Errorf(DatabaseError, fmt.Sprintf("invalid key [%s] at line %d", fields[leaderFieldKey], i+1))
		}

		if _, ok := db.entries[key]; ok {
			return curated.Errorf(DatabaseError, fmt.Sprintf("duplicate key [%v] at line %d", key, i+1))
		}

		des, ok := db.entryTypes[fields[leaderFieldID]]
		if !ok {
			return curated.Errorf(DatabaseError, fmt.Sprintf("unrecognised entry type [%s] at line %d", fields[leaderFieldID], i+1))
		}

		ent, err := des(fields[numLeaderFields:])
		if err != nil {
			return curated.Errorf(DatabaseError, fmt.Errorf("line %d: %w", i+1, err))
		}

		db.entries[key] = ent
		db.next = max(db.next, key+1)
	}

	return nil
}

// NumEntries returns the number of entries in the database.
func (db *Session) NumEntries() int {
	return len(db.entries)
}

// SortedKeyList returns a sorted list of database keys.
func (db *Session) SortedKeyList() []int {
	keyList := make([]int, 0, len(db.entries))
	for k := range db.entries {
		keyList = append(keyList, k)
	}
	sort.Ints(keyList)
	return keyList
}

// Add an entry to the db. Returns the key of the new entry.
func (db *Session) Add(ent Entry) (int, error) {
	if len(db.entries) >= maxEntries {
		return 0, curated.Errorf(DatabaseError, fmt.Sprintf("maximum entries exceeded (max %d)", maxEntries))
	}

	key := db.next
	db.next++
	db.entries[key] = ent

	return key, nil
}

// Delete deletes an entry with the specified key.
func (db *Session) Delete(key int) error {
	if _, ok := db.entries[key]; !ok {
		return curated.Errorf(DatabaseError, fmt.Sprintf("key not available (%d)", key))
	}
	delete(db.entries, key)
	return nil
}

// SelectAll calls onSelect for every entry in key order. Selection stops at
// the first error, which is returned.
func (db *Session) SelectAll(onSelect func(key int, ent Entry) error) error {
	for _, key := range db.SortedKeyList() {
		if err := onSelect(key, db.entries[key]); err != nil {
			return err
		}
	}
	return nil
}

// List the entries in key order.
func (db *Session) List(output io.Writer) error {
	if db.NumEntries() == 0 {
		_, err := io.WriteString(output, "database is empty\n")
		return err
	}

	err := db.SelectAll(func(key int, ent Entry) error {
		_, err := fmt.Fprintf(output, "%05d %s\n", key, ent)
		return err
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(output, "Total: %d\n", db.NumEntries())
	return err
}
