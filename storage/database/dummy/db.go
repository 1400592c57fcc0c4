package dummydb

import (
	"sync"

	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/school"
)

// DB is an in-memory store. A single lock guards every table so that
// multi-table writes (cascading deletes) are atomic.
type DB struct {
	sync.RWMutex

	schools    map[int]*school.School
	principals map[int]*principal.Principal
	feedback   map[int]*feedback.Feedback
	meetings   map[int]*meeting.Meeting
	admins     map[int]*account.Admin
	users      map[int]*account.User

	pkCount map[string]int
}

func Open() (*DB, error) {
	db := &DB{}
	db.reset()
	return db, nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.schools = make(map[int]*school.School)
	db.principals = make(map[int]*principal.Principal)
	db.feedback = make(map[int]*feedback.Feedback)
	db.meetings = make(map[int]*meeting.Meeting)
	db.admins = make(map[int]*account.Admin)
	db.users = make(map[int]*account.User)
	db.pkCount = make(map[string]int)
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK(table string) int {
	db.pkCount[table]++
	return db.pkCount[table]
}
