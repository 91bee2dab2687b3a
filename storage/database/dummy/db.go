package dummydb

import (
	"sync"

	"github.com/trezcool/masomo-admin/core/user"
)

type (
	// DB is an in-memory database, used in tests and when no database engine is configured.
	DB struct {
		mu     sync.Mutex
		tables map[string]*table
		user   *userTable
	}

	// table holds the rows of a resource keyed by tenant then ID.
	table struct {
		sync.RWMutex
		rows map[string]map[string]interface{}
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
)

func Open() (*DB, error) {
	db := &DB{
		tables: make(map[string]*table),
		user:   &userTable{table: make(map[string]*user.User)},
	}
	return db, nil
}

func (db *DB) table(name string) *table {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[name]
	if !ok {
		t = &table{rows: make(map[string]map[string]interface{})}
		db.tables[name] = t
	}
	return t
}
