// Package db opens the target service's database for the read-side
// queries (snapshot, sweep candidates) and the credential repair pass.
// The schema is owned by the service; socioctl never migrates it.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the target database connection.
type DB struct {
	*sql.DB
	path string
}

// Open opens the target database at the given path and applies pragmas.
func Open(path string) (*DB, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return &DB{DB: database, path: path}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
