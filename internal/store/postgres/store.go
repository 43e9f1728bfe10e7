// Package postgres backs the repository interfaces with SQL. Semantics
// mirror the memory store; swapping drivers must not change observable
// behavior.
package postgres

import "database/sql"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
