// Package store is the hand-written query layer over the sqlite schema.
// Queries is usable with either a *sql.DB or a *sql.Tx via the DBTX
// interface, so the same methods serve both plain reads and transactional
// read-then-write sequences.
package store

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}
