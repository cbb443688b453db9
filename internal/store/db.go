// Package store provides abstractions and implementations for data persistence
package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that is satisfied by both *sql.DB and *sql.Tx,
// allowing store implementations to run against either a connection pool
// or an open transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
