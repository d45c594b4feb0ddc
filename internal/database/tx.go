// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"database/sql"
)

// querier abstracts *sql.DB and *sql.Tx so the CRUD helpers serve both
// transactional and direct access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txScope implements Tx over one *sql.Tx.
type txScope struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction. Any error from fn rolls the whole
// transaction back, so a state row and its audit entry never commit
// separately.
func (db *DB) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin transaction", err)
	}
	scope := &txScope{tx: tx}
	if err := fn(scope); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit transaction", err)
	}
	return nil
}
