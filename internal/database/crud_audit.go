// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gridsentry/gridsentry/internal/models"
)

const auditColumns = `seq, ts, actor_id, actor_role, action, resource_type,
	resource_id, result, detail, prev_hash, hash`

func appendAudit(ctx context.Context, q querier, e models.AuditEntry) error {
	_, err := q.ExecContext(ctx, `INSERT INTO audit_log (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.Timestamp, e.ActorID, e.ActorRole, e.Action,
		e.ResourceType, e.ResourceID, string(e.Result),
		nullStr(e.Detail), e.PrevHash, e.Hash)
	if err != nil {
		return persistErr("append audit", err)
	}
	return nil
}

func scanAudit(row rowScanner) (*models.AuditEntry, error) {
	var (
		e      models.AuditEntry
		result string
		detail sql.NullString
	)
	err := row.Scan(&e.Seq, &e.Timestamp, &e.ActorID, &e.ActorRole, &e.Action,
		&e.ResourceType, &e.ResourceID, &result, &detail, &e.PrevHash, &e.Hash)
	if err != nil {
		return nil, err
	}
	e.Result = models.AuditResult(result)
	e.Detail = detail.String
	// The chain hashes timestamps in UTC; DuckDB returns naive timestamps.
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

func (db *DB) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	return appendAudit(ctx, db.conn, e)
}

func (s *txScope) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	return appendAudit(ctx, s.tx, e)
}

func (db *DB) LastAudit(ctx context.Context) (*models.AuditEntry, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audit_log
		ORDER BY seq DESC LIMIT 1`)
	e, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("last audit", err)
	}
	return e, nil
}

func (db *DB) LastAuditSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(seq) FROM audit_log`).Scan(&seq)
	if err != nil {
		return 0, persistErr("last audit seq", err)
	}
	return seq.Int64, nil
}

func (db *DB) AuditRange(ctx context.Context, from, to int64) ([]models.AuditEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+auditColumns+` FROM audit_log
		WHERE seq >= ? AND seq <= ? ORDER BY seq`, from, to)
	if err != nil {
		return nil, persistErr("audit range", err)
	}
	defer closeQuietly(rows)

	var out []models.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, persistErr("scan audit", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("audit range", err)
	}
	return out, nil
}
