// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

const alertColumns = `id, detection_id, threat_level, threat_score, grid_reference,
	object_type, object_count, status, acknowledged_at, acknowledged_by,
	dispatched_at, dispatched_by, resolved_at, resolved_by, archived_at, archived_by,
	resolution_notes, false_alarm, recommended_actions, created_at`

func insertAlert(ctx context.Context, q querier, a *models.Alert) error {
	actions, err := json.Marshal(a.RecommendedActions)
	if err != nil {
		return fmt.Errorf("marshal recommended actions: %w", err)
	}
	_, err = q.ExecContext(ctx, `INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DetectionID, string(a.ThreatLevel), a.ThreatScore, a.GridReference,
		a.ObjectType, a.ObjectCount, string(a.Status),
		a.AcknowledgedAt, nullStr(a.AcknowledgedBy),
		a.DispatchedAt, nullStr(a.DispatchedBy),
		a.ResolvedAt, nullStr(a.ResolvedBy),
		a.ArchivedAt, nullStr(a.ArchivedBy),
		nullStr(a.ResolutionNotes), a.FalseAlarm, string(actions), a.CreatedAt)
	if err != nil {
		return persistErr("insert alert", err)
	}
	return nil
}

func updateAlert(ctx context.Context, q querier, a *models.Alert) error {
	res, err := q.ExecContext(ctx, `UPDATE alerts SET
		status = ?, acknowledged_at = ?, acknowledged_by = ?,
		dispatched_at = ?, dispatched_by = ?, resolved_at = ?, resolved_by = ?,
		archived_at = ?, archived_by = ?, resolution_notes = ?, false_alarm = ?
		WHERE id = ?`,
		string(a.Status), a.AcknowledgedAt, nullStr(a.AcknowledgedBy),
		a.DispatchedAt, nullStr(a.DispatchedBy),
		a.ResolvedAt, nullStr(a.ResolvedBy),
		a.ArchivedAt, nullStr(a.ArchivedBy),
		nullStr(a.ResolutionNotes), a.FalseAlarm, a.ID)
	if err != nil {
		return persistErr("update alert", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func getAlert(ctx context.Context, q querier, id uuid.UUID) (*models.Alert, error) {
	row := q.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, persistErr("get alert", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a       models.Alert
		level   string
		status  string
		ackBy   sql.NullString
		dispBy  sql.NullString
		resBy   sql.NullString
		archBy  sql.NullString
		notes   sql.NullString
		actions sql.NullString
		ackAt   sql.NullTime
		dispAt  sql.NullTime
		resAt   sql.NullTime
		archAt  sql.NullTime
	)
	err := row.Scan(&a.ID, &a.DetectionID, &level, &a.ThreatScore, &a.GridReference,
		&a.ObjectType, &a.ObjectCount, &status, &ackAt, &ackBy,
		&dispAt, &dispBy, &resAt, &resBy, &archAt, &archBy,
		&notes, &a.FalseAlarm, &actions, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ThreatLevel = models.ThreatLevel(level)
	a.Status = models.AlertStatus(status)
	a.AcknowledgedAt = nullTimePtr(ackAt)
	a.AcknowledgedBy = ackBy.String
	a.DispatchedAt = nullTimePtr(dispAt)
	a.DispatchedBy = dispBy.String
	a.ResolvedAt = nullTimePtr(resAt)
	a.ResolvedBy = resBy.String
	a.ArchivedAt = nullTimePtr(archAt)
	a.ArchivedBy = archBy.String
	a.ResolutionNotes = notes.String
	if actions.Valid && actions.String != "" && actions.String != "null" {
		if err := json.Unmarshal([]byte(actions.String), &a.RecommendedActions); err != nil {
			return nil, fmt.Errorf("unmarshal recommended actions: %w", err)
		}
	}
	return &a, nil
}

func listAlerts(ctx context.Context, q querier, f AlertFilter) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Level != "" {
		query += ` AND threat_level = ?`
		args = append(args, string(f.Level))
	}
	if f.Grid != "" {
		query += ` AND grid_reference = ?`
		args = append(args, f.Grid)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list alerts", err)
	}
	defer closeQuietly(rows)

	var out []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, persistErr("scan alert", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list alerts", err)
	}
	return out, nil
}

// Store-level access.

func (db *DB) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return getAlert(ctx, db.conn, id)
}

func (db *DB) ListAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	return listAlerts(ctx, db.conn, f)
}

// Tx-level access.

func (s *txScope) InsertAlert(ctx context.Context, a *models.Alert) error {
	return insertAlert(ctx, s.tx, a)
}

func (s *txScope) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return getAlert(ctx, s.tx, id)
}

func (s *txScope) UpdateAlert(ctx context.Context, a *models.Alert) error {
	return updateAlert(ctx, s.tx, a)
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
