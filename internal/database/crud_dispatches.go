// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

const dispatchColumns = `id, alert_id, unit_id, unit_name, target_grid, eta_minutes,
	status, actor_id, dispatched_at, en_route_at, arrived_at, completed_at, outcome`

func insertDispatch(ctx context.Context, q querier, d *models.PatrolDispatch) error {
	_, err := q.ExecContext(ctx, `INSERT INTO patrol_dispatches (`+dispatchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AlertID, d.UnitID, d.UnitName, d.TargetGrid, d.EtaMinutes,
		string(d.Status), d.ActorID, d.DispatchedAt,
		d.EnRouteAt, d.ArrivedAt, d.CompletedAt, nullStr(d.Outcome))
	if err != nil {
		return persistErr("insert dispatch", err)
	}
	return nil
}

func updateDispatch(ctx context.Context, q querier, d *models.PatrolDispatch) error {
	res, err := q.ExecContext(ctx, `UPDATE patrol_dispatches SET
		status = ?, en_route_at = ?, arrived_at = ?, completed_at = ?, outcome = ?
		WHERE id = ?`,
		string(d.Status), d.EnRouteAt, d.ArrivedAt, d.CompletedAt,
		nullStr(d.Outcome), d.ID)
	if err != nil {
		return persistErr("update dispatch", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDispatchNotFound
	}
	return nil
}

func scanDispatch(row rowScanner) (*models.PatrolDispatch, error) {
	var (
		d        models.PatrolDispatch
		status   string
		enRoute  sql.NullTime
		arrived  sql.NullTime
		complete sql.NullTime
		outcome  sql.NullString
	)
	err := row.Scan(&d.ID, &d.AlertID, &d.UnitID, &d.UnitName, &d.TargetGrid,
		&d.EtaMinutes, &status, &d.ActorID, &d.DispatchedAt,
		&enRoute, &arrived, &complete, &outcome)
	if err != nil {
		return nil, err
	}
	d.Status = models.DispatchStatus(status)
	d.EnRouteAt = nullTimePtr(enRoute)
	d.ArrivedAt = nullTimePtr(arrived)
	d.CompletedAt = nullTimePtr(complete)
	d.Outcome = outcome.String
	return &d, nil
}

func getDispatch(ctx context.Context, q querier, id uuid.UUID) (*models.PatrolDispatch, error) {
	row := q.QueryRowContext(ctx, `SELECT `+dispatchColumns+` FROM patrol_dispatches WHERE id = ?`, id)
	d, err := scanDispatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDispatchNotFound
	}
	if err != nil {
		return nil, persistErr("get dispatch", err)
	}
	return d, nil
}

func activeDispatch(ctx context.Context, q querier, alertID uuid.UUID) (*models.PatrolDispatch, error) {
	row := q.QueryRowContext(ctx, `SELECT `+dispatchColumns+` FROM patrol_dispatches
		WHERE alert_id = ? AND status NOT IN ('completed', 'cancelled')
		ORDER BY dispatched_at DESC LIMIT 1`, alertID)
	d, err := scanDispatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("active dispatch", err)
	}
	return d, nil
}

func listDispatches(ctx context.Context, q querier, alertID uuid.UUID) ([]models.PatrolDispatch, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+dispatchColumns+` FROM patrol_dispatches
		WHERE alert_id = ? ORDER BY dispatched_at`, alertID)
	if err != nil {
		return nil, persistErr("list dispatches", err)
	}
	defer closeQuietly(rows)

	var out []models.PatrolDispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, persistErr("scan dispatch", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list dispatches", err)
	}
	return out, nil
}

// Store-level access.

func (db *DB) GetDispatch(ctx context.Context, id uuid.UUID) (*models.PatrolDispatch, error) {
	return getDispatch(ctx, db.conn, id)
}

func (db *DB) ListDispatches(ctx context.Context, alertID uuid.UUID) ([]models.PatrolDispatch, error) {
	return listDispatches(ctx, db.conn, alertID)
}

// Tx-level access.

func (s *txScope) InsertDispatch(ctx context.Context, d *models.PatrolDispatch) error {
	return insertDispatch(ctx, s.tx, d)
}

func (s *txScope) GetDispatch(ctx context.Context, id uuid.UUID) (*models.PatrolDispatch, error) {
	return getDispatch(ctx, s.tx, id)
}

func (s *txScope) ActiveDispatch(ctx context.Context, alertID uuid.UUID) (*models.PatrolDispatch, error) {
	return activeDispatch(ctx, s.tx, alertID)
}

func (s *txScope) UpdateDispatch(ctx context.Context, d *models.PatrolDispatch) error {
	return updateDispatch(ctx, s.tx, d)
}
