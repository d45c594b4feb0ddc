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

const detectionColumns = `id, stream_id, frame_index, captured_at, class, confidence,
	bbox_x1, bbox_y1, bbox_x2, bbox_y2, center_x, center_y, frame_width, frame_height,
	grid_reference, threat_score, threat_level, group_count, flagged_for_review,
	superseded_by, created_at`

func insertDetection(ctx context.Context, q querier, d *models.Detection) error {
	_, err := q.ExecContext(ctx, `INSERT INTO detections (`+detectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.StreamID, d.FrameIndex, d.CapturedAt, d.Class, d.Confidence,
		d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2, d.CenterX, d.CenterY,
		d.FrameWidth, d.FrameHeight, d.GridReference, d.ThreatScore,
		string(d.ThreatLevel), d.GroupCount, d.FlaggedForReview,
		d.SupersededBy, d.CreatedAt)
	if err != nil {
		return persistErr("insert detection", err)
	}
	return nil
}

func getDetection(ctx context.Context, q querier, id uuid.UUID) (*models.Detection, error) {
	row := q.QueryRowContext(ctx, `SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id)
	var (
		d          models.Detection
		level      string
		superseded sql.NullString
	)
	err := row.Scan(&d.ID, &d.StreamID, &d.FrameIndex, &d.CapturedAt, &d.Class, &d.Confidence,
		&d.Box.X1, &d.Box.Y1, &d.Box.X2, &d.Box.Y2, &d.CenterX, &d.CenterY,
		&d.FrameWidth, &d.FrameHeight, &d.GridReference, &d.ThreatScore,
		&level, &d.GroupCount, &d.FlaggedForReview, &superseded, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetectionNotFound
	}
	if err != nil {
		return nil, persistErr("get detection", err)
	}
	d.ThreatLevel = models.ThreatLevel(level)
	if superseded.Valid && superseded.String != "" {
		u, err := uuid.Parse(superseded.String)
		if err != nil {
			return nil, persistErr("parse superseded_by", err)
		}
		d.SupersededBy = &u
	}
	return &d, nil
}

func (db *DB) GetDetection(ctx context.Context, id uuid.UUID) (*models.Detection, error) {
	return getDetection(ctx, db.conn, id)
}

func (s *txScope) InsertDetection(ctx context.Context, d *models.Detection) error {
	return insertDetection(ctx, s.tx, d)
}
