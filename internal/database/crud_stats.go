// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridsentry/gridsentry/internal/models"
)

// CollectDay aggregates the raw totals for detections captured, alerts
// created, and dispatches raised in [from, to).
func (db *DB) CollectDay(ctx context.Context, from, to time.Time) (DayTotals, error) {
	var t DayTotals

	err := db.conn.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE threat_level = 'CRITICAL'),
		COUNT(*) FILTER (WHERE threat_level = 'HIGH'),
		COUNT(*) FILTER (WHERE threat_level = 'MEDIUM'),
		COUNT(*) FILTER (WHERE threat_level = 'LOW'),
		COUNT(*) FILTER (WHERE threat_level = 'NO_THREAT')
		FROM detections WHERE captured_at >= ? AND captured_at < ?`, from, to).
		Scan(&t.TotalDetections,
			&t.DetectionsByLevel.Critical, &t.DetectionsByLevel.High,
			&t.DetectionsByLevel.Medium, &t.DetectionsByLevel.Low,
			&t.DetectionsByLevel.NoThreat)
	if err != nil {
		return t, persistErr("collect day detections", err)
	}

	var avgResponse sql.NullFloat64
	err = db.conn.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE threat_level = 'CRITICAL'),
		COUNT(*) FILTER (WHERE threat_level = 'HIGH'),
		COUNT(*) FILTER (WHERE threat_level = 'MEDIUM'),
		COUNT(*) FILTER (WHERE threat_level = 'LOW'),
		COUNT(*) FILTER (WHERE false_alarm),
		AVG(epoch(acknowledged_at) - epoch(created_at)) FILTER (WHERE acknowledged_at IS NOT NULL)
		FROM alerts WHERE created_at >= ? AND created_at < ?`, from, to).
		Scan(&t.TotalAlerts,
			&t.AlertsByLevel.Critical, &t.AlertsByLevel.High,
			&t.AlertsByLevel.Medium, &t.AlertsByLevel.Low,
			&t.FalseAlarms, &avgResponse)
	if err != nil {
		return t, persistErr("collect day alerts", err)
	}
	t.AvgResponseSeconds = avgResponse.Float64

	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM patrol_dispatches
		WHERE dispatched_at >= ? AND dispatched_at < ?`, from, to).
		Scan(&t.Dispatches)
	if err != nil {
		return t, persistErr("collect day dispatches", err)
	}
	return t, nil
}

// UpsertDailyStatistic writes or replaces the row for s.Date.
func (db *DB) UpsertDailyStatistic(ctx context.Context, s models.DailyStatistic) error {
	_, err := db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO daily_statistics (
		date, total_detections,
		detections_critical, detections_high, detections_medium,
		detections_low, detections_no_threat,
		total_alerts, alerts_critical, alerts_high, alerts_medium, alerts_low,
		false_alarms, dispatches, avg_response_seconds, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Date, s.TotalDetections,
		s.DetectionsByLevel.Critical, s.DetectionsByLevel.High, s.DetectionsByLevel.Medium,
		s.DetectionsByLevel.Low, s.DetectionsByLevel.NoThreat,
		s.TotalAlerts, s.AlertsByLevel.Critical, s.AlertsByLevel.High,
		s.AlertsByLevel.Medium, s.AlertsByLevel.Low,
		s.FalseAlarms, s.Dispatches, s.AvgResponseSeconds, s.ComputedAt)
	if err != nil {
		return persistErr("upsert daily statistic", err)
	}
	return nil
}

// GetDailyStatistic returns the row for date (YYYY-MM-DD).
func (db *DB) GetDailyStatistic(ctx context.Context, date string) (*models.DailyStatistic, error) {
	var s models.DailyStatistic
	err := db.conn.QueryRowContext(ctx, `SELECT
		date, total_detections,
		detections_critical, detections_high, detections_medium,
		detections_low, detections_no_threat,
		total_alerts, alerts_critical, alerts_high, alerts_medium, alerts_low,
		false_alarms, dispatches, avg_response_seconds, computed_at
		FROM daily_statistics WHERE date = ?`, date).
		Scan(&s.Date, &s.TotalDetections,
			&s.DetectionsByLevel.Critical, &s.DetectionsByLevel.High, &s.DetectionsByLevel.Medium,
			&s.DetectionsByLevel.Low, &s.DetectionsByLevel.NoThreat,
			&s.TotalAlerts, &s.AlertsByLevel.Critical, &s.AlertsByLevel.High,
			&s.AlertsByLevel.Medium, &s.AlertsByLevel.Low,
			&s.FalseAlarms, &s.Dispatches, &s.AvgResponseSeconds, &s.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatisticNotFound
	}
	if err != nil {
		return nil, persistErr("get daily statistic", err)
	}
	return &s, nil
}
