// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS detections (
		id UUID PRIMARY KEY,
		stream_id TEXT NOT NULL,
		frame_index BIGINT NOT NULL,
		captured_at TIMESTAMP NOT NULL,
		class TEXT NOT NULL,
		confidence DOUBLE NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
		bbox_x1 DOUBLE NOT NULL,
		bbox_y1 DOUBLE NOT NULL,
		bbox_x2 DOUBLE NOT NULL,
		bbox_y2 DOUBLE NOT NULL,
		center_x DOUBLE NOT NULL,
		center_y DOUBLE NOT NULL,
		frame_width DOUBLE NOT NULL,
		frame_height DOUBLE NOT NULL,
		grid_reference TEXT NOT NULL,
		threat_score INTEGER NOT NULL,
		threat_level TEXT NOT NULL CHECK (threat_level IN
			('NO_THREAT', 'LOW', 'MEDIUM', 'HIGH', 'CRITICAL')),
		group_count INTEGER NOT NULL DEFAULT 1,
		flagged_for_review BOOLEAN NOT NULL DEFAULT FALSE,
		superseded_by UUID,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY,
		detection_id UUID NOT NULL UNIQUE,
		threat_level TEXT NOT NULL CHECK (threat_level IN
			('LOW', 'MEDIUM', 'HIGH', 'CRITICAL')),
		threat_score INTEGER NOT NULL,
		grid_reference TEXT NOT NULL,
		object_type TEXT NOT NULL,
		object_count INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL CHECK (status IN
			('active', 'acknowledged', 'dispatched', 'resolved', 'archived')),
		acknowledged_at TIMESTAMP,
		acknowledged_by TEXT,
		dispatched_at TIMESTAMP,
		dispatched_by TEXT,
		resolved_at TIMESTAMP,
		resolved_by TEXT,
		archived_at TIMESTAMP,
		archived_by TEXT,
		resolution_notes TEXT,
		false_alarm BOOLEAN NOT NULL DEFAULT FALSE,
		recommended_actions TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS patrol_dispatches (
		id UUID PRIMARY KEY,
		alert_id UUID NOT NULL,
		unit_id TEXT NOT NULL,
		unit_name TEXT NOT NULL,
		target_grid TEXT NOT NULL,
		eta_minutes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN
			('dispatched', 'en_route', 'arrived', 'completed', 'cancelled')),
		actor_id TEXT NOT NULL,
		dispatched_at TIMESTAMP NOT NULL,
		en_route_at TIMESTAMP,
		arrived_at TIMESTAMP,
		completed_at TIMESTAMP,
		outcome TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		seq BIGINT PRIMARY KEY,
		ts TIMESTAMP NOT NULL,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		result TEXT NOT NULL CHECK (result IN ('success', 'failure')),
		detail TEXT,
		prev_hash TEXT NOT NULL CHECK (length(prev_hash) = 64),
		hash TEXT NOT NULL CHECK (length(hash) = 64)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_statistics (
		date TEXT PRIMARY KEY,
		total_detections BIGINT NOT NULL,
		detections_critical BIGINT NOT NULL,
		detections_high BIGINT NOT NULL,
		detections_medium BIGINT NOT NULL,
		detections_low BIGINT NOT NULL,
		detections_no_threat BIGINT NOT NULL,
		total_alerts BIGINT NOT NULL,
		alerts_critical BIGINT NOT NULL,
		alerts_high BIGINT NOT NULL,
		alerts_medium BIGINT NOT NULL,
		alerts_low BIGINT NOT NULL,
		false_alarms BIGINT NOT NULL,
		dispatches BIGINT NOT NULL,
		avg_response_seconds DOUBLE NOT NULL,
		computed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_captured ON detections (captured_at)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_grid ON detections (grid_reference)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts (status)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_dispatches_alert ON patrol_dispatches (alert_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log (ts)`,
}

func (db *DB) initSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
