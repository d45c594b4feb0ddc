// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package models

import "time"

// LevelCounts holds per-threat-level tallies for a statistics row.
type LevelCounts struct {
	Critical int64 `json:"critical"`
	High     int64 `json:"high"`
	Medium   int64 `json:"medium"`
	Low      int64 `json:"low"`
	NoThreat int64 `json:"no_threat"`
}

// DailyStatistic is the aggregated view of one calendar day, computed in
// the configured sector time zone. Rows are upserted and always derivable
// from the underlying detections, alerts, and dispatches.
type DailyStatistic struct {
	Date               string      `json:"date"` // YYYY-MM-DD in sector time
	TotalDetections    int64       `json:"total_detections"`
	DetectionsByLevel  LevelCounts `json:"detections_by_level"`
	TotalAlerts        int64       `json:"total_alerts"`
	AlertsByLevel      LevelCounts `json:"alerts_by_level"`
	FalseAlarms        int64       `json:"false_alarms"`
	Dispatches         int64       `json:"dispatches"`
	AvgResponseSeconds float64     `json:"avg_response_seconds"`
	ComputedAt         time.Time   `json:"computed_at"`
}

// AuditResult is the outcome recorded for an audited action.
type AuditResult string

const (
	AuditSuccess AuditResult = "success"
	AuditFailure AuditResult = "failure"
)

// AuditEntry is one committed record of the hash-chained audit log.
type AuditEntry struct {
	Seq          int64       `json:"seq"`
	Timestamp    time.Time   `json:"ts"`
	ActorID      string      `json:"actor_id"`
	ActorRole    string      `json:"actor_role"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	Result       AuditResult `json:"result"`
	Detail       string      `json:"detail,omitempty"`
	PrevHash     string      `json:"prev_hash"`
	Hash         string      `json:"hash"`
}
