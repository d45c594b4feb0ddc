// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreatLevel is the banded severity derived from a numeric threat score.
type ThreatLevel string

const (
	ThreatNone     ThreatLevel = "NO_THREAT"
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// AlertStatus is the lifecycle state of an alert. Transitions are enforced
// by the alerting package; no other writer may change status.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertDispatched   AlertStatus = "dispatched"
	AlertResolved     AlertStatus = "resolved"
	AlertArchived     AlertStatus = "archived"
)

// ValidAlertStatus reports whether s is a known lifecycle state.
func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertActive, AlertAcknowledged, AlertDispatched, AlertResolved, AlertArchived:
		return true
	}
	return false
}

// Alert is a scored detection that crossed the alerting threshold. Exactly
// one alert exists per detection.
type Alert struct {
	ID            uuid.UUID   `json:"id"`
	DetectionID   uuid.UUID   `json:"detection_id"`
	ThreatLevel   ThreatLevel `json:"threat_level"`
	ThreatScore   int         `json:"threat_score"`
	GridReference string      `json:"grid_reference"`
	ObjectType    string      `json:"object_type"`
	ObjectCount   int         `json:"object_count"`
	Status        AlertStatus `json:"status"`

	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	DispatchedAt   *time.Time `json:"dispatched_at,omitempty"`
	DispatchedBy   string     `json:"dispatched_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	ArchivedBy     string     `json:"archived_by,omitempty"`

	ResolutionNotes string `json:"resolution_notes,omitempty"`
	FalseAlarm      bool   `json:"false_alarm"`

	RecommendedActions []string  `json:"recommended_actions,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
