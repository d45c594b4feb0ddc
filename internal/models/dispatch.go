// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package models

import (
	"time"

	"github.com/google/uuid"
)

// DispatchStatus is the sub-state of a patrol dispatch attached to an
// alert in the dispatched lifecycle state.
type DispatchStatus string

const (
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchEnRoute    DispatchStatus = "en_route"
	DispatchArrived    DispatchStatus = "arrived"
	DispatchCompleted  DispatchStatus = "completed"
	DispatchCancelled  DispatchStatus = "cancelled"
)

// ValidDispatchStatus reports whether s is a known dispatch state.
func ValidDispatchStatus(s DispatchStatus) bool {
	switch s {
	case DispatchDispatched, DispatchEnRoute, DispatchArrived, DispatchCompleted, DispatchCancelled:
		return true
	}
	return false
}

// Terminal reports whether the dispatch can no longer change state.
func (s DispatchStatus) Terminal() bool {
	return s == DispatchCompleted || s == DispatchCancelled
}

// PatrolUnit is a field unit available for dispatch, loaded from config.
type PatrolUnit struct {
	ID       string `json:"id" koanf:"id"`
	Name     string `json:"name" koanf:"name"`
	UnitType string `json:"unit_type" koanf:"unit_type"`
	HomeGrid string `json:"home_grid" koanf:"home_grid"`
}

// PatrolDispatch records a unit sent to an alert. An alert holds at most
// one non-terminal dispatch at a time.
type PatrolDispatch struct {
	ID         uuid.UUID      `json:"id"`
	AlertID    uuid.UUID      `json:"alert_id"`
	UnitID     string         `json:"unit_id"`
	UnitName   string         `json:"unit_name"`
	TargetGrid string         `json:"target_grid"`
	EtaMinutes int            `json:"eta_minutes"`
	Status     DispatchStatus `json:"status"`
	ActorID    string         `json:"actor_id"`

	DispatchedAt time.Time  `json:"dispatched_at"`
	EnRouteAt    *time.Time `json:"en_route_at,omitempty"`
	ArrivedAt    *time.Time `json:"arrived_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Outcome string `json:"outcome,omitempty"`
}
