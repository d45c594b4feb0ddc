// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

// AlertFilter narrows ListAlerts. Zero values match everything.
type AlertFilter struct {
	Status models.AlertStatus
	Level  models.ThreatLevel
	Grid   string
	Limit  int
	Offset int
}

// DayTotals are the raw aggregates for one calendar day window, consumed
// by the statistics aggregator.
type DayTotals struct {
	TotalDetections    int64
	DetectionsByLevel  models.LevelCounts
	TotalAlerts        int64
	AlertsByLevel      models.LevelCounts
	FalseAlarms        int64
	Dispatches         int64
	AvgResponseSeconds float64
}

// Tx is the write scope of one transaction. Every state mutation goes
// through a Tx so the state row and its audit entry commit or roll back
// together.
type Tx interface {
	InsertDetection(ctx context.Context, d *models.Detection) error
	InsertAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	UpdateAlert(ctx context.Context, a *models.Alert) error
	InsertDispatch(ctx context.Context, d *models.PatrolDispatch) error
	GetDispatch(ctx context.Context, id uuid.UUID) (*models.PatrolDispatch, error)
	// ActiveDispatch returns the alert's non-terminal dispatch, or nil.
	ActiveDispatch(ctx context.Context, alertID uuid.UUID) (*models.PatrolDispatch, error)
	UpdateDispatch(ctx context.Context, d *models.PatrolDispatch) error
	AppendAudit(ctx context.Context, e models.AuditEntry) error
}

// Store is the full persistence contract. DB implements it over DuckDB,
// MemoryStore in memory.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	ListAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	GetDetection(ctx context.Context, id uuid.UUID) (*models.Detection, error)
	GetDispatch(ctx context.Context, id uuid.UUID) (*models.PatrolDispatch, error)
	ListDispatches(ctx context.Context, alertID uuid.UUID) ([]models.PatrolDispatch, error)

	// Audit log access. AppendAudit outside a Tx commits on its own.
	AppendAudit(ctx context.Context, e models.AuditEntry) error
	LastAudit(ctx context.Context) (*models.AuditEntry, error)
	AuditRange(ctx context.Context, from, to int64) ([]models.AuditEntry, error)
	LastAuditSeq(ctx context.Context) (int64, error)

	// Statistics.
	CollectDay(ctx context.Context, from, to time.Time) (DayTotals, error)
	UpsertDailyStatistic(ctx context.Context, s models.DailyStatistic) error
	GetDailyStatistic(ctx context.Context, date string) (*models.DailyStatistic, error)
}
