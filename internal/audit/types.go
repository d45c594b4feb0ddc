// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package audit maintains the tamper-evident, hash-chained action log.
// Every state-changing operation in the system, successful or rejected,
// becomes exactly one entry. Entries are append-only: nothing updates or
// deletes them after commit.
package audit

import (
	"fmt"

	"github.com/gridsentry/gridsentry/internal/models"
)

// Action names recorded in the log. One constant per auditable operation.
const (
	ActionAlertCreated      = "ALERT_CREATED"
	ActionAlertAcknowledged = "ALERT_ACKNOWLEDGED"
	ActionPatrolDispatched  = "PATROL_DISPATCHED"
	ActionDispatchUpdated   = "DISPATCH_UPDATED"
	ActionAlertResolved     = "ALERT_RESOLVED"
	ActionAlertArchived     = "ALERT_ARCHIVED"
	ActionStatsRecomputed   = "STATS_RECOMPUTED"
	ActionChainVerified     = "CHAIN_VERIFIED"
)

// Resource type names.
const (
	ResourceAlert     = "alert"
	ResourceDispatch  = "dispatch"
	ResourceStatistic = "statistic"
	ResourceAuditLog  = "audit_log"
)

// Record is the caller-supplied portion of an audit entry. The chain
// assigns sequence, timestamp, and hashes.
type Record struct {
	ActorID      string
	ActorRole    string
	Action       string
	ResourceType string
	ResourceID   string
	Result       models.AuditResult
	Detail       string
}

// ChainIntegrityError reports the first sequence number at which the
// recorded chain diverges from the recomputed one.
type ChainIntegrityError struct {
	Seq    int64
	Reason string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("audit: chain integrity violation at seq %d: %s", e.Seq, e.Reason)
}
