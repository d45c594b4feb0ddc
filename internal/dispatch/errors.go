// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

// ConflictError reports an attempt to open a second live dispatch for an
// alert that already has one.
type ConflictError struct {
	AlertID    uuid.UUID
	DispatchID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dispatch: alert %s already has live dispatch %s", e.AlertID, e.DispatchID)
}

// InvalidTransitionError reports a dispatch status change the sub-state
// machine does not allow.
type InvalidTransitionError struct {
	From models.DispatchStatus
	To   models.DispatchStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("dispatch: invalid transition %s -> %s", e.From, e.To)
}
