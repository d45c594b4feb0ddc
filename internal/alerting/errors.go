// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package alerting

import (
	"fmt"

	"github.com/gridsentry/gridsentry/internal/models"
)

// InvalidTransitionError reports a lifecycle change the state machine
// does not allow.
type InvalidTransitionError struct {
	From models.AlertStatus
	To   models.AlertStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("alerting: invalid transition %s -> %s", e.From, e.To)
}

// PermissionError reports an actor whose role does not cover the
// requested action. Denials are audited as failures.
type PermissionError struct {
	ActorID string
	Role    models.Role
	Action  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("alerting: %s (%s) may not %s", e.ActorID, e.Role, e.Action)
}
