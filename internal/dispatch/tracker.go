// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package dispatch tracks patrol dispatches through their sub-state
// machine:
//
//	dispatched -> en_route -> arrived -> completed
//
// with cancelled reachable from any non-terminal state. Completing or
// cancelling a dispatch never auto-resolves its alert; the supervisor
// closes the alert separately.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/models"
)

// forward maps each state to its successor on the normal path.
var forward = map[models.DispatchStatus]models.DispatchStatus{
	models.DispatchDispatched: models.DispatchEnRoute,
	models.DispatchEnRoute:    models.DispatchArrived,
	models.DispatchArrived:    models.DispatchCompleted,
}

// Allowed reports whether the sub-state machine permits from -> to.
func Allowed(from, to models.DispatchStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.DispatchCancelled {
		return true
	}
	return forward[from] == to
}

// Authorizer answers role/resource/action questions.
type Authorizer interface {
	Can(role models.Role, resource, action string) (bool, error)
}

// Actor identifies who is updating a dispatch.
type Actor struct {
	ID   string
	Role models.Role
}

// Tracker applies status updates to patrol dispatches.
type Tracker struct {
	store database.Store
	chain *audit.Chain
	auth  Authorizer

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewTracker wires the tracker to its store, audit chain, and authorizer.
func NewTracker(store database.Store, chain *audit.Chain, auth Authorizer) *Tracker {
	return &Tracker{
		store: store,
		chain: chain,
		auth:  auth,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// UpdateStatus moves a dispatch to the requested status. Supervisor and
// above. Outcome text is recorded on terminal transitions.
func (t *Tracker) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, to models.DispatchStatus, outcome string) (*models.PatrolDispatch, error) {
	if !models.ValidDispatchStatus(to) {
		return nil, models.NewValidationError("status", "unknown dispatch status %q", to)
	}

	allowed, err := t.auth.Can(actor.Role, authz.ResourceDispatch, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if !allowed {
		t.auditFailure(ctx, actor, id, fmt.Sprintf("%s (%s) may not update dispatches", actor.ID, actor.Role))
		return nil, &PermissionError{ActorID: actor.ID, Role: actor.Role}
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var out *models.PatrolDispatch
	txErr := t.store.WithTx(ctx, func(tx database.Tx) error {
		d, err := tx.GetDispatch(ctx, id)
		if err != nil {
			return err
		}
		if !Allowed(d.Status, to) {
			return &InvalidTransitionError{From: d.Status, To: to}
		}
		from := d.Status
		now := time.Now().UTC()
		switch to {
		case models.DispatchEnRoute:
			d.EnRouteAt = &now
		case models.DispatchArrived:
			d.ArrivedAt = &now
		case models.DispatchCompleted, models.DispatchCancelled:
			d.CompletedAt = &now
			d.Outcome = outcome
		}
		d.Status = to
		if err := tx.UpdateDispatch(ctx, d); err != nil {
			return err
		}
		if _, err := t.chain.AppendWith(ctx, tx, audit.Record{
			ActorID:      actor.ID,
			ActorRole:    string(actor.Role),
			Action:       audit.ActionDispatchUpdated,
			ResourceType: audit.ResourceDispatch,
			ResourceID:   id.String(),
			Result:       models.AuditSuccess,
			Detail:       fmt.Sprintf("status %s -> %s", from, to),
		}); err != nil {
			return err
		}
		out = d
		return nil
	})
	if txErr != nil {
		var it *InvalidTransitionError
		if errors.As(txErr, &it) {
			t.auditFailure(ctx, actor, id, txErr.Error())
		}
		return nil, txErr
	}
	return out, nil
}

func (t *Tracker) lockFor(id uuid.UUID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

func (t *Tracker) auditFailure(ctx context.Context, actor Actor, id uuid.UUID, detail string) {
	if _, err := t.chain.Append(ctx, audit.Record{
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionDispatchUpdated,
		ResourceType: audit.ResourceDispatch,
		ResourceID:   id.String(),
		Result:       models.AuditFailure,
		Detail:       detail,
	}); err != nil {
		logging.Error().Err(err).Str("dispatch_id", id.String()).
			Msg("Failed to audit rejected dispatch update")
	}
}

// PermissionError reports a role that may not update dispatches.
type PermissionError struct {
	ActorID string
	Role    models.Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("dispatch: %s (%s) may not update dispatches", e.ActorID, e.Role)
}
