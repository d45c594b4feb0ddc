// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package alerting owns the alert lifecycle state machine:
//
//	active -> acknowledged -> dispatched -> resolved -> archived
//
// with active -> dispatched as a supervisor shortcut that implies the
// acknowledgement. Each transition is role-gated, validated against the
// current state, and committed together with its audit entry in one
// transaction under a per-alert mutex. Rejected transitions, including
// authorization denials, are audited as failures.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/dispatch"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/metrics"
	"github.com/gridsentry/gridsentry/internal/models"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   string
	Role models.Role
}

// SystemActor is used for pipeline-originated actions.
var SystemActor = Actor{ID: "system", Role: "system"}

// transitions maps each state to the states it may move to.
var transitions = map[models.AlertStatus]map[models.AlertStatus]bool{
	models.AlertActive:       {models.AlertAcknowledged: true, models.AlertDispatched: true},
	models.AlertAcknowledged: {models.AlertDispatched: true, models.AlertResolved: true},
	models.AlertDispatched:   {models.AlertResolved: true},
	models.AlertResolved:     {models.AlertArchived: true},
	models.AlertArchived:     {},
}

// Allowed reports whether the lifecycle permits from -> to.
func Allowed(from, to models.AlertStatus) bool {
	return transitions[from][to]
}

// Authorizer answers role/resource/action questions. *authz.Enforcer
// implements it.
type Authorizer interface {
	Can(role models.Role, resource, action string) (bool, error)
}

// DispatchRequest carries the unit assignment for a dispatch transition.
type DispatchRequest struct {
	UnitID     string
	UnitName   string
	TargetGrid string
	EtaMinutes int
}

// Lifecycle drives alerts through their states.
type Lifecycle struct {
	store database.Store
	chain *audit.Chain
	auth  Authorizer
	locks *lockRegistry
}

// NewLifecycle wires the state machine to its store, audit chain, and
// authorizer.
func NewLifecycle(store database.Store, chain *audit.Chain, auth Authorizer) *Lifecycle {
	return &Lifecycle{
		store: store,
		chain: chain,
		auth:  auth,
		locks: newLockRegistry(),
	}
}

// Create inserts a new active alert, and the detection that raised it
// when det is non-nil, in one transaction with the ALERT_CREATED audit
// entry. Only the ingest pipeline calls this.
func (l *Lifecycle) Create(ctx context.Context, det *models.Detection, a *models.Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = models.AlertActive
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	return l.store.WithTx(ctx, func(tx database.Tx) error {
		if det != nil {
			if err := tx.InsertDetection(ctx, det); err != nil {
				return err
			}
		}
		if err := tx.InsertAlert(ctx, a); err != nil {
			return err
		}
		_, err := l.chain.AppendWith(ctx, tx, audit.Record{
			ActorID:      SystemActor.ID,
			ActorRole:    string(SystemActor.Role),
			Action:       audit.ActionAlertCreated,
			ResourceType: audit.ResourceAlert,
			ResourceID:   a.ID.String(),
			Result:       models.AuditSuccess,
			Detail:       fmt.Sprintf("%s at %s, score %d (%s)", a.ObjectType, a.GridReference, a.ThreatScore, a.ThreatLevel),
		})
		return err
	})
}

// Acknowledge moves an active alert to acknowledged. Operator and above.
func (l *Lifecycle) Acknowledge(ctx context.Context, actor Actor, id uuid.UUID) (*models.Alert, error) {
	return l.transition(ctx, actor, id, authz.ActionAcknowledge, audit.ActionAlertAcknowledged,
		models.AlertAcknowledged, func(_ database.Tx, a *models.Alert) error {
			now := time.Now().UTC()
			a.AcknowledgedAt = &now
			a.AcknowledgedBy = actor.ID
			return nil
		})
}

// Dispatch moves an active or acknowledged alert to dispatched, creating
// the patrol dispatch record. Supervisor and above. Dispatching an active
// alert implies acknowledging it.
func (l *Lifecycle) Dispatch(ctx context.Context, actor Actor, id uuid.UUID, req DispatchRequest) (*models.Alert, *models.PatrolDispatch, error) {
	var created *models.PatrolDispatch
	a, err := l.transition(ctx, actor, id, authz.ActionDispatch, audit.ActionPatrolDispatched,
		models.AlertDispatched, func(tx database.Tx, a *models.Alert) error {
			if req.UnitID == "" {
				return models.NewValidationError("unit_id", "unit is required")
			}
			live, err := tx.ActiveDispatch(ctx, a.ID)
			if err != nil {
				return err
			}
			if live != nil {
				return &dispatch.ConflictError{AlertID: a.ID, DispatchID: live.ID}
			}

			now := time.Now().UTC()
			if a.AcknowledgedAt == nil {
				a.AcknowledgedAt = &now
				a.AcknowledgedBy = actor.ID
			}
			a.DispatchedAt = &now
			a.DispatchedBy = actor.ID

			target := req.TargetGrid
			if target == "" {
				target = a.GridReference
			}
			created = &models.PatrolDispatch{
				ID:           uuid.New(),
				AlertID:      a.ID,
				UnitID:       req.UnitID,
				UnitName:     req.UnitName,
				TargetGrid:   target,
				EtaMinutes:   req.EtaMinutes,
				Status:       models.DispatchDispatched,
				ActorID:      actor.ID,
				DispatchedAt: now,
			}
			return tx.InsertDispatch(ctx, created)
		})
	if err != nil {
		return nil, nil, err
	}
	return a, created, nil
}

// Resolve closes a dispatched or acknowledged alert. Supervisor and
// above. Notes are mandatory; falseAlarm marks the alert for statistics.
func (l *Lifecycle) Resolve(ctx context.Context, actor Actor, id uuid.UUID, notes string, falseAlarm bool) (*models.Alert, error) {
	return l.transition(ctx, actor, id, authz.ActionResolve, audit.ActionAlertResolved,
		models.AlertResolved, func(_ database.Tx, a *models.Alert) error {
			if notes == "" {
				return models.NewValidationError("resolution_notes", "notes are required to resolve")
			}
			now := time.Now().UTC()
			a.ResolvedAt = &now
			a.ResolvedBy = actor.ID
			a.ResolutionNotes = notes
			a.FalseAlarm = falseAlarm
			return nil
		})
}

// Archive retires a resolved alert. Admin only.
func (l *Lifecycle) Archive(ctx context.Context, actor Actor, id uuid.UUID) (*models.Alert, error) {
	return l.transition(ctx, actor, id, authz.ActionArchive, audit.ActionAlertArchived,
		models.AlertArchived, func(_ database.Tx, a *models.Alert) error {
			now := time.Now().UTC()
			a.ArchivedAt = &now
			a.ArchivedBy = actor.ID
			return nil
		})
}

// transition runs one state change end to end: authorization, per-alert
// lock, state validation, mutation, and the audit entry, the last four
// inside one transaction.
func (l *Lifecycle) transition(ctx context.Context, actor Actor, id uuid.UUID,
	action, auditAction string, to models.AlertStatus,
	mutate func(tx database.Tx, a *models.Alert) error,
) (*models.Alert, error) {
	allowed, err := l.auth.Can(actor.Role, authz.ResourceAlert, action)
	if err != nil {
		return nil, err
	}
	if !allowed {
		perr := &PermissionError{ActorID: actor.ID, Role: actor.Role, Action: action}
		metrics.AlertTransitions.WithLabelValues(auditAction, string(models.AuditFailure)).Inc()
		l.auditFailure(ctx, actor, auditAction, id, perr.Error())
		return nil, perr
	}

	lock := l.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	var out *models.Alert
	txErr := l.store.WithTx(ctx, func(tx database.Tx) error {
		a, err := tx.GetAlert(ctx, id)
		if err != nil {
			return err
		}
		if !Allowed(a.Status, to) {
			return &InvalidTransitionError{From: a.Status, To: to}
		}
		from := a.Status
		if err := mutate(tx, a); err != nil {
			return err
		}
		a.Status = to
		if err := tx.UpdateAlert(ctx, a); err != nil {
			return err
		}
		if _, err := l.chain.AppendWith(ctx, tx, audit.Record{
			ActorID:      actor.ID,
			ActorRole:    string(actor.Role),
			Action:       auditAction,
			ResourceType: audit.ResourceAlert,
			ResourceID:   id.String(),
			Result:       models.AuditSuccess,
			Detail:       fmt.Sprintf("status %s -> %s", from, to),
		}); err != nil {
			return err
		}
		out = a
		return nil
	})
	if txErr != nil {
		if isRejection(txErr) {
			metrics.AlertTransitions.WithLabelValues(auditAction, string(models.AuditFailure)).Inc()
			l.auditFailure(ctx, actor, auditAction, id, txErr.Error())
		}
		return nil, txErr
	}
	metrics.AlertTransitions.WithLabelValues(auditAction, string(models.AuditSuccess)).Inc()
	return out, nil
}

// isRejection separates business rejections, which must still leave an
// audit trace, from infrastructure failures, which must not consume a
// chain sequence for an action that may be retried verbatim.
func isRejection(err error) bool {
	var (
		it *InvalidTransitionError
		ve *models.ValidationError
		ce *dispatch.ConflictError
	)
	return errors.As(err, &it) || errors.As(err, &ve) || errors.As(err, &ce)
}

func (l *Lifecycle) auditFailure(ctx context.Context, actor Actor, action string, id uuid.UUID, detail string) {
	if _, err := l.chain.Append(ctx, audit.Record{
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		Action:       action,
		ResourceType: audit.ResourceAlert,
		ResourceID:   id.String(),
		Result:       models.AuditFailure,
		Detail:       detail,
	}); err != nil {
		logging.Error().Err(err).Str("action", action).Str("alert_id", id.String()).
			Msg("Failed to audit rejected action")
	}
}
