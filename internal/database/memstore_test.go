// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

func TestMemoryStoreTxRollback(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	a := sampleAlert(uuid.New())
	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertAlert(ctx, a); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := m.GetAlert(ctx, a.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("alert survived rollback: %v", err)
	}
}

func TestMemoryStoreTxReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	a := sampleAlert(uuid.New())
	err := m.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertAlert(ctx, a); err != nil {
			return err
		}
		got, err := tx.GetAlert(ctx, a.ID)
		if err != nil {
			return err
		}
		got.Status = models.AlertAcknowledged
		return tx.UpdateAlert(ctx, got)
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.GetAlert(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.AlertAcknowledged {
		t.Errorf("status = %s, want acknowledged", got.Status)
	}
}

func TestMemoryStoreActiveDispatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	alertID := uuid.New()

	d := &models.PatrolDispatch{
		ID:           uuid.New(),
		AlertID:      alertID,
		UnitID:       "alpha-1",
		Status:       models.DispatchDispatched,
		DispatchedAt: time.Now().UTC(),
	}
	err := m.WithTx(ctx, func(tx Tx) error {
		return tx.InsertDispatch(ctx, d)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = m.WithTx(ctx, func(tx Tx) error {
		active, err := tx.ActiveDispatch(ctx, alertID)
		if err != nil {
			return err
		}
		if active == nil || active.ID != d.ID {
			t.Errorf("active dispatch = %+v", active)
		}
		// Completing it within the transaction hides it from the
		// active lookup immediately.
		active.Status = models.DispatchCompleted
		if err := tx.UpdateDispatch(ctx, active); err != nil {
			return err
		}
		after, err := tx.ActiveDispatch(ctx, alertID)
		if err != nil {
			return err
		}
		if after != nil {
			t.Errorf("completed dispatch still active: %+v", after)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreFailWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.FailWrites = true

	err := m.WithTx(ctx, func(tx Tx) error {
		return tx.InsertAlert(ctx, sampleAlert(uuid.New()))
	})
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
