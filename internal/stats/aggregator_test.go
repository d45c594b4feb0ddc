// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/models"
)

var (
	adminActor  = Actor{ID: "adm-1", Role: models.RoleAdmin}
	viewerActor = Actor{ID: "view-9", Role: models.RoleViewer}
)

func newAggregator(t *testing.T) (*Aggregator, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	chain, err := audit.NewChain(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	auth, err := authz.New()
	if err != nil {
		t.Fatal(err)
	}
	return NewAggregator(store, chain, auth, time.UTC, 15*time.Minute, 1), store
}

func seedDay(t *testing.T, store *database.MemoryStore, day time.Time) {
	t.Helper()
	ack := day.Add(9*time.Hour + 90*time.Second)
	err := store.WithTx(context.Background(), func(tx database.Tx) error {
		for i, level := range []models.ThreatLevel{models.ThreatLow, models.ThreatLow, models.ThreatCritical} {
			d := &models.Detection{
				ID:          uuid.New(),
				StreamID:    "cam-north-1",
				CapturedAt:  day.Add(time.Duration(i) * time.Hour),
				Class:       models.ClassPerson,
				Confidence:  0.8,
				FrameWidth:  1920,
				FrameHeight: 1080,
				ThreatLevel: level,
				CreatedAt:   day,
			}
			if err := tx.InsertDetection(context.Background(), d); err != nil {
				return err
			}
		}
		alertID := uuid.New()
		if err := tx.InsertAlert(context.Background(), &models.Alert{
			ID:             alertID,
			DetectionID:    uuid.New(),
			ThreatLevel:    models.ThreatCritical,
			ThreatScore:    83,
			GridReference:  "A-1",
			ObjectType:     models.ClassPerson,
			Status:         models.AlertResolved,
			CreatedAt:      day.Add(9 * time.Hour),
			AcknowledgedAt: &ack,
			AcknowledgedBy: "op-7",
			FalseAlarm:     true,
		}); err != nil {
			return err
		}
		return tx.InsertDispatch(context.Background(), &models.PatrolDispatch{
			ID:           uuid.New(),
			AlertID:      alertID,
			UnitID:       "alpha-1",
			TargetGrid:   "A-1",
			Status:       models.DispatchCompleted,
			DispatchedAt: day.Add(9*time.Hour + 5*time.Minute),
			ActorID:      "sup-1",
		})
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRecomputeDayAggregates(t *testing.T) {
	agg, store := newAggregator(t)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	seedDay(t, store, day)
	// Records the day after must not leak into the window.
	seedDay(t, store, day.AddDate(0, 0, 1))

	stat, err := agg.RecomputeDay(context.Background(), adminActor, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if stat.TotalDetections != 3 {
		t.Errorf("total detections = %d, want 3", stat.TotalDetections)
	}
	if stat.DetectionsByLevel.Low != 2 || stat.DetectionsByLevel.Critical != 1 {
		t.Errorf("detections by level = %+v", stat.DetectionsByLevel)
	}
	if stat.TotalAlerts != 1 || stat.AlertsByLevel.Critical != 1 {
		t.Errorf("alerts = %d by level %+v, want 1 critical", stat.TotalAlerts, stat.AlertsByLevel)
	}
	if stat.FalseAlarms != 1 {
		t.Errorf("false alarms = %d, want 1", stat.FalseAlarms)
	}
	if stat.Dispatches != 1 {
		t.Errorf("dispatches = %d, want 1", stat.Dispatches)
	}
	if stat.AvgResponseSeconds != 90 {
		t.Errorf("avg response = %v, want 90", stat.AvgResponseSeconds)
	}

	stored, err := store.GetDailyStatistic(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalDetections != 3 {
		t.Errorf("stored total detections = %d, want 3", stored.TotalDetections)
	}

	last, err := store.LastAudit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Action != audit.ActionStatsRecomputed || last.Result != models.AuditSuccess {
		t.Errorf("last audit = %+v, want successful %s", last, audit.ActionStatsRecomputed)
	}
	if last.ResourceID != "2026-03-14" {
		t.Errorf("audit resource = %s, want 2026-03-14", last.ResourceID)
	}
}

func TestRecomputeDayIdempotent(t *testing.T) {
	agg, store := newAggregator(t)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	seedDay(t, store, day)

	first, err := agg.RecomputeDay(context.Background(), adminActor, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	second, err := agg.RecomputeDay(context.Background(), adminActor, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalDetections != second.TotalDetections || first.TotalAlerts != second.TotalAlerts {
		t.Errorf("recompute diverged: %+v vs %+v", first, second)
	}
}

func TestRecomputeDaySectorTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	store := database.NewMemoryStore()
	chain, err := audit.NewChain(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	auth, err := authz.New()
	if err != nil {
		t.Fatal(err)
	}
	agg := NewAggregator(store, chain, auth, loc, 15*time.Minute, 1)

	// 02:00 UTC on March 15 is still March 14 evening in New York.
	captured := time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)
	err = store.WithTx(context.Background(), func(tx database.Tx) error {
		return tx.InsertDetection(context.Background(), &models.Detection{
			ID:          uuid.New(),
			StreamID:    "cam-north-1",
			CapturedAt:  captured,
			Class:       models.ClassPerson,
			Confidence:  0.8,
			ThreatLevel: models.ThreatLow,
			CreatedAt:   captured,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	stat, err := agg.RecomputeDay(context.Background(), adminActor, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if stat.TotalDetections != 1 {
		t.Errorf("march 14 detections = %d, want 1", stat.TotalDetections)
	}
	stat, err = agg.RecomputeDay(context.Background(), adminActor, "2026-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if stat.TotalDetections != 0 {
		t.Errorf("march 15 detections = %d, want 0", stat.TotalDetections)
	}
}

func TestRecomputeDayPermissionDenied(t *testing.T) {
	agg, store := newAggregator(t)
	_, err := agg.RecomputeDay(context.Background(), viewerActor, "2026-03-14")
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	last, err := store.LastAudit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Result != models.AuditFailure {
		t.Errorf("denial not audited as failure: %+v", last)
	}
}

func TestRecomputeDayBadDate(t *testing.T) {
	agg, _ := newAggregator(t)
	_, err := agg.RecomputeDay(context.Background(), adminActor, "14-03-2026")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestServeRecomputesUntilCancelled(t *testing.T) {
	store := database.NewMemoryStore()
	chain, err := audit.NewChain(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	auth, err := authz.New()
	if err != nil {
		t.Fatal(err)
	}
	agg := NewAggregator(store, chain, auth, time.UTC, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agg.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	today := time.Now().UTC().Format(DateLayout)
	for {
		if _, err := store.GetDailyStatistic(context.Background(), today); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no statistics row written before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
