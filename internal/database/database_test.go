// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/config"
	"github.com/gridsentry/gridsentry/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func sampleDetection() *models.Detection {
	return &models.Detection{
		ID:            uuid.New(),
		StreamID:      "cam-03",
		FrameIndex:    120,
		CapturedAt:    time.Date(2026, 3, 14, 2, 30, 0, 0, time.UTC),
		Class:         models.ClassPerson,
		Confidence:    0.82,
		Box:           models.BoundingBox{X1: 700, Y1: 400, X2: 760, Y2: 520},
		CenterX:       730,
		CenterY:       460,
		FrameWidth:    1920,
		FrameHeight:   1080,
		GridReference: "C-3",
		ThreatScore:   83,
		ThreatLevel:   models.ThreatCritical,
		GroupCount:    4,
		CreatedAt:     time.Now().UTC(),
	}
}

func sampleAlert(detectionID uuid.UUID) *models.Alert {
	return &models.Alert{
		ID:                 uuid.New(),
		DetectionID:        detectionID,
		ThreatLevel:        models.ThreatCritical,
		ThreatScore:        83,
		GridReference:      "C-3",
		ObjectType:         models.ClassPerson,
		ObjectCount:        4,
		Status:             models.AlertActive,
		RecommendedActions: []string{"Dispatch nearest patrol unit immediately"},
		CreatedAt:          time.Now().UTC(),
	}
}

func TestDetectionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := sampleDetection()
	err := db.WithTx(ctx, func(tx Tx) error {
		return tx.InsertDetection(ctx, want)
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetDetection(ctx, want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Class != want.Class || got.GridReference != want.GridReference ||
		got.ThreatScore != want.ThreatScore || got.ThreatLevel != want.ThreatLevel {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestAlertLifecycleColumns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	det := sampleDetection()
	a := sampleAlert(det.ID)
	err := db.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertDetection(ctx, det); err != nil {
			return err
		}
		return tx.InsertAlert(ctx, a)
	})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	a.Status = models.AlertAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = "op-7"
	err = db.WithTx(ctx, func(tx Tx) error {
		return tx.UpdateAlert(ctx, a)
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetAlert(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.AlertAcknowledged || got.AcknowledgedBy != "op-7" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.AcknowledgedAt == nil {
		t.Error("acknowledged_at not persisted")
	}
	if len(got.RecommendedActions) != 1 {
		t.Errorf("recommended actions = %v", got.RecommendedActions)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	det := sampleDetection()
	a := sampleAlert(det.ID)
	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertDetection(ctx, det); err != nil {
			return err
		}
		if err := tx.InsertAlert(ctx, a); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := db.GetDetection(ctx, det.ID); !errors.Is(err, ErrDetectionNotFound) {
		t.Errorf("detection survived rollback: %v", err)
	}
	if _, err := db.GetAlert(ctx, a.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("alert survived rollback: %v", err)
	}
}

func TestListAlertsFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		det := sampleDetection()
		a := sampleAlert(det.ID)
		if i == 0 {
			a.Status = models.AlertResolved
		}
		err := db.WithTx(ctx, func(tx Tx) error {
			if err := tx.InsertDetection(ctx, det); err != nil {
				return err
			}
			return tx.InsertAlert(ctx, a)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	active, err := db.ListAlerts(ctx, AlertFilter{Status: models.AlertActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active alerts = %d, want 2", len(active))
	}
	all, err := db.ListAlerts(ctx, AlertFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all alerts = %d, want 3", len(all))
	}
}

func TestAuditRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seq, err := db.LastAuditSeq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 0 {
		t.Errorf("empty log seq = %d, want 0", seq)
	}

	e := models.AuditEntry{
		Seq:          1,
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		ActorID:      "system",
		ActorRole:    "system",
		Action:       "ALERT_CREATED",
		ResourceType: "alert",
		ResourceID:   uuid.NewString(),
		Result:       models.AuditSuccess,
		PrevHash:     "0000000000000000000000000000000000000000000000000000000000000000",
		Hash:         "1111111111111111111111111111111111111111111111111111111111111111",
	}
	if err := db.AppendAudit(ctx, e); err != nil {
		t.Fatal(err)
	}

	last, err := db.LastAudit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Seq != 1 || last.Action != "ALERT_CREATED" {
		t.Errorf("last audit = %+v", last)
	}
	if !last.Timestamp.Equal(e.Timestamp) {
		t.Errorf("timestamp round trip: got %v, want %v", last.Timestamp, e.Timestamp)
	}

	entries, err := db.AuditRange(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("range = %d entries, want 1", len(entries))
	}
}

func TestDailyStatisticUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := models.DailyStatistic{
		Date:            "2026-03-14",
		TotalDetections: 42,
		TotalAlerts:     5,
		AlertsByLevel:   models.LevelCounts{Critical: 1, High: 2, Medium: 2},
		Dispatches:      3,
		ComputedAt:      time.Now().UTC(),
	}
	if err := db.UpsertDailyStatistic(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.TotalAlerts = 6
	if err := db.UpsertDailyStatistic(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetDailyStatistic(ctx, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalAlerts != 6 {
		t.Errorf("upsert did not replace: total_alerts = %d", got.TotalAlerts)
	}
	if _, err := db.GetDailyStatistic(ctx, "1999-01-01"); !errors.Is(err, ErrStatisticNotFound) {
		t.Errorf("missing date: %v", err)
	}
}

func TestCollectDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	det := sampleDetection()
	a := sampleAlert(det.ID)
	a.CreatedAt = day.Add(2 * time.Hour)
	ack := day.Add(2*time.Hour + 90*time.Second)
	a.AcknowledgedAt = &ack
	a.Status = models.AlertAcknowledged
	err := db.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertDetection(ctx, det); err != nil {
			return err
		}
		if err := tx.InsertAlert(ctx, a); err != nil {
			return err
		}
		return tx.InsertDispatch(ctx, &models.PatrolDispatch{
			ID:           uuid.New(),
			AlertID:      a.ID,
			UnitID:       "alpha-1",
			UnitName:     "Alpha 1",
			TargetGrid:   "C-3",
			Status:       models.DispatchDispatched,
			ActorID:      "sup-1",
			DispatchedAt: day.Add(3 * time.Hour),
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	totals, err := db.CollectDay(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if totals.TotalDetections != 1 || totals.TotalAlerts != 1 || totals.Dispatches != 1 {
		t.Errorf("totals = %+v", totals)
	}
	if totals.AlertsByLevel.Critical != 1 {
		t.Errorf("critical alerts = %d, want 1", totals.AlertsByLevel.Critical)
	}
	if totals.AvgResponseSeconds < 89 || totals.AvgResponseSeconds > 91 {
		t.Errorf("avg response = %v, want ~90", totals.AvgResponseSeconds)
	}
}
