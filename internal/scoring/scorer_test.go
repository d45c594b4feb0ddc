// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package scoring

import (
	"testing"
	"time"

	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/models"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func criticalZone() grid.Zone {
	return grid.Zone{Ref: "A-1", Name: "A-1", Sensitivity: grid.SensitivityCritical}
}

func lowZone() grid.Zone {
	return grid.Zone{Ref: "B-5", Name: "B-5", Sensitivity: grid.SensitivityLow}
}

// A person in a critical zone at night, in a group of four, at confidence
// 0.82: 10 + 15 + 25 + 30 + 3 = 83, CRITICAL.
func TestScoreWorkedExample(t *testing.T) {
	s := newTestScorer(t)
	det := models.Detection{
		Class:      models.ClassPerson,
		Confidence: 0.82,
		CapturedAt: time.Date(2026, 3, 14, 2, 30, 0, 0, time.UTC),
	}
	a := s.Score(det, criticalZone(), 4)
	if a.Score != 83 {
		t.Errorf("score = %d, want 83", a.Score)
	}
	if a.Level != models.ThreatCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
	if !a.RaisesAlert {
		t.Error("score 83 must raise an alert")
	}
	want := map[string]int{"base": 10, "time": 15, "zone": 25, "group": 30, "confidence": 3}
	for _, f := range a.Factors {
		if p, ok := want[f.Name]; ok && f.Points != p {
			t.Errorf("factor %s = %d, want %d", f.Name, f.Points, p)
		}
	}
	if len(a.RecommendedActions) == 0 {
		t.Error("critical assessment must carry recommended actions")
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer(t)
	det := models.Detection{
		Class:      models.ClassVehicle,
		Confidence: 0.66,
		CapturedAt: time.Date(2026, 6, 1, 19, 15, 0, 0, time.UTC),
	}
	first := s.Score(det, criticalZone(), 2)
	for i := 0; i < 50; i++ {
		if got := s.Score(det, criticalZone(), 2); got.Score != first.Score || got.Level != first.Level {
			t.Fatalf("iteration %d: %d/%s, want %d/%s", i, got.Score, got.Level, first.Score, first.Level)
		}
	}
}

func TestTimeFactorWindows(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		hour int
		want int
	}{
		{0, 15}, {3, 15}, {5, 15},
		{6, 0}, {12, 0}, {17, 0},
		{18, 10}, {21, 10}, {23, 10},
	}
	for _, tc := range tests {
		ts := time.Date(2026, 1, 10, tc.hour, 30, 0, 0, time.UTC)
		if got, _ := s.timeFactor(ts); got != tc.want {
			t.Errorf("hour %02d: time factor = %d, want %d", tc.hour, got, tc.want)
		}
	}
}

func TestTimeFactorUsesSectorTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorTimezone = "America/New_York"
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// 03:00 UTC in winter is 22:00 in New York: evening, not night.
	ts := time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)
	if got, _ := s.timeFactor(ts); got != cfg.EveningPoints {
		t.Errorf("time factor = %d, want evening %d", got, cfg.EveningPoints)
	}
}

func TestGroupFactor(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		count int
		want  int
	}{
		{0, 0}, {1, 0}, {2, 10}, {3, 20}, {4, 30}, {5, 30}, {10, 30},
	}
	for _, tc := range tests {
		if got := s.groupFactor(tc.count); got != tc.want {
			t.Errorf("groupFactor(%d) = %d, want %d", tc.count, got, tc.want)
		}
	}
}

func TestConfidenceFactor(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		confidence float64
		want       int
	}{
		{0.5, 0}, {0.82, 3}, {1.0, 5}, {0.3, -2}, {0.0, -5}, {0.99, 5},
	}
	for _, tc := range tests {
		if got := s.confidenceFactor(tc.confidence); got != tc.want {
			t.Errorf("confidenceFactor(%v) = %d, want %d", tc.confidence, got, tc.want)
		}
	}
}

func TestLevelBands(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		raw  int
		want models.ThreatLevel
	}{
		{-5, models.ThreatNone},
		{0, models.ThreatNone},
		{1, models.ThreatLow},
		{59, models.ThreatLow},
		{60, models.ThreatMedium},
		{69, models.ThreatMedium},
		{70, models.ThreatHigh},
		{79, models.ThreatHigh},
		{80, models.ThreatCritical},
		{120, models.ThreatCritical},
	}
	for _, tc := range tests {
		if got := s.level(tc.raw); got != tc.want {
			t.Errorf("level(%d) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestScoreMonotonicInZoneSensitivity(t *testing.T) {
	s := newTestScorer(t)
	det := models.Detection{
		Class:      models.ClassPerson,
		Confidence: 0.7,
		CapturedAt: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
	}
	low := s.Score(det, lowZone(), 1)
	crit := s.Score(det, criticalZone(), 1)
	if crit.Score <= low.Score {
		t.Errorf("critical zone score %d not above low zone score %d", crit.Score, low.Score)
	}
}

func TestUnknownClassFlagsForReview(t *testing.T) {
	s := newTestScorer(t)
	det := models.Detection{
		Class:      "drone",
		Confidence: 0.9,
		CapturedAt: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
	}
	a := s.Score(det, lowZone(), 1)
	if !a.FlaggedForReview {
		t.Error("unknown class must flag for review")
	}
	// Minimum base is animal at 3: 3 + 0 + 0 + 0 + 4 = 7.
	if a.Score != 7 {
		t.Errorf("score = %d, want 7", a.Score)
	}
}

func TestScoreClampedToHundred(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BasePoints["missile"] = 95
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	det := models.Detection{
		Class:      "missile",
		Confidence: 1.0,
		CapturedAt: time.Date(2026, 5, 2, 2, 0, 0, 0, time.UTC),
	}
	a := s.Score(det, criticalZone(), 4)
	if a.Score != 100 {
		t.Errorf("score = %d, want clamp at 100", a.Score)
	}
	if a.Level != models.ThreatCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorTimezone = "Mars/Olympus"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown timezone")
	}
	cfg = DefaultConfig()
	cfg.BasePoints = nil
	if _, err := New(cfg); err == nil {
		t.Error("expected error for empty base table")
	}
}
