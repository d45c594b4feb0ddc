// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package scoring computes the deterministic multi-factor threat score for
// a detection: object base points, time of day, zone sensitivity, group
// size, and detector confidence. Every number in the model comes from
// configuration; the defaults here match the reference deployment.
//
// The scorer is pure. It never touches storage and never mutates its
// inputs, so it is safe to call from any number of goroutines.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/models"
)

// Config holds every tunable of the scoring model.
type Config struct {
	// BasePoints maps object class to its base score. Classes not in the
	// table score at the lowest configured value and are flagged.
	BasePoints map[string]int `koanf:"base_points"`

	// Time-of-day factor. Night spans [NightStartHour, NightEndHour),
	// evening [EveningStartHour, 24). Hours are in the sector time zone.
	NightStartHour   int `koanf:"night_start_hour"`
	NightEndHour     int `koanf:"night_end_hour"`
	EveningStartHour int `koanf:"evening_start_hour"`
	NightPoints      int `koanf:"night_points"`
	EveningPoints    int `koanf:"evening_points"`

	// Zone sensitivity factor.
	ZonePoints map[grid.Sensitivity]int `koanf:"zone_points"`

	// Group factor: GroupStepPoints per co-located same-class detection
	// beyond the first, capped at GroupCapPoints. ProximityRadiusPx bounds
	// what counts as co-located; the count itself is supplied by the
	// ingest pipeline.
	GroupStepPoints   int     `koanf:"group_step_points"`
	GroupCapPoints    int     `koanf:"group_cap_points"`
	ProximityRadiusPx float64 `koanf:"proximity_radius_px"`

	// Confidence factor: clamp(round((confidence-pivot)*slope), -clamp, +clamp).
	ConfidencePivot float64 `koanf:"confidence_pivot"`
	ConfidenceSlope float64 `koanf:"confidence_slope"`
	ConfidenceClamp int     `koanf:"confidence_clamp"`

	// Level banding. Scores at or below zero carry no threat, scores below
	// 60 are LOW, MediumHighSplit divides MEDIUM from HIGH, 80 and above
	// is CRITICAL.
	LowUpperBound   int `koanf:"low_upper_bound"`
	MediumHighSplit int `koanf:"medium_high_split"`
	CriticalBound   int `koanf:"critical_bound"`

	// AlertThreshold is the minimum score that raises an alert.
	AlertThreshold int `koanf:"alert_threshold"`

	// SectorTimezone is the IANA zone name used for the time factor and
	// daily rollups.
	SectorTimezone string `koanf:"sector_timezone"`
}

// DefaultConfig returns the reference deployment's scoring model.
func DefaultConfig() Config {
	return Config{
		BasePoints: map[string]int{
			models.ClassPerson:   10,
			models.ClassGroup:    25,
			models.ClassVehicle:  15,
			models.ClassBoat:     20,
			models.ClassAircraft: 30,
			models.ClassBackpack: 8,
			models.ClassAnimal:   3,
		},
		NightStartHour:   0,
		NightEndHour:     6,
		EveningStartHour: 18,
		NightPoints:      15,
		EveningPoints:    10,
		ZonePoints: map[grid.Sensitivity]int{
			grid.SensitivityCritical: 25,
			grid.SensitivityHigh:     15,
			grid.SensitivityMedium:   5,
			grid.SensitivityLow:      0,
		},
		GroupStepPoints:   10,
		GroupCapPoints:    30,
		ProximityRadiusPx: 100,
		ConfidencePivot:   0.5,
		ConfidenceSlope:   10,
		ConfidenceClamp:   5,
		LowUpperBound:     60,
		MediumHighSplit:   70,
		CriticalBound:     80,
		AlertThreshold:    60,
		SectorTimezone:    "UTC",
	}
}

// Factor is one component of an assessment's score.
type Factor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Assessment is the scorer's verdict on one detection.
type Assessment struct {
	Score              int                `json:"score"`
	Level              models.ThreatLevel `json:"level"`
	Factors            []Factor           `json:"factors"`
	RecommendedActions []string           `json:"recommended_actions"`
	FlaggedForReview   bool               `json:"flagged_for_review"`
	RaisesAlert        bool               `json:"raises_alert"`
}

// Scorer evaluates detections against a fixed configuration.
type Scorer struct {
	cfg Config
	loc *time.Location
}

// New builds a Scorer, resolving the configured sector time zone.
func New(cfg Config) (*Scorer, error) {
	loc, err := time.LoadLocation(cfg.SectorTimezone)
	if err != nil {
		return nil, fmt.Errorf("scoring: load sector timezone %q: %w", cfg.SectorTimezone, err)
	}
	if len(cfg.BasePoints) == 0 {
		return nil, fmt.Errorf("scoring: base points table is empty")
	}
	return &Scorer{cfg: cfg, loc: loc}, nil
}

// Score assesses one detection. groupCount is the number of co-located
// same-class detections in the frame batch, this one included.
func (s *Scorer) Score(det models.Detection, zone grid.Zone, groupCount int) Assessment {
	var a Assessment

	base, known := s.cfg.BasePoints[det.Class]
	if !known {
		base = s.minBase()
		a.FlaggedForReview = true
		a.Factors = append(a.Factors, Factor{
			Name:   "base",
			Points: base,
			Reason: fmt.Sprintf("unknown class %q scored at minimum", det.Class),
		})
	} else {
		a.Factors = append(a.Factors, Factor{
			Name:   "base",
			Points: base,
			Reason: fmt.Sprintf("object class %s", det.Class),
		})
	}

	tp, tw := s.timeFactor(det.CapturedAt)
	a.Factors = append(a.Factors, Factor{Name: "time", Points: tp, Reason: tw})

	zp := s.cfg.ZonePoints[zone.Sensitivity]
	a.Factors = append(a.Factors, Factor{
		Name:   "zone",
		Points: zp,
		Reason: fmt.Sprintf("%s sensitivity at %s", zone.Sensitivity, zone.Ref),
	})

	gp := s.groupFactor(groupCount)
	a.Factors = append(a.Factors, Factor{
		Name:   "group",
		Points: gp,
		Reason: fmt.Sprintf("%d co-located detections", groupCount),
	})

	cp := s.confidenceFactor(det.Confidence)
	a.Factors = append(a.Factors, Factor{
		Name:   "confidence",
		Points: cp,
		Reason: fmt.Sprintf("detector confidence %.2f", det.Confidence),
	})

	raw := base + tp + zp + gp + cp
	a.Score = clampScore(raw)
	a.Level = s.level(raw)
	a.RaisesAlert = a.Score >= s.cfg.AlertThreshold
	a.RecommendedActions = recommendedActions(a.Level)
	return a
}

// AlertThreshold exposes the configured minimum alerting score.
func (s *Scorer) AlertThreshold() int { return s.cfg.AlertThreshold }

// Location exposes the resolved sector time zone.
func (s *Scorer) Location() *time.Location { return s.loc }

// ProximityRadius exposes the configured co-location radius in pixels.
func (s *Scorer) ProximityRadius() float64 { return s.cfg.ProximityRadiusPx }

func (s *Scorer) timeFactor(ts time.Time) (int, string) {
	hour := ts.In(s.loc).Hour()
	switch {
	case hour >= s.cfg.NightStartHour && hour < s.cfg.NightEndHour:
		return s.cfg.NightPoints, fmt.Sprintf("night hours (%02d:00)", hour)
	case hour >= s.cfg.EveningStartHour:
		return s.cfg.EveningPoints, fmt.Sprintf("evening hours (%02d:00)", hour)
	default:
		return 0, fmt.Sprintf("daylight hours (%02d:00)", hour)
	}
}

func (s *Scorer) groupFactor(count int) int {
	if count <= 1 {
		return 0
	}
	p := (count - 1) * s.cfg.GroupStepPoints
	if p > s.cfg.GroupCapPoints {
		return s.cfg.GroupCapPoints
	}
	return p
}

func (s *Scorer) confidenceFactor(confidence float64) int {
	p := int(math.Round((confidence - s.cfg.ConfidencePivot) * s.cfg.ConfidenceSlope))
	if p > s.cfg.ConfidenceClamp {
		return s.cfg.ConfidenceClamp
	}
	if p < -s.cfg.ConfidenceClamp {
		return -s.cfg.ConfidenceClamp
	}
	return p
}

func (s *Scorer) level(raw int) models.ThreatLevel {
	switch {
	case raw <= 0:
		return models.ThreatNone
	case raw < s.cfg.LowUpperBound:
		return models.ThreatLow
	case raw < s.cfg.MediumHighSplit:
		return models.ThreatMedium
	case raw < s.cfg.CriticalBound:
		return models.ThreatHigh
	default:
		return models.ThreatCritical
	}
}

func (s *Scorer) minBase() int {
	min := math.MaxInt
	for _, v := range s.cfg.BasePoints {
		if v < min {
			min = v
		}
	}
	return min
}

func clampScore(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

func recommendedActions(level models.ThreatLevel) []string {
	switch level {
	case models.ThreatCritical:
		return []string{
			"Dispatch nearest patrol unit immediately",
			"Notify sector supervisor",
			"Hold continuous camera track on target",
		}
	case models.ThreatHigh:
		return []string{
			"Dispatch patrol unit",
			"Maintain camera track on target",
		}
	case models.ThreatMedium:
		return []string{
			"Monitor target, prepare patrol unit",
		}
	case models.ThreatLow:
		return []string{
			"Log and continue routine monitoring",
		}
	default:
		return nil
	}
}
