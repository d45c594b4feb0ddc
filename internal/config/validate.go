// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package config

import (
	"fmt"
	"time"

	"github.com/gridsentry/gridsentry/internal/grid"
)

// Validate rejects configurations the services cannot run with. It is
// called by Load; direct construction in tests may skip it.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("detection.confidence_threshold %v out of [0, 1]", c.Detection.ConfidenceThreshold)
	}
	if len(c.Scoring.BasePoints) == 0 {
		return fmt.Errorf("scoring.base_points is empty")
	}
	if _, err := time.LoadLocation(c.Scoring.SectorTimezone); err != nil {
		return fmt.Errorf("scoring.sector_timezone: %w", err)
	}
	if c.Scoring.MediumHighSplit <= c.Scoring.LowUpperBound || c.Scoring.MediumHighSplit >= c.Scoring.CriticalBound {
		return fmt.Errorf("scoring.medium_high_split %d must lie between %d and %d",
			c.Scoring.MediumHighSplit, c.Scoring.LowUpperBound, c.Scoring.CriticalBound)
	}
	if c.Scoring.ProximityRadiusPx <= 0 {
		return fmt.Errorf("scoring.proximity_radius_px must be positive")
	}
	if _, err := grid.NewTable(c.Zones); err != nil {
		return fmt.Errorf("zones: %w", err)
	}
	seen := make(map[string]bool, len(c.Patrol.Units))
	for _, u := range c.Patrol.Units {
		if u.ID == "" {
			return fmt.Errorf("patrol unit with empty id")
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate patrol unit id %q", u.ID)
		}
		seen[u.ID] = true
		if u.HomeGrid != "" {
			if _, _, err := grid.ParseRef(grid.Ref(u.HomeGrid)); err != nil {
				return fmt.Errorf("patrol unit %s: %w", u.ID, err)
			}
		}
	}
	if c.Ingest.Topic == "" {
		return fmt.Errorf("ingest.topic is required")
	}
	if c.Ingest.BufferSize <= 0 {
		return fmt.Errorf("ingest.buffer_size must be positive")
	}
	if c.Stats.Interval <= 0 {
		return fmt.Errorf("stats.interval must be positive")
	}
	if c.Stats.BackfillDays < 0 {
		return fmt.Errorf("stats.backfill_days must not be negative")
	}
	return nil
}
