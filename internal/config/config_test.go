// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gridsentry/gridsentry/internal/grid"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: 9090
detection:
  confidence_threshold: 0.6
scoring:
  sector_timezone: Europe/Berlin
zones:
  D-4:
    sensitivity: Critical
    name: river crossing
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Detection.ConfidenceThreshold != 0.6 {
		t.Errorf("confidence_threshold = %v, want 0.6", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.Scoring.SectorTimezone != "Europe/Berlin" {
		t.Errorf("sector_timezone = %s", cfg.Scoring.SectorTimezone)
	}
	if ov, ok := cfg.Zones["D-4"]; !ok || ov.Sensitivity != "Critical" {
		t.Errorf("zone override not applied: %+v", cfg.Zones)
	}
	// Untouched sections keep their defaults.
	if cfg.Scoring.AlertThreshold != 60 {
		t.Errorf("alert_threshold = %d, want default 60", cfg.Scoring.AlertThreshold)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("GRIDSENTRY_SERVER_PORT", "7070")
	t.Setenv("GRIDSENTRY_DATABASE_PATH", "/tmp/alt.duckdb")
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/alt.duckdb" {
		t.Errorf("database.path = %s", cfg.Database.Path)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GRIDSENTRY_SERVER_PORT", "server.port"},
		{"GRIDSENTRY_DETECTION_CONFIDENCE_THRESHOLD", "detection.confidence_threshold"},
		{"GRIDSENTRY_SCORING_SECTOR_TIMEZONE", "scoring.sector_timezone"},
		{"GRIDSENTRY_LOGGING_LEVEL", "logging.level"},
	}
	for _, tc := range tests {
		if got := envTransform(tc.in); got != tc.want {
			t.Errorf("envTransform(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	mutations := map[string]func(*Config){
		"bad port":            func(c *Config) { c.Server.Port = 0 },
		"empty db path":       func(c *Config) { c.Database.Path = "" },
		"threshold above one": func(c *Config) { c.Detection.ConfidenceThreshold = 1.5 },
		"bad timezone":        func(c *Config) { c.Scoring.SectorTimezone = "Nowhere/Here" },
		"split below low":     func(c *Config) { c.Scoring.MediumHighSplit = 50 },
		"bad zone override":   func(c *Config) { c.Zones = map[string]grid.ZoneOverride{"Z-9": {}} },
		"duplicate unit":      func(c *Config) { c.Patrol.Units = append(c.Patrol.Units, c.Patrol.Units[0]) },
		"zero stats interval": func(c *Config) { c.Stats.Interval = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
