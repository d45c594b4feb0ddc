// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package config defines the full configuration surface and loads it in
// three layers: built-in defaults, an optional YAML file, then
// GRIDSENTRY_-prefixed environment variables.
package config

import (
	"time"

	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/models"
	"github.com/gridsentry/gridsentry/internal/scoring"
)

// Config is the root configuration.
type Config struct {
	Logging   logging.Config               `koanf:"logging"`
	Server    ServerConfig                 `koanf:"server"`
	Database  DatabaseConfig               `koanf:"database"`
	Detection DetectionConfig              `koanf:"detection"`
	Scoring   scoring.Config               `koanf:"scoring"`
	Zones     map[string]grid.ZoneOverride `koanf:"zones"`
	Patrol    PatrolConfig                 `koanf:"patrol"`
	Ingest    IngestConfig                 `koanf:"ingest"`
	Stats     StatsConfig                  `koanf:"stats"`
	Audit     AuditConfig                  `koanf:"audit"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig tunes the DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// DetectionConfig bounds what the ingest pipeline accepts.
type DetectionConfig struct {
	// ConfidenceThreshold drops detections below it before scoring.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
}

// PatrolConfig carries the unit catalog available for dispatch.
type PatrolConfig struct {
	Units []models.PatrolUnit `koanf:"units"`
}

// IngestConfig tunes the in-process detection pipeline.
type IngestConfig struct {
	Topic                string        `koanf:"topic"`
	PoisonTopic          string        `koanf:"poison_topic"`
	BufferSize           int           `koanf:"buffer_size"`
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// StatsConfig tunes the daily statistics aggregator.
type StatsConfig struct {
	Interval time.Duration `koanf:"interval"`
	// BackfillDays recomputes that many trailing days on each run, so
	// late-arriving resolutions land in yesterday's row.
	BackfillDays int `koanf:"backfill_days"`
}

// AuditConfig tunes the audit chain.
type AuditConfig struct {
	// VerifyOnStartup recomputes the full chain before serving.
	VerifyOnStartup bool `koanf:"verify_on_startup"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/gridsentry.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Detection: DetectionConfig{
			ConfidenceThreshold: 0.4,
		},
		Scoring: scoring.DefaultConfig(),
		Zones:   map[string]grid.ZoneOverride{},
		Patrol: PatrolConfig{
			Units: []models.PatrolUnit{
				{ID: "alpha-1", Name: "Alpha 1", UnitType: "ground", HomeGrid: "A-1"},
				{ID: "alpha-2", Name: "Alpha 2", UnitType: "ground", HomeGrid: "D-1"},
				{ID: "bravo-1", Name: "Bravo 1", UnitType: "vehicle", HomeGrid: "C-3"},
			},
		},
		Ingest: IngestConfig{
			Topic:                "detections.incoming",
			PoisonTopic:          "detections.poison",
			BufferSize:           1024,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			CloseTimeout:         30 * time.Second,
		},
		Stats: StatsConfig{
			Interval:     15 * time.Minute,
			BackfillDays: 1,
		},
		Audit: AuditConfig{
			VerifyOnStartup: true,
		},
	}
}
