// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package main is the GridSentry server entry point.
//
// GridSentry is the security core behind a perimeter surveillance
// deployment: it maps incoming object detections onto the sector grid,
// scores them, raises and tracks alerts, dispatches patrol units, and
// keeps a hash-chained audit log of every action taken.
//
// Startup order: configuration, logging, DuckDB, audit chain (optionally
// verified before serving), the scoring and zone tables, the alert
// lifecycle and dispatch tracker, the watermill ingest pipeline, the
// statistics aggregator, and finally the HTTP API, all under one suture
// supervision tree. SIGINT/SIGTERM cancel the tree for a graceful stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gridsentry/gridsentry/internal/alerting"
	"github.com/gridsentry/gridsentry/internal/api"
	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/config"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/dispatch"
	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/ingest"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/scoring"
	"github.com/gridsentry/gridsentry/internal/stats"
	"github.com/gridsentry/gridsentry/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("listen", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))).
		Msg("Starting GridSentry")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("GridSentry failed")
	}
	logging.Info().Msg("GridSentry stopped")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	chain, err := audit.NewChain(ctx, db)
	if err != nil {
		return fmt.Errorf("open audit chain: %w", err)
	}
	if cfg.Audit.VerifyOnStartup {
		if err := chain.Verify(ctx, 1, 0); err != nil {
			return fmt.Errorf("audit chain verification: %w", err)
		}
		logging.Info().Msg("Audit chain verified")
	}

	zones, err := grid.NewTable(cfg.Zones)
	if err != nil {
		return fmt.Errorf("build zone table: %w", err)
	}
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return fmt.Errorf("build scorer: %w", err)
	}
	auth, err := authz.New()
	if err != nil {
		return fmt.Errorf("build authorizer: %w", err)
	}

	lifecycle := alerting.NewLifecycle(db, chain, auth)
	tracker := dispatch.NewTracker(db, chain, auth)
	aggregator := stats.NewAggregator(db, chain, auth, scorer.Location(), cfg.Stats.Interval, cfg.Stats.BackfillDays)

	pubsub := ingest.NewPubSub(cfg.Ingest)
	defer func() {
		if err := pubsub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pubsub")
		}
	}()
	processor := ingest.NewProcessor(db, lifecycle, scorer, zones, cfg.Detection.ConfidenceThreshold)
	router, err := ingest.NewRouter(cfg.Ingest, pubsub, processor)
	if err != nil {
		return fmt.Errorf("build ingest router: %w", err)
	}
	publisher := ingest.NewPublisher(pubsub, cfg.Ingest.Topic)

	apiServer := api.NewServer(cfg.Server, api.Deps{
		Store:      db,
		Lifecycle:  lifecycle,
		Tracker:    tracker,
		Aggregator: aggregator,
		Chain:      chain,
		Publisher:  publisher,
		Auth:       auth,
		Zones:      zones,
		Units:      cfg.Patrol.Units,
	})
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      apiServer.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(supervisor.NewRouterService(router))
	tree.AddPipelineService(aggregator)
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	logging.Info().Msg("Supervision tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	return nil
}
