// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package api is the operator-facing HTTP surface. Actor identity comes
// from the upstream identity-aware proxy via X-Actor-Id / X-Actor-Role;
// all role gating below that is casbin's.
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridsentry/gridsentry/internal/alerting"
	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/config"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/dispatch"
	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/ingest"
	"github.com/gridsentry/gridsentry/internal/models"
	"github.com/gridsentry/gridsentry/internal/stats"
)

var errMissingActor = errors.New("api: missing actor identity")

// Authorizer answers role/resource/action questions. *authz.Enforcer
// implements it.
type Authorizer interface {
	Can(role models.Role, resource, action string) (bool, error)
}

// Deps bundles everything the handlers reach into.
type Deps struct {
	Store      database.Store
	Lifecycle  *alerting.Lifecycle
	Tracker    *dispatch.Tracker
	Aggregator *stats.Aggregator
	Chain      *audit.Chain
	Publisher  *ingest.Publisher
	Auth       Authorizer
	Zones      *grid.Table
	Units      []models.PatrolUnit
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg  config.ServerConfig
	deps Deps
}

// NewServer builds the API surface.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Routes assembles the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", headerActorID, headerActorRole, headerCorrelationID},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
		r.Use(requestMetrics)

		r.Post("/detections", s.handlePostDetections)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Get("/{id}", s.handleGetAlert)
			r.Post("/{id}/acknowledge", s.handleAcknowledgeAlert)
			r.Post("/{id}/dispatch", s.handleDispatchAlert)
			r.Post("/{id}/resolve", s.handleResolveAlert)
			r.Post("/{id}/archive", s.handleArchiveAlert)
		})

		r.Route("/dispatches", func(r chi.Router) {
			r.Get("/", s.handleListDispatches)
			r.Get("/{id}", s.handleGetDispatch)
			r.Post("/{id}/status", s.handleUpdateDispatchStatus)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/", s.handleListAudit)
			r.Get("/verify", s.handleVerifyAudit)
		})

		r.Route("/statistics", func(r chi.Router) {
			r.Get("/daily/{date}", s.handleGetDailyStatistic)
			r.Post("/daily/{date}/recompute", s.handleRecomputeDailyStatistic)
		})
	})

	return r
}

// actor resolves the caller identity or writes the error response and
// reports false.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (string, models.Role, bool) {
	id, role, err := actorFrom(r)
	if err != nil {
		if errors.Is(err, errMissingActor) {
			respondError(w, r, http.StatusUnauthorized, errCodeUnauthorized, "actor identity required")
		} else {
			respondDomainError(w, r, err)
		}
		return "", "", false
	}
	return id, role, true
}

// requireView gates read endpoints on the casbin view permission.
func (s *Server) requireView(w http.ResponseWriter, r *http.Request, resource string) (string, models.Role, bool) {
	id, role, ok := s.actor(w, r)
	if !ok {
		return "", "", false
	}
	allowed, err := s.deps.Auth.Can(role, resource, authz.ActionView)
	if err != nil {
		respondDomainError(w, r, err)
		return "", "", false
	}
	if !allowed {
		respondError(w, r, http.StatusForbidden, errCodeForbidden, "insufficient role")
		return "", "", false
	}
	return id, role, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.deps.Chain.Compromised() {
		status = "audit chain compromised"
		code = http.StatusServiceUnavailable
	}
	respondData(w, r, code, map[string]string{"status": status})
}
