// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/stats"
)

func (s *Server) handleGetDailyStatistic(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireView(w, r, authz.ResourceStatistic); !ok {
		return
	}
	date := chi.URLParam(r, "date")
	stat, err := s.deps.Store.GetDailyStatistic(r.Context(), date)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stat)
}

func (s *Server) handleRecomputeDailyStatistic(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	date := chi.URLParam(r, "date")
	stat, err := s.deps.Aggregator.RecomputeDay(r.Context(), stats.Actor{ID: actorID, Role: role}, date)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stat)
}
