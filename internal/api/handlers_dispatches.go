// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/dispatch"
	"github.com/gridsentry/gridsentry/internal/models"
)

func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireView(w, r, authz.ResourceDispatch); !ok {
		return
	}
	raw := r.URL.Query().Get("alert_id")
	if raw == "" {
		respondError(w, r, http.StatusBadRequest, errCodeBadRequest, "alert_id query parameter required")
		return
	}
	alertID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errCodeBadRequest, "malformed alert_id")
		return
	}
	dispatches, err := s.deps.Store.ListDispatches(r.Context(), alertID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, dispatches)
}

func (s *Server) handleGetDispatch(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireView(w, r, authz.ResourceDispatch); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	d, err := s.deps.Store.GetDispatch(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, d)
}

type updateDispatchRequest struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
}

func (s *Server) handleUpdateDispatchStatus(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body updateDispatchRequest
	if err := decodeJSON(r, &body); err != nil {
		respondDomainError(w, r, err)
		return
	}
	d, err := s.deps.Tracker.UpdateStatus(r.Context(), dispatch.Actor{ID: actorID, Role: role}, id,
		models.DispatchStatus(body.Status), body.Outcome)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, d)
}
