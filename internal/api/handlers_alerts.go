// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/alerting"
	"github.com/gridsentry/gridsentry/internal/authz"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/models"
)

const defaultListLimit = 100

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireView(w, r, authz.ResourceAlert); !ok {
		return
	}

	f := database.AlertFilter{Limit: defaultListLimit}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := models.AlertStatus(v)
		if !models.ValidAlertStatus(st) {
			respondError(w, r, http.StatusBadRequest, errCodeValidationFailed, "unknown status "+v)
			return
		}
		f.Status = st
	}
	if v := q.Get("level"); v != "" {
		f.Level = models.ThreatLevel(v)
	}
	f.Grid = q.Get("grid")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, errCodeValidationFailed, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, errCodeValidationFailed, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	alerts, err := s.deps.Store.ListAlerts(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireView(w, r, authz.ResourceAlert); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.deps.Store.GetAlert(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, a)
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.deps.Lifecycle.Acknowledge(r.Context(), alerting.Actor{ID: actorID, Role: role}, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, a)
}

type dispatchAlertRequest struct {
	UnitID     string `json:"unit_id"`
	TargetGrid string `json:"target_grid"`
	EtaMinutes int    `json:"eta_minutes"`
}

func (s *Server) handleDispatchAlert(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body dispatchAlertRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	req, err := s.resolveDispatchRequest(r.Context(), id, body)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	a, d, err := s.deps.Lifecycle.Dispatch(r.Context(), alerting.Actor{ID: actorID, Role: role}, id, req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{"alert": a, "dispatch": d})
}

// resolveDispatchRequest fills in the patrol unit and ETA. An omitted
// unit falls back to the target zone's nearest unit, then to the first
// configured unit.
func (s *Server) resolveDispatchRequest(ctx context.Context, alertID uuid.UUID, body dispatchAlertRequest) (alerting.DispatchRequest, error) {
	req := alerting.DispatchRequest{
		UnitID:     body.UnitID,
		TargetGrid: body.TargetGrid,
		EtaMinutes: body.EtaMinutes,
	}

	ref := body.TargetGrid
	if ref == "" {
		a, err := s.deps.Store.GetAlert(ctx, alertID)
		if err != nil {
			return req, err
		}
		ref = a.GridReference
	}
	zone, _ := s.deps.Zones.Zone(grid.Ref(ref))

	if req.UnitID == "" {
		req.UnitID = zone.NearestUnit
	}
	if req.UnitID == "" && len(s.deps.Units) > 0 {
		req.UnitID = s.deps.Units[0].ID
	}
	unit, ok := findUnit(s.deps.Units, req.UnitID)
	if !ok {
		return req, models.NewValidationError("unit_id", "unknown patrol unit %q", req.UnitID)
	}
	req.UnitName = unit.Name
	if req.EtaMinutes == 0 {
		req.EtaMinutes = zone.PatrolEtaMinutes
	}
	return req, nil
}

func findUnit(units []models.PatrolUnit, id string) (models.PatrolUnit, bool) {
	for _, u := range units {
		if u.ID == id {
			return u, true
		}
	}
	return models.PatrolUnit{}, false
}

type resolveAlertRequest struct {
	Notes      string `json:"notes"`
	FalseAlarm bool   `json:"false_alarm"`
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body resolveAlertRequest
	if err := decodeJSON(r, &body); err != nil {
		respondDomainError(w, r, err)
		return
	}
	a, err := s.deps.Lifecycle.Resolve(r.Context(), alerting.Actor{ID: actorID, Role: role}, id, body.Notes, body.FalseAlarm)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, a)
}

func (s *Server) handleArchiveAlert(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.deps.Lifecycle.Archive(r.Context(), alerting.Actor{ID: actorID, Role: role}, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, a)
}

// pathUUID parses the {id} path parameter or writes a 400.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errCodeBadRequest, "malformed "+param)
		return uuid.Nil, false
	}
	return id, true
}
