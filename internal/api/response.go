// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/gridsentry/gridsentry/internal/alerting"
	"github.com/gridsentry/gridsentry/internal/audit"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/dispatch"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/models"
	"github.com/gridsentry/gridsentry/internal/stats"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes.
const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeForbidden        = "FORBIDDEN"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeDatabaseError    = "DATABASE_ERROR"
	errCodeChainCompromised = "CHAIN_COMPROMISED"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func respondData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, apiResponse{
		Success: false,
		Error: &apiError{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// respondDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *models.ValidationError
		ape *alerting.PermissionError
		dpe *dispatch.PermissionError
		spe *stats.PermissionError
		ite *alerting.InvalidTransitionError
		dte *dispatch.InvalidTransitionError
		ce  *dispatch.ConflictError
		pe  *database.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		respondError(w, r, http.StatusBadRequest, errCodeValidationFailed, err.Error())
	case errors.As(err, &ape), errors.As(err, &dpe), errors.As(err, &spe):
		respondError(w, r, http.StatusForbidden, errCodeForbidden, err.Error())
	case errors.Is(err, database.ErrAlertNotFound),
		errors.Is(err, database.ErrDetectionNotFound),
		errors.Is(err, database.ErrDispatchNotFound),
		errors.Is(err, database.ErrStatisticNotFound):
		respondError(w, r, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.As(err, &ite), errors.As(err, &dte), errors.As(err, &ce):
		respondError(w, r, http.StatusConflict, errCodeConflict, err.Error())
	case errors.Is(err, audit.ErrChainCompromised):
		respondError(w, r, http.StatusInternalServerError, errCodeChainCompromised, err.Error())
	case errors.As(err, &pe):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Persistence failure")
		respondError(w, r, http.StatusInternalServerError, errCodeDatabaseError, "storage unavailable")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unhandled error")
		respondError(w, r, http.StatusInternalServerError, errCodeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeJSON unmarshals a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("body", "malformed JSON: %v", err)
	}
	return nil
}
