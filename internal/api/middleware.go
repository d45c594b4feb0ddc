// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/metrics"
	"github.com/gridsentry/gridsentry/internal/models"
)

// Actor identity headers, set by the upstream identity-aware proxy.
const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"

	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-Id"
)

// requestContext stamps every request with a request ID and a
// correlation ID, honoring inbound ones so a detection's trail can be
// followed across the pipeline and the API.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = logging.GenerateRequestID()
		}
		ctx = logging.ContextWithRequestID(ctx, reqID)
		w.Header().Set(headerRequestID, reqID)

		cid := r.Header.Get(headerCorrelationID)
		if cid == "" {
			cid = logging.GenerateCorrelationID()
		}
		ctx = logging.ContextWithCorrelationID(ctx, cid)
		w.Header().Set(headerCorrelationID, cid)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestMetrics records latency per method, route pattern, and status.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// actorFrom reads the authenticated actor from the identity headers. A
// missing ID means the proxy did not authenticate the caller.
func actorFrom(r *http.Request) (string, models.Role, error) {
	id := r.Header.Get(headerActorID)
	if id == "" {
		return "", "", errMissingActor
	}
	role := models.Role(r.Header.Get(headerActorRole))
	if !models.ValidRole(role) {
		return "", "", models.NewValidationError("actor_role", "unknown role %q", role)
	}
	return id, role, nil
}
