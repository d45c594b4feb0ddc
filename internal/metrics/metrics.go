// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package metrics exposes the prometheus instrumentation for the
// detection pipeline, alert lifecycle, and HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsProcessed counts detections that reached the scorer.
	DetectionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsentry_detections_processed_total",
		Help: "Detections scored and persisted.",
	})

	// DetectionsDropped counts detections below the confidence threshold.
	DetectionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsentry_detections_dropped_total",
		Help: "Detections dropped below the confidence threshold.",
	})

	// DetectionsRejected counts detections rejected by validation.
	DetectionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsentry_detections_rejected_total",
		Help: "Detections rejected as invalid.",
	})

	// BatchesPoisoned counts frame batches routed to the poison topic.
	BatchesPoisoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsentry_batches_poisoned_total",
		Help: "Frame batches that exhausted retries.",
	})

	// ThreatScores tracks the score distribution.
	ThreatScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridsentry_threat_score",
		Help:    "Distribution of computed threat scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	// AlertsCreated counts raised alerts by threat level.
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsentry_alerts_created_total",
		Help: "Alerts raised, by threat level.",
	}, []string{"level"})

	// AlertTransitions counts lifecycle transitions by action and result.
	AlertTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsentry_alert_transitions_total",
		Help: "Alert lifecycle transitions, by action and result.",
	}, []string{"action", "result"})

	// AuditEntries counts committed audit entries by result.
	AuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsentry_audit_entries_total",
		Help: "Committed audit log entries, by result.",
	}, []string{"result"})

	// StatsRecomputations counts daily statistics recomputations.
	StatsRecomputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsentry_stats_recomputations_total",
		Help: "Daily statistics recomputation runs.",
	})

	// HTTPRequestDuration tracks request latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridsentry_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
