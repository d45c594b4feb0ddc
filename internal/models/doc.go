// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package models defines the shared domain types for GridSentry:
// detections, grid zones, alerts, patrol dispatches, daily statistics,
// and the role and status enumerations used across the system.
//
// Types here are plain data. Behavior lives in the owning packages:
// grid (mapping), scoring (assessment), alerting (lifecycle), dispatch
// (patrol tracking), audit (the hash chain), and stats (rollups).
package models
