// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package models

import (
	"time"

	"github.com/google/uuid"
)

// Object class labels emitted by the perception source. The scoring base
// table is keyed by these; unknown labels score at the lowest configured
// base value and are flagged for review.
const (
	ClassPerson   = "person"
	ClassGroup    = "group"
	ClassVehicle  = "vehicle"
	ClassBoat     = "boat"
	ClassAircraft = "aircraft"
	ClassBackpack = "backpack"
	ClassAnimal   = "animal"
)

// BoundingBox is an axis-aligned box in frame pixel coordinates.
// (X1,Y1) is the top-left corner, (X2,Y2) the bottom-right.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Detection is one object observation in one frame. Detections are
// immutable once created; a re-scored detection is recorded as a new row
// with SupersededBy set on the old one, never overwritten.
type Detection struct {
	ID          uuid.UUID   `json:"id"`
	StreamID    string      `json:"stream_id"`
	FrameIndex  int64       `json:"frame_index"`
	CapturedAt  time.Time   `json:"captured_at"`
	Class       string      `json:"class"`
	Confidence  float64     `json:"confidence"`
	Box         BoundingBox `json:"box"`
	CenterX     float64     `json:"center_x"`
	CenterY     float64     `json:"center_y"`
	FrameWidth  float64     `json:"frame_width"`
	FrameHeight float64     `json:"frame_height"`

	// Populated by the pipeline.
	GridReference    string      `json:"grid_reference"`
	ThreatScore      int         `json:"threat_score"`
	ThreatLevel      ThreatLevel `json:"threat_level"`
	GroupCount       int         `json:"group_count"`
	FlaggedForReview bool        `json:"flagged_for_review"`

	SupersededBy *uuid.UUID `json:"superseded_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
