// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package ingest is the boundary to the external perception source. Frame
// batches arrive on an in-process watermill topic, are validated, mapped
// onto the grid, scored, and persisted; detections crossing the alert
// threshold raise alerts through the lifecycle.
package ingest

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/gridsentry/gridsentry/internal/models"
)

// BoxPayload is a bounding box as sent by the perception source.
type BoxPayload struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2" validate:"gtefield=X1"`
	Y2 float64 `json:"y2" validate:"gtefield=Y1"`
}

// DetectionPayload is one object observation within a frame batch.
type DetectionPayload struct {
	Class      string     `json:"class" validate:"required"`
	Confidence float64    `json:"confidence" validate:"gte=0,lte=1"`
	Box        BoxPayload `json:"bbox" validate:"required"`
}

// FrameBatch is the wire payload for one processed frame. Batching the
// frame's detections together lets group counting stay deterministic: the
// group factor for every member is computed from the same snapshot.
type FrameBatch struct {
	StreamID    string             `json:"stream_id" validate:"required"`
	FrameIndex  int64              `json:"frame_index" validate:"gte=0"`
	CapturedAt  time.Time          `json:"captured_at" validate:"required"`
	FrameWidth  float64            `json:"frame_width" validate:"gt=0"`
	FrameHeight float64            `json:"frame_height" validate:"gt=0"`
	Detections  []DetectionPayload `json:"detections" validate:"dive"`
}

var validate = validator.New()

// DecodeBatch unmarshals and validates a frame batch. Malformed payloads
// are ValidationErrors: the message is rejected, the stream continues.
func DecodeBatch(data []byte) (*FrameBatch, error) {
	var b FrameBatch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, models.NewValidationError("payload", "malformed frame batch: %v", err)
	}
	if err := validate.Struct(&b); err != nil {
		return nil, models.NewValidationError("payload", "invalid frame batch: %v", err)
	}
	return &b, nil
}

// EncodeBatch marshals a frame batch for publishing.
func EncodeBatch(b *FrameBatch) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("ingest: encode frame batch: %w", err)
	}
	return data, nil
}
