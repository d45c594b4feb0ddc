// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/gridsentry/gridsentry/internal/models"
)

func validBatch() *FrameBatch {
	return &FrameBatch{
		StreamID:    "cam-north-1",
		FrameIndex:  42,
		CapturedAt:  time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC),
		FrameWidth:  1920,
		FrameHeight: 1080,
		Detections: []DetectionPayload{
			{
				Class:      models.ClassPerson,
				Confidence: 0.8,
				Box:        BoxPayload{X1: 100, Y1: 100, X2: 180, Y2: 260},
			},
		},
	}
}

func TestDecodeBatchRoundTrip(t *testing.T) {
	in := validBatch()
	data, err := EncodeBatch(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.StreamID != in.StreamID || out.FrameIndex != in.FrameIndex {
		t.Errorf("decoded %q/%d, want %q/%d", out.StreamID, out.FrameIndex, in.StreamID, in.FrameIndex)
	}
	if len(out.Detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(out.Detections))
	}
	if out.Detections[0].Class != models.ClassPerson {
		t.Errorf("class = %q, want %q", out.Detections[0].Class, models.ClassPerson)
	}
}

func TestDecodeBatchMalformedJSON(t *testing.T) {
	_, err := DecodeBatch([]byte(`{"stream_id": `))
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestDecodeBatchValidation(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(*FrameBatch)
	}{
		{"missing stream id", func(b *FrameBatch) { b.StreamID = "" }},
		{"negative frame index", func(b *FrameBatch) { b.FrameIndex = -1 }},
		{"zero capture time", func(b *FrameBatch) { b.CapturedAt = time.Time{} }},
		{"zero frame width", func(b *FrameBatch) { b.FrameWidth = 0 }},
		{"negative frame height", func(b *FrameBatch) { b.FrameHeight = -1080 }},
		{"missing class", func(b *FrameBatch) { b.Detections[0].Class = "" }},
		{"confidence above one", func(b *FrameBatch) { b.Detections[0].Confidence = 1.2 }},
		{"negative confidence", func(b *FrameBatch) { b.Detections[0].Confidence = -0.1 }},
		{"inverted box", func(b *FrameBatch) { b.Detections[0].Box.X2 = 50 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := validBatch()
			tc.mangle(b)
			data, err := EncodeBatch(b)
			if err != nil {
				t.Fatal(err)
			}
			_, err = DecodeBatch(data)
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestDecodeBatchEmptyDetectionsOK(t *testing.T) {
	b := validBatch()
	b.Detections = nil
	data, err := EncodeBatch(b)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Detections) != 0 {
		t.Errorf("got %d detections, want 0", len(out.Detections))
	}
}
