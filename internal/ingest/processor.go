// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/alerting"
	"github.com/gridsentry/gridsentry/internal/database"
	"github.com/gridsentry/gridsentry/internal/grid"
	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/metrics"
	"github.com/gridsentry/gridsentry/internal/models"
	"github.com/gridsentry/gridsentry/internal/scoring"
)

// Processor turns validated frame batches into persisted detections and,
// above the alert threshold, alerts.
type Processor struct {
	store     database.Store
	lifecycle *alerting.Lifecycle
	scorer    *scoring.Scorer
	zones     *grid.Table
	threshold float64
}

// NewProcessor wires the detection pipeline.
func NewProcessor(store database.Store, lc *alerting.Lifecycle, scorer *scoring.Scorer, zones *grid.Table, confidenceThreshold float64) *Processor {
	return &Processor{
		store:     store,
		lifecycle: lc,
		scorer:    scorer,
		zones:     zones,
		threshold: confidenceThreshold,
	}
}

// ProcessBatch handles one frame batch. Detections below the confidence
// threshold are dropped before scoring; per-detection validation failures
// are logged and skipped without failing the batch. Persistence failures
// fail the batch so the router can retry it. Detection identity is
// derived from the frame coordinates, so a redelivered batch skips the
// detections a partially failed attempt already committed instead of
// inserting them twice.
func (p *Processor) ProcessBatch(ctx context.Context, batch *FrameBatch) error {
	kept := make([]DetectionPayload, 0, len(batch.Detections))
	for _, d := range batch.Detections {
		if d.Confidence < p.threshold {
			metrics.DetectionsDropped.Inc()
			continue
		}
		kept = append(kept, d)
	}

	for i := range kept {
		if err := p.processOne(ctx, batch, kept, i); err != nil {
			var ve *models.ValidationError
			if errors.As(err, &ve) {
				metrics.DetectionsRejected.Inc()
				logging.Ctx(ctx).Warn().Err(err).
					Str("stream_id", batch.StreamID).
					Int64("frame_index", batch.FrameIndex).
					Msg("Detection rejected")
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Processor) processOne(ctx context.Context, batch *FrameBatch, kept []DetectionPayload, i int) error {
	d := kept[i]
	cx, cy := boxCenter(d.Box)
	ref, err := grid.Map(cx, cy, batch.FrameWidth, batch.FrameHeight)
	if err != nil {
		return err
	}
	zone, ok := p.zones.Zone(ref)
	if !ok {
		return models.NewValidationError("grid_reference", "no zone for %s", ref)
	}

	id := detectionID(batch, d)
	if _, err := p.store.GetDetection(ctx, id); err == nil {
		logging.Ctx(ctx).Debug().
			Str("detection_id", id.String()).
			Str("stream_id", batch.StreamID).
			Int64("frame_index", batch.FrameIndex).
			Msg("Detection already committed, skipping redelivered copy")
		return nil
	} else if !errors.Is(err, database.ErrDetectionNotFound) {
		return err
	}

	det := models.Detection{
		ID:            id,
		StreamID:      batch.StreamID,
		FrameIndex:    batch.FrameIndex,
		CapturedAt:    batch.CapturedAt,
		Class:         d.Class,
		Confidence:    d.Confidence,
		Box:           models.BoundingBox(d.Box),
		CenterX:       cx,
		CenterY:       cy,
		FrameWidth:    batch.FrameWidth,
		FrameHeight:   batch.FrameHeight,
		GridReference: string(ref),
		GroupCount:    p.groupCount(kept, i),
		CreatedAt:     time.Now().UTC(),
	}

	a := p.scorer.Score(det, zone, det.GroupCount)
	det.ThreatScore = a.Score
	det.ThreatLevel = a.Level
	det.FlaggedForReview = a.FlaggedForReview

	metrics.DetectionsProcessed.Inc()
	metrics.ThreatScores.Observe(float64(a.Score))

	if !a.RaisesAlert {
		return p.store.WithTx(ctx, func(tx database.Tx) error {
			return tx.InsertDetection(ctx, &det)
		})
	}

	alert := &models.Alert{
		DetectionID:        det.ID,
		ThreatLevel:        a.Level,
		ThreatScore:        a.Score,
		GridReference:      string(ref),
		ObjectType:         det.Class,
		ObjectCount:        det.GroupCount,
		RecommendedActions: a.RecommendedActions,
	}
	if err := p.lifecycle.Create(ctx, &det, alert); err != nil {
		return err
	}
	metrics.AlertsCreated.WithLabelValues(string(a.Level)).Inc()
	logging.Ctx(ctx).Info().
		Str("alert_id", alert.ID.String()).
		Str("grid", string(ref)).
		Int("score", a.Score).
		Str("level", string(a.Level)).
		Msg("Alert raised")
	return nil
}

// detectionNamespace scopes the deterministic detection IDs.
var detectionNamespace = uuid.MustParse("7f2c4d1a-9b3e-4f60-8a15-c6d2e8b47903")

// detectionID derives a stable identity from where and when an object
// was seen, so redelivering a frame batch maps onto the rows an earlier
// attempt already wrote.
func detectionID(batch *FrameBatch, d DetectionPayload) uuid.UUID {
	key := fmt.Sprintf("%s/%d/%s/%g,%g,%g,%g",
		batch.StreamID, batch.FrameIndex, d.Class,
		d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
	return uuid.NewSHA1(detectionNamespace, []byte(key))
}

// groupCount counts same-class detections whose centers lie within the
// proximity radius of detection i, i itself included.
func (p *Processor) groupCount(kept []DetectionPayload, i int) int {
	radius := p.scorer.ProximityRadius()
	cx, cy := boxCenter(kept[i].Box)
	count := 0
	for j := range kept {
		if kept[j].Class != kept[i].Class {
			continue
		}
		ox, oy := boxCenter(kept[j].Box)
		if math.Hypot(ox-cx, oy-cy) <= radius {
			count++
		}
	}
	return count
}

func boxCenter(b BoxPayload) (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}
