// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package api

import (
	"io"
	"net/http"

	"github.com/gridsentry/gridsentry/internal/ingest"
)

// maxBatchBytes bounds the frame batch payload size.
const maxBatchBytes = 1 << 20

// handlePostDetections accepts a frame batch from a perception source
// and queues it on the ingest topic. The response is 202: scoring and
// alerting happen asynchronously in the pipeline.
func (s *Server) handlePostDetections(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchBytes+1))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errCodeBadRequest, "unreadable body")
		return
	}
	if len(body) > maxBatchBytes {
		respondError(w, r, http.StatusRequestEntityTooLarge, errCodeBadRequest, "frame batch too large")
		return
	}

	batch, err := ingest.DecodeBatch(body)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := s.deps.Publisher.Publish(r.Context(), batch); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusAccepted, map[string]any{
		"stream_id":   batch.StreamID,
		"frame_index": batch.FrameIndex,
		"detections":  len(batch.Detections),
	})
}
