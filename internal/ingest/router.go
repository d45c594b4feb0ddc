// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package ingest

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/gridsentry/gridsentry/internal/config"
	"github.com/gridsentry/gridsentry/internal/metrics"
)

// NewPubSub returns the in-process channel transport the pipeline runs
// on. Publisher and subscriber are the same object.
func NewPubSub(cfg config.IngestConfig) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
		Persistent:          false,
	}, NewWatermillLogger())
}

// NewRouter builds the watermill router that feeds frame batches to the
// processor: panic recovery, correlation IDs, exponential retry, and a
// poison topic for batches that exhaust their retries.
func NewRouter(cfg config.IngestConfig, pubsub *gochannel.GoChannel, proc *Processor) (*message.Router, error) {
	logger := NewWatermillLogger()

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ingest: create router: %w", err)
	}

	router.AddPlugin(plugin.SignalsHandler)

	poison, err := middleware.PoisonQueue(pubsub, cfg.PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("ingest: create poison queue: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		poison,
		middleware.Retry{
			MaxRetries:      cfg.RetryCount,
			InitialInterval: cfg.RetryInitialInterval,
			Logger:          logger,
		}.Middleware,
	)

	router.AddNoPublisherHandler(
		"poison_batch_logger",
		cfg.PoisonTopic,
		pubsub,
		func(msg *message.Message) error {
			metrics.BatchesPoisoned.Inc()
			logger.Error("Frame batch exhausted retries", fmt.Errorf("poisoned message %s", msg.UUID), nil)
			return nil
		},
	)

	router.AddNoPublisherHandler(
		"frame_batch_processor",
		cfg.Topic,
		pubsub,
		func(msg *message.Message) error {
			batch, err := DecodeBatch(msg.Payload)
			if err != nil {
				// Malformed payloads can never succeed on retry; count
				// them and drop the message.
				metrics.DetectionsRejected.Inc()
				logger.Error("Dropping malformed frame batch", err, nil)
				return nil
			}
			return proc.ProcessBatch(msg.Context(), batch)
		},
	)

	return router, nil
}
