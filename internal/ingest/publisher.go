// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package ingest

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/gridsentry/gridsentry/internal/logging"
)

// Publisher feeds frame batches into the pipeline. The HTTP boundary and
// any future capture adapters publish through it.
type Publisher struct {
	pub   message.Publisher
	topic string
}

// NewPublisher wraps pub for the given topic.
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	return &Publisher{pub: pub, topic: topic}
}

// Publish validates, encodes, and publishes one frame batch. The
// correlation ID from ctx rides along on the message.
func (p *Publisher) Publish(ctx context.Context, batch *FrameBatch) error {
	if err := validate.Struct(batch); err != nil {
		return err
	}
	data, err := EncodeBatch(batch)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		middleware.SetCorrelationID(cid, msg)
	}
	return p.pub.Publish(p.topic, msg)
}
