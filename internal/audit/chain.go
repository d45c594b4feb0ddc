// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/gridsentry/gridsentry/internal/logging"
	"github.com/gridsentry/gridsentry/internal/metrics"
	"github.com/gridsentry/gridsentry/internal/models"
)

// GenesisHash is the prev_hash of the first entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ErrChainCompromised is returned by Append after a verification failure.
// A compromised chain is read-only for the rest of the run.
var ErrChainCompromised = errors.New("audit: chain compromised, appends refused")

// Sink persists a single audit entry. The durable store implements it, as
// does a transaction scope, so a chain entry can commit atomically with
// the state change it describes.
type Sink interface {
	AppendAudit(ctx context.Context, e models.AuditEntry) error
}

// Store is the durable backing of the chain.
type Store interface {
	Sink
	// LastAudit returns the highest-sequence entry, or nil on an empty log.
	LastAudit(ctx context.Context) (*models.AuditEntry, error)
	// AuditRange returns entries with from <= seq <= to, ascending.
	AuditRange(ctx context.Context, from, to int64) ([]models.AuditEntry, error)
	// LastAuditSeq returns the highest committed sequence, 0 when empty.
	LastAuditSeq(ctx context.Context) (int64, error)
}

// Chain is the single writer of the audit log. All appends funnel through
// its mutex so sequence numbers are strictly increasing and gap-free.
type Chain struct {
	store Store

	mu          sync.Mutex
	nextSeq     int64
	prevHash    string
	dirty       bool
	compromised bool
}

// NewChain opens the chain over store, resuming from the last committed
// entry.
func NewChain(ctx context.Context, store Store) (*Chain, error) {
	c := &Chain{store: store}
	if err := c.resyncLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Append commits a record through the durable store.
func (c *Chain) Append(ctx context.Context, rec Record) (models.AuditEntry, error) {
	return c.AppendWith(ctx, c.store, rec)
}

// AppendWith commits a record through sink, typically a transaction scope
// shared with the state change being audited. A transactional sink
// commits after this method returns, outside the chain's view, so the
// cursor is left unconfirmed and the next append re-reads the committed
// position from the durable store. Neither an aborted sink nor a failed
// commit burns a sequence number or links to an unpersisted hash.
func (c *Chain) AppendWith(ctx context.Context, sink Sink, rec Record) (models.AuditEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.compromised {
		return models.AuditEntry{}, ErrChainCompromised
	}
	if c.dirty {
		if err := c.resyncLocked(ctx); err != nil {
			return models.AuditEntry{}, err
		}
	}

	e := models.AuditEntry{
		Seq:          c.nextSeq,
		// Truncated to microseconds so the round-trip through TIMESTAMP
		// columns reproduces the hashed serialization exactly.
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		ActorID:      rec.ActorID,
		ActorRole:    rec.ActorRole,
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Result:       rec.Result,
		Detail:       rec.Detail,
		PrevHash:     c.prevHash,
	}
	h, err := entryHash(e)
	if err != nil {
		return models.AuditEntry{}, err
	}
	e.Hash = h

	if err := sink.AppendAudit(ctx, e); err != nil {
		c.dirty = true
		return models.AuditEntry{}, fmt.Errorf("audit: append seq %d: %w", e.Seq, err)
	}

	metrics.AuditEntries.WithLabelValues(string(e.Result)).Inc()
	if sink == Sink(c.store) {
		c.nextSeq++
		c.prevHash = e.Hash
	} else {
		// The enclosing transaction may still fail to commit.
		c.dirty = true
	}
	return e, nil
}

// Verify recomputes the chain over the contiguous range [from, to] (to=0
// means the last committed entry) and returns a ChainIntegrityError
// naming the first divergent sequence, or nil when the range holds. A
// failed verification flags the chain compromised.
func (c *Chain) Verify(ctx context.Context, from, to int64) error {
	if from < 1 {
		from = 1
	}
	if to == 0 {
		last, err := c.store.LastAuditSeq(ctx)
		if err != nil {
			return fmt.Errorf("audit: verify: %w", err)
		}
		to = last
	}
	if to < from {
		return nil
	}

	prev := GenesisHash
	if from > 1 {
		before, err := c.store.AuditRange(ctx, from-1, from-1)
		if err != nil {
			return fmt.Errorf("audit: verify: %w", err)
		}
		if len(before) != 1 {
			return c.compromise(&ChainIntegrityError{Seq: from - 1, Reason: "predecessor entry missing"})
		}
		prev = before[0].Hash
	}

	entries, err := c.store.AuditRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("audit: verify: %w", err)
	}

	want := from
	for _, e := range entries {
		if e.Seq != want {
			return c.compromise(&ChainIntegrityError{Seq: want, Reason: fmt.Sprintf("sequence gap, found %d", e.Seq)})
		}
		if e.PrevHash != prev {
			return c.compromise(&ChainIntegrityError{Seq: e.Seq, Reason: "prev_hash does not match predecessor"})
		}
		h, err := entryHash(e)
		if err != nil {
			return err
		}
		if h != e.Hash {
			return c.compromise(&ChainIntegrityError{Seq: e.Seq, Reason: "recorded hash does not match recomputation"})
		}
		prev = e.Hash
		want++
	}
	if want != to+1 {
		return c.compromise(&ChainIntegrityError{Seq: want, Reason: "entry missing"})
	}
	return nil
}

// Compromised reports whether a verification failure has frozen the chain.
func (c *Chain) Compromised() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compromised
}

func (c *Chain) compromise(err *ChainIntegrityError) error {
	c.mu.Lock()
	c.compromised = true
	c.mu.Unlock()
	logging.Error().Int64("seq", err.Seq).Str("reason", err.Reason).
		Msg("audit chain compromised, entering read-only mode")
	return err
}

func (c *Chain) resyncLocked(ctx context.Context) error {
	last, err := c.store.LastAudit(ctx)
	if err != nil {
		return fmt.Errorf("audit: resync: %w", err)
	}
	if last == nil {
		c.nextSeq = 1
		c.prevHash = GenesisHash
	} else {
		c.nextSeq = last.Seq + 1
		c.prevHash = last.Hash
	}
	c.dirty = false
	return nil
}

// hashPayload fixes the field set and order covered by the hash.
type hashPayload struct {
	Seq          int64  `json:"seq"`
	Timestamp    string `json:"ts"`
	ActorID      string `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Result       string `json:"result"`
	Detail       string `json:"detail"`
}

// entryHash computes SHA-256 over the canonical JSON of the entry payload
// concatenated with the previous hash.
func entryHash(e models.AuditEntry) (string, error) {
	payload := hashPayload{
		Seq:          e.Seq,
		Timestamp:    e.Timestamp.UTC().Format(time.RFC3339Nano),
		ActorID:      e.ActorID,
		ActorRole:    e.ActorRole,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Result:       string(e.Result),
		Detail:       e.Detail,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("audit: marshal hash payload: %w", err)
	}
	sum := sha256.Sum256(append(b, []byte(e.PrevHash)...))
	return hex.EncodeToString(sum[:]), nil
}
