// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsentry/gridsentry/internal/models"
)

// MemoryStore implements Store in process memory. It backs tests and
// ephemeral runs and mirrors the DuckDB implementation's semantics,
// including transactional rollback.
type MemoryStore struct {
	mu         sync.RWMutex
	detections map[uuid.UUID]models.Detection
	alerts     map[uuid.UUID]models.Alert
	dispatches map[uuid.UUID]models.PatrolDispatch
	audit      []models.AuditEntry
	stats      map[string]models.DailyStatistic

	// FailWrites makes every mutation fail, for persistence-error paths.
	FailWrites bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		detections: make(map[uuid.UUID]models.Detection),
		alerts:     make(map[uuid.UUID]models.Alert),
		dispatches: make(map[uuid.UUID]models.PatrolDispatch),
		stats:      make(map[string]models.DailyStatistic),
	}
}

// memTx buffers mutations until the surrounding WithTx commits.
type memTx struct {
	store      *MemoryStore
	detections []models.Detection
	alerts     map[uuid.UUID]models.Alert
	dispatches map[uuid.UUID]models.PatrolDispatch
	audit      []models.AuditEntry
}

// WithTx runs fn against a buffered scope and applies the buffer only
// when fn succeeds.
func (m *MemoryStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:      m,
		alerts:     make(map[uuid.UUID]models.Alert),
		dispatches: make(map[uuid.UUID]models.PatrolDispatch),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for _, d := range tx.detections {
		m.detections[d.ID] = d
	}
	for id, a := range tx.alerts {
		m.alerts[id] = a
	}
	for id, d := range tx.dispatches {
		m.dispatches[id] = d
	}
	m.audit = append(m.audit, tx.audit...)
	return nil
}

func (t *memTx) InsertDetection(_ context.Context, d *models.Detection) error {
	if t.store.FailWrites {
		return persistErr("insert detection", errMemWrite)
	}
	t.detections = append(t.detections, *d)
	return nil
}

func (t *memTx) InsertAlert(_ context.Context, a *models.Alert) error {
	if t.store.FailWrites {
		return persistErr("insert alert", errMemWrite)
	}
	t.alerts[a.ID] = *a
	return nil
}

func (t *memTx) GetAlert(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	if a, ok := t.alerts[id]; ok {
		return &a, nil
	}
	if a, ok := t.store.alerts[id]; ok {
		return &a, nil
	}
	return nil, ErrAlertNotFound
}

func (t *memTx) UpdateAlert(_ context.Context, a *models.Alert) error {
	if t.store.FailWrites {
		return persistErr("update alert", errMemWrite)
	}
	if _, ok := t.alerts[a.ID]; !ok {
		if _, ok := t.store.alerts[a.ID]; !ok {
			return ErrAlertNotFound
		}
	}
	t.alerts[a.ID] = *a
	return nil
}

func (t *memTx) InsertDispatch(_ context.Context, d *models.PatrolDispatch) error {
	if t.store.FailWrites {
		return persistErr("insert dispatch", errMemWrite)
	}
	t.dispatches[d.ID] = *d
	return nil
}

func (t *memTx) GetDispatch(_ context.Context, id uuid.UUID) (*models.PatrolDispatch, error) {
	if d, ok := t.dispatches[id]; ok {
		return &d, nil
	}
	if d, ok := t.store.dispatches[id]; ok {
		return &d, nil
	}
	return nil, ErrDispatchNotFound
}

func (t *memTx) ActiveDispatch(_ context.Context, alertID uuid.UUID) (*models.PatrolDispatch, error) {
	var found *models.PatrolDispatch
	consider := func(d models.PatrolDispatch) {
		if d.AlertID != alertID || d.Status.Terminal() {
			return
		}
		if found == nil || d.DispatchedAt.After(found.DispatchedAt) {
			v := d
			found = &v
		}
	}
	for _, d := range t.store.dispatches {
		if _, shadowed := t.dispatches[d.ID]; shadowed {
			continue
		}
		consider(d)
	}
	for _, d := range t.dispatches {
		consider(d)
	}
	return found, nil
}

func (t *memTx) UpdateDispatch(_ context.Context, d *models.PatrolDispatch) error {
	if t.store.FailWrites {
		return persistErr("update dispatch", errMemWrite)
	}
	if _, ok := t.dispatches[d.ID]; !ok {
		if _, ok := t.store.dispatches[d.ID]; !ok {
			return ErrDispatchNotFound
		}
	}
	t.dispatches[d.ID] = *d
	return nil
}

func (t *memTx) AppendAudit(_ context.Context, e models.AuditEntry) error {
	if t.store.FailWrites {
		return persistErr("append audit", errMemWrite)
	}
	t.audit = append(t.audit, e)
	return nil
}

// Store-level reads.

func (m *MemoryStore) GetAlert(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.alerts[id]; ok {
		return &a, nil
	}
	return nil, ErrAlertNotFound
}

func (m *MemoryStore) ListAlerts(_ context.Context, f AlertFilter) ([]models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Alert
	for _, a := range m.alerts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Level != "" && a.ThreatLevel != f.Level {
			continue
		}
		if f.Grid != "" && a.GridReference != f.Grid {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetDetection(_ context.Context, id uuid.UUID) (*models.Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.detections[id]; ok {
		return &d, nil
	}
	return nil, ErrDetectionNotFound
}

// DetectionCount reports the number of stored detections.
func (m *MemoryStore) DetectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.detections)
}

func (m *MemoryStore) GetDispatch(_ context.Context, id uuid.UUID) (*models.PatrolDispatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.dispatches[id]; ok {
		return &d, nil
	}
	return nil, ErrDispatchNotFound
}

func (m *MemoryStore) ListDispatches(_ context.Context, alertID uuid.UUID) ([]models.PatrolDispatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PatrolDispatch
	for _, d := range m.dispatches {
		if d.AlertID == alertID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DispatchedAt.Before(out[j].DispatchedAt) })
	return out, nil
}

// Audit log.

func (m *MemoryStore) AppendAudit(_ context.Context, e models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return persistErr("append audit", errMemWrite)
	}
	m.audit = append(m.audit, e)
	return nil
}

func (m *MemoryStore) LastAudit(_ context.Context) (*models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.audit) == 0 {
		return nil, nil
	}
	e := m.audit[len(m.audit)-1]
	return &e, nil
}

func (m *MemoryStore) LastAuditSeq(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.audit) == 0 {
		return 0, nil
	}
	return m.audit[len(m.audit)-1].Seq, nil
}

func (m *MemoryStore) AuditRange(_ context.Context, from, to int64) ([]models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AuditEntry
	for _, e := range m.audit {
		if e.Seq >= from && e.Seq <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

// Statistics.

func (m *MemoryStore) CollectDay(_ context.Context, from, to time.Time) (DayTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var t DayTotals
	in := func(ts time.Time) bool { return !ts.Before(from) && ts.Before(to) }

	for _, d := range m.detections {
		if !in(d.CapturedAt) {
			continue
		}
		t.TotalDetections++
		bumpLevel(&t.DetectionsByLevel, d.ThreatLevel)
	}

	var responseSum float64
	var responseCount int64
	for _, a := range m.alerts {
		if !in(a.CreatedAt) {
			continue
		}
		t.TotalAlerts++
		bumpLevel(&t.AlertsByLevel, a.ThreatLevel)
		if a.FalseAlarm {
			t.FalseAlarms++
		}
		if a.AcknowledgedAt != nil {
			responseSum += a.AcknowledgedAt.Sub(a.CreatedAt).Seconds()
			responseCount++
		}
	}
	if responseCount > 0 {
		t.AvgResponseSeconds = responseSum / float64(responseCount)
	}

	for _, d := range m.dispatches {
		if in(d.DispatchedAt) {
			t.Dispatches++
		}
	}
	return t, nil
}

func (m *MemoryStore) UpsertDailyStatistic(_ context.Context, s models.DailyStatistic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return persistErr("upsert daily statistic", errMemWrite)
	}
	m.stats[s.Date] = s
	return nil
}

func (m *MemoryStore) GetDailyStatistic(_ context.Context, date string) (*models.DailyStatistic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stats[date]; ok {
		return &s, nil
	}
	return nil, ErrStatisticNotFound
}

func bumpLevel(c *models.LevelCounts, level models.ThreatLevel) {
	switch level {
	case models.ThreatCritical:
		c.Critical++
	case models.ThreatHigh:
		c.High++
	case models.ThreatMedium:
		c.Medium++
	case models.ThreatLow:
		c.Low++
	default:
		c.NoThreat++
	}
}
