// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package alerting

import (
	"sync"

	"github.com/google/uuid"
)

// lockRegistry hands out one mutex per alert, created on first use.
// Holding the alert's mutex serializes its read-validate-write-audit
// sequence against concurrent operators.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (r *lockRegistry) get(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}
