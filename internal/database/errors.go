// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package database

import (
	"errors"
	"fmt"
)

// Not-found sentinels, one per entity.
var (
	ErrAlertNotFound     = errors.New("database: alert not found")
	ErrDetectionNotFound = errors.New("database: detection not found")
	ErrDispatchNotFound  = errors.New("database: dispatch not found")
	ErrStatisticNotFound = errors.New("database: daily statistic not found")
)

// errMemWrite is the injected failure of MemoryStore.FailWrites.
var errMemWrite = errors.New("write failure injected")

// PersistenceError wraps a storage failure. Callers roll back whatever
// state change it interrupted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
