// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package grid maps frame pixel coordinates onto the fixed 6x5 sector grid
// and resolves grid references to configured zones.
//
// The grid has 6 columns labelled A-F left to right and 5 rows numbered
// 1-5 top to bottom. A reference reads "C-3". Mapping is pure: same inputs
// always produce the same reference.
package grid

import (
	"fmt"
	"math"

	"github.com/gridsentry/gridsentry/internal/models"
)

const (
	// Columns and Rows are the fixed grid dimensions.
	Columns = 6
	Rows    = 5
)

var columnLabels = [Columns]string{"A", "B", "C", "D", "E", "F"}

// Ref is a grid cell reference in "C-3" form.
type Ref string

// MakeRef builds a reference from zero-based column and row indexes.
// Indexes out of range are clamped.
func MakeRef(col, row int) Ref {
	if col < 0 {
		col = 0
	} else if col >= Columns {
		col = Columns - 1
	}
	if row < 0 {
		row = 0
	} else if row >= Rows {
		row = Rows - 1
	}
	return Ref(fmt.Sprintf("%s-%d", columnLabels[col], row+1))
}

// ParseRef splits a reference back into zero-based column and row indexes.
func ParseRef(ref Ref) (col, row int, err error) {
	s := string(ref)
	if len(s) != 3 || s[1] != '-' {
		return 0, 0, models.NewValidationError("grid_reference", "malformed reference %q", s)
	}
	col = int(s[0] - 'A')
	row = int(s[2] - '1')
	if col < 0 || col >= Columns || row < 0 || row >= Rows {
		return 0, 0, models.NewValidationError("grid_reference", "reference %q out of range", s)
	}
	return col, row, nil
}

// Map converts the pixel coordinate (x, y) within a frame of the given
// dimensions to its grid reference.
//
// A coordinate lying exactly on a band boundary belongs to the
// lower-indexed band. Coordinates outside the frame clamp to the edge
// cells. Non-finite coordinates or non-positive dimensions are rejected.
func Map(x, y, width, height float64) (Ref, error) {
	if !isFinite(x) || !isFinite(y) {
		return "", models.NewValidationError("coordinate", "non-finite coordinate (%v, %v)", x, y)
	}
	if !isFinite(width) || !isFinite(height) || width <= 0 || height <= 0 {
		return "", models.NewValidationError("frame", "non-positive frame dimensions %vx%v", width, height)
	}
	return MakeRef(bandIndex(x, width, Columns), bandIndex(y, height, Rows)), nil
}

// bandIndex places v within n equal bands spanning [0, extent]. Exact
// boundary values fall into the lower band; out-of-range values clamp.
func bandIndex(v, extent float64, n int) int {
	if v <= 0 {
		return 0
	}
	if v >= extent {
		return n - 1
	}
	idx := int(math.Ceil(v*float64(n)/extent)) - 1
	if idx < 0 {
		idx = 0
	} else if idx >= n {
		idx = n - 1
	}
	return idx
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
