// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/gridsentry/gridsentry/internal/models"
)

func TestMap(t *testing.T) {
	const w, h = 1920.0, 1080.0 // cell = 320 x 216
	tests := []struct {
		name string
		x, y float64
		want Ref
	}{
		{"origin", 0, 0, "A-1"},
		{"center of C-3", 800, 500, "C-3"},
		{"bottom right corner", 1919, 1079, "F-5"},
		{"column boundary goes to lower band", 320, 100, "A-1"},
		{"just past column boundary", 321, 100, "B-1"},
		{"row boundary goes to lower band", 100, 216, "A-1"},
		{"just past row boundary", 100, 217, "A-2"},
		{"negative clamps to first cell", -50, -10, "A-1"},
		{"overflow clamps to last cell", 5000, 9000, "F-5"},
		{"exact frame extent clamps", 1920, 1080, "F-5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Map(tc.x, tc.y, w, h)
			if err != nil {
				t.Fatalf("Map(%v, %v): %v", tc.x, tc.y, err)
			}
			if got != tc.want {
				t.Errorf("Map(%v, %v) = %s, want %s", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestMapDeterministic(t *testing.T) {
	first, err := Map(777.7, 333.3, 1920, 1080)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		got, err := Map(777.7, 333.3, 1920, 1080)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("iteration %d: got %s, want %s", i, got, first)
		}
	}
}

func TestMapRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h float64
	}{
		{"nan x", math.NaN(), 10, 1920, 1080},
		{"inf y", 10, math.Inf(1), 1920, 1080},
		{"zero width", 10, 10, 0, 1080},
		{"negative height", 10, 10, 1920, -1},
		{"nan width", 10, 10, math.NaN(), 1080},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Map(tc.x, tc.y, tc.w, tc.h)
			if err == nil {
				t.Fatal("expected error")
			}
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	col, row, err := ParseRef("C-3")
	if err != nil {
		t.Fatal(err)
	}
	if col != 2 || row != 2 {
		t.Errorf("ParseRef(C-3) = (%d, %d), want (2, 2)", col, row)
	}
	for _, bad := range []Ref{"", "C3", "G-1", "A-6", "c-3", "AA-1"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q): expected error", bad)
		}
	}
}

func TestMakeRefClamps(t *testing.T) {
	if got := MakeRef(-1, -1); got != "A-1" {
		t.Errorf("MakeRef(-1, -1) = %s, want A-1", got)
	}
	if got := MakeRef(99, 99); got != "F-5" {
		t.Errorf("MakeRef(99, 99) = %s, want F-5", got)
	}
}
