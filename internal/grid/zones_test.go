// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package grid

import "testing"

func TestNewTableDefaults(t *testing.T) {
	tbl, err := NewTable(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(tbl.All()); got != Columns*Rows {
		t.Fatalf("expected %d zones, got %d", Columns*Rows, got)
	}
	tests := []struct {
		ref  Ref
		want Sensitivity
	}{
		{"A-1", SensitivityCritical},
		{"F-1", SensitivityCritical},
		{"C-2", SensitivityHigh},
		{"D-3", SensitivityMedium},
		{"B-4", SensitivityLow},
		{"E-5", SensitivityLow},
	}
	for _, tc := range tests {
		z, ok := tbl.Zone(tc.ref)
		if !ok {
			t.Fatalf("Zone(%s): not found", tc.ref)
		}
		if z.Sensitivity != tc.want {
			t.Errorf("Zone(%s).Sensitivity = %s, want %s", tc.ref, z.Sensitivity, tc.want)
		}
	}
}

func TestNewTableOverrides(t *testing.T) {
	tbl, err := NewTable(map[string]ZoneOverride{
		"D-4": {Name: "river crossing", Sensitivity: "Critical", Terrain: "marsh", NearestUnit: "alpha-2", PatrolEtaMinutes: 12},
	})
	if err != nil {
		t.Fatal(err)
	}
	z, _ := tbl.Zone("D-4")
	if z.Sensitivity != SensitivityCritical {
		t.Errorf("override sensitivity = %s, want Critical", z.Sensitivity)
	}
	if z.Name != "river crossing" || z.Terrain != "marsh" || z.NearestUnit != "alpha-2" || z.PatrolEtaMinutes != 12 {
		t.Errorf("override fields not applied: %+v", z)
	}
	// Neighbours keep their row default.
	if z, _ := tbl.Zone("C-4"); z.Sensitivity != SensitivityLow {
		t.Errorf("C-4 sensitivity = %s, want Low", z.Sensitivity)
	}
}

func TestNewTableRejectsBadOverrides(t *testing.T) {
	if _, err := NewTable(map[string]ZoneOverride{"Z-9": {Name: "x"}}); err == nil {
		t.Error("expected error for unknown reference")
	}
	if _, err := NewTable(map[string]ZoneOverride{"A-1": {Sensitivity: "Extreme"}}); err == nil {
		t.Error("expected error for unknown sensitivity")
	}
	if _, err := NewTable(map[string]ZoneOverride{}); err != nil {
		t.Errorf("empty overrides: %v", err)
	}
}

func TestZoneUnknownRef(t *testing.T) {
	tbl, err := NewTable(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.Zone("G-7"); ok {
		t.Error("Zone(G-7) reported ok for out-of-grid reference")
	}
}
