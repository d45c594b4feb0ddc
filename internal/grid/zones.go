// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package grid

// Sensitivity classifies how closely a zone is watched. It feeds the zone
// factor of the threat score.
type Sensitivity string

const (
	SensitivityCritical Sensitivity = "Critical"
	SensitivityHigh     Sensitivity = "High"
	SensitivityMedium   Sensitivity = "Medium"
	SensitivityLow      Sensitivity = "Low"
)

// ValidSensitivity reports whether s is a known sensitivity class.
func ValidSensitivity(s Sensitivity) bool {
	switch s {
	case SensitivityCritical, SensitivityHigh, SensitivityMedium, SensitivityLow:
		return true
	}
	return false
}

// Zone describes one grid cell's operational profile.
type Zone struct {
	Ref              Ref         `json:"ref"`
	Name             string      `json:"name"`
	Sensitivity      Sensitivity `json:"sensitivity"`
	Terrain          string      `json:"terrain,omitempty"`
	NearestUnit      string      `json:"nearest_unit,omitempty"`
	PatrolEtaMinutes int         `json:"patrol_eta_minutes,omitempty"`
}

// ZoneOverride customizes a single cell from configuration.
type ZoneOverride struct {
	Name             string `koanf:"name"`
	Sensitivity      string `koanf:"sensitivity"`
	Terrain          string `koanf:"terrain"`
	NearestUnit      string `koanf:"nearest_unit"`
	PatrolEtaMinutes int    `koanf:"patrol_eta_minutes"`
}

// Table holds the full 6x5 zone map. Built once at startup, read-only
// afterwards, safe for concurrent lookups.
type Table struct {
	zones map[Ref]Zone
}

// defaultSensitivity mirrors the original sector deployment: the top rows
// cover the fence line and approach road, the bottom rows open ground.
func defaultSensitivity(row int) Sensitivity {
	switch row {
	case 0:
		return SensitivityCritical
	case 1:
		return SensitivityHigh
	case 2:
		return SensitivityMedium
	default:
		return SensitivityLow
	}
}

// NewTable builds the zone table, applying per-cell overrides keyed by
// reference ("C-3"). Overrides with unknown references or sensitivities
// are reported as errors rather than silently dropped.
func NewTable(overrides map[string]ZoneOverride) (*Table, error) {
	zones := make(map[Ref]Zone, Columns*Rows)
	for col := 0; col < Columns; col++ {
		for row := 0; row < Rows; row++ {
			ref := MakeRef(col, row)
			zones[ref] = Zone{
				Ref:         ref,
				Name:        string(ref),
				Sensitivity: defaultSensitivity(row),
			}
		}
	}
	for key, ov := range overrides {
		ref := Ref(key)
		if _, _, err := ParseRef(ref); err != nil {
			return nil, err
		}
		z := zones[ref]
		if ov.Name != "" {
			z.Name = ov.Name
		}
		if ov.Sensitivity != "" {
			s := Sensitivity(ov.Sensitivity)
			if !ValidSensitivity(s) {
				return nil, &overrideError{ref: ref, field: "sensitivity", value: ov.Sensitivity}
			}
			z.Sensitivity = s
		}
		if ov.Terrain != "" {
			z.Terrain = ov.Terrain
		}
		if ov.NearestUnit != "" {
			z.NearestUnit = ov.NearestUnit
		}
		if ov.PatrolEtaMinutes > 0 {
			z.PatrolEtaMinutes = ov.PatrolEtaMinutes
		}
		zones[ref] = z
	}
	return &Table{zones: zones}, nil
}

// Zone returns the zone for ref. The second return is false for a
// reference outside the grid.
func (t *Table) Zone(ref Ref) (Zone, bool) {
	z, ok := t.zones[ref]
	return z, ok
}

// All returns every zone, in no particular order.
func (t *Table) All() []Zone {
	out := make([]Zone, 0, len(t.zones))
	for _, z := range t.zones {
		out = append(out, z)
	}
	return out
}

type overrideError struct {
	ref   Ref
	field string
	value string
}

func (e *overrideError) Error() string {
	return "grid: zone override " + string(e.ref) + ": invalid " + e.field + " " + e.value
}
