// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

// Package authz gates operator actions with casbin RBAC. The model and
// policy are embedded, so the role hierarchy ships with the binary:
// viewer < operator < supervisor < admin.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/gridsentry/gridsentry/internal/models"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var policyText string

// Resource and action names used in policies.
const (
	ResourceAlert     = "alert"
	ResourceDispatch  = "dispatch"
	ResourceAudit     = "audit"
	ResourceStatistic = "statistic"

	ActionView        = "view"
	ActionAcknowledge = "acknowledge"
	ActionDispatch    = "dispatch"
	ActionResolve     = "resolve"
	ActionArchive     = "archive"
	ActionUpdate      = "update"
	ActionVerify      = "verify"
	ActionRecompute   = "recompute"
)

// Enforcer answers role/resource/action questions.
type Enforcer struct {
	e *casbin.Enforcer
}

// New builds the enforcer from the embedded model and policy.
func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	if err := loadPolicy(e, policyText); err != nil {
		return nil, err
	}
	return &Enforcer{e: e}, nil
}

// Can reports whether role may perform action on resource. Unknown roles
// are denied, not errors.
func (a *Enforcer) Can(role models.Role, resource, action string) (bool, error) {
	ok, err := a.e.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce: %w", err)
	}
	return ok, nil
}

func loadPolicy(e *casbin.Enforcer, text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("authz: malformed policy line %q", line)
			}
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("authz: add policy %q: %w", line, err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("authz: malformed grouping line %q", line)
			}
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("authz: add grouping %q: %w", line, err)
			}
		default:
			return fmt.Errorf("authz: unknown policy type in line %q", line)
		}
	}
	return nil
}
