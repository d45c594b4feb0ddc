// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package authz

import (
	"testing"

	"github.com/gridsentry/gridsentry/internal/models"
)

func TestRoleHierarchy(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		role     models.Role
		resource string
		action   string
		want     bool
	}{
		// Viewers only look.
		{models.RoleViewer, ResourceAlert, ActionView, true},
		{models.RoleViewer, ResourceAlert, ActionAcknowledge, false},
		{models.RoleViewer, ResourceAlert, ActionResolve, false},

		// Operators acknowledge but cannot dispatch or resolve.
		{models.RoleOperator, ResourceAlert, ActionAcknowledge, true},
		{models.RoleOperator, ResourceAlert, ActionView, true},
		{models.RoleOperator, ResourceAlert, ActionDispatch, false},
		{models.RoleOperator, ResourceAlert, ActionResolve, false},
		{models.RoleOperator, ResourceDispatch, ActionUpdate, false},

		// Supervisors inherit operator rights and add dispatch/resolve.
		{models.RoleSupervisor, ResourceAlert, ActionAcknowledge, true},
		{models.RoleSupervisor, ResourceAlert, ActionDispatch, true},
		{models.RoleSupervisor, ResourceAlert, ActionResolve, true},
		{models.RoleSupervisor, ResourceDispatch, ActionUpdate, true},
		{models.RoleSupervisor, ResourceAudit, ActionVerify, true},
		{models.RoleSupervisor, ResourceAlert, ActionArchive, false},

		// Admins can do everything.
		{models.RoleAdmin, ResourceAlert, ActionArchive, true},
		{models.RoleAdmin, ResourceAlert, ActionAcknowledge, true},
		{models.RoleAdmin, ResourceAlert, ActionDispatch, true},
		{models.RoleAdmin, ResourceStatistic, ActionRecompute, true},

		// Unknown roles are denied outright.
		{"intruder", ResourceAlert, ActionView, false},
	}
	for _, tc := range tests {
		got, err := a.Can(tc.role, tc.resource, tc.action)
		if err != nil {
			t.Fatalf("Can(%s, %s, %s): %v", tc.role, tc.resource, tc.action, err)
		}
		if got != tc.want {
			t.Errorf("Can(%s, %s, %s) = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}
