// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import (
	"context"
	"maps"
	"slices"
)

const (
	revokePath = "permissions/actions/revoke_from_role/"
	grantPath  = "permissions/actions/grant_to_role/"
)

// Permissions maps a resource path to the operations granted on it.
type Permissions map[string][]string

// PermissionChange is one grant or revoke request.
type PermissionChange struct {
	Resource   string
	Operations []string
}

// PermissionPlan is the ordered set of permission writes for a role. Both
// lists are sorted by resource path.
type PermissionPlan struct {
	Revoke []PermissionChange
	Grant  []PermissionChange
}

// Empty reports whether the plan has nothing to do.
func (p PermissionPlan) Empty() bool {
	return len(p.Revoke) == 0 && len(p.Grant) == 0
}

// PlanPermissions diffs current against desired per resource path.
func PlanPermissions(current, desired Permissions) PermissionPlan {
	paths := slices.Sorted(maps.Keys(current))
	for path := range desired {
		if _, ok := current[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var plan PermissionPlan
	for _, path := range paths {
		revoke, grant := Diff(current[path], desired[path])
		if len(revoke) > 0 {
			plan.Revoke = append(plan.Revoke, PermissionChange{Resource: path, Operations: revoke})
		}
		if len(grant) > 0 {
			plan.Grant = append(plan.Grant, PermissionChange{Resource: path, Operations: grant})
		}
	}
	return plan
}

type permissionBody struct {
	RoleID     string   `json:"role_id"`
	Resource   string   `json:"resource"`
	Operations []string `json:"operations"`
}

// ReconcilePermissions brings the permissions of roleID from current to
// desired. Every revoke is sent before any grant. The first failed write
// aborts the rest.
func ReconcilePermissions(ctx context.Context, s *Session, roleID string, current, desired Permissions) error {
	plan := PlanPermissions(current, desired)
	s.Log.Debug().
		Interface("current", current).
		Interface("desired", desired).
		Msg("reconciling permissions")

	if plan.Empty() {
		return nil
	}
	if err := s.Propose("would adjust permissions (check mode)"); err != nil {
		return err
	}

	for _, step := range []struct {
		path    string
		changes []PermissionChange
	}{
		{revokePath, plan.Revoke},
		{grantPath, plan.Grant},
	} {
		for _, change := range step.changes {
			body := permissionBody{RoleID: roleID, Resource: change.Resource, Operations: change.Operations}
			if err := s.API.Create(ctx, step.path, body); err != nil {
				return err
			}
		}
	}
	return nil
}
