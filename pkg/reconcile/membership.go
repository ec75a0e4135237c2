// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import (
	"context"
	"net/url"
	"slices"
)

// Members is the desired membership of a role. The zero value leaves
// membership unmanaged; Exactly manages it, and Exactly() with no ids means
// the role should have no members at all.
type Members struct {
	managed bool
	ids     []string
}

// Unmanaged leaves role membership alone.
func Unmanaged() Members {
	return Members{}
}

// Exactly makes ids the complete membership of a role.
func Exactly(ids ...string) Members {
	return Members{managed: true, ids: slices.Clone(ids)}
}

// Managed reports whether membership should be reconciled.
func (m Members) Managed() bool {
	return m.managed
}

// IDs returns the desired member ids, or nil when unmanaged.
func (m Members) IDs() []string {
	if !m.managed {
		return nil
	}
	return slices.Clone(m.ids)
}

type memberBody struct {
	Login string `json:"login"`
}

// ReconcileMembership brings the members of roleID from current to desired.
// Removals are sent before additions.
func ReconcileMembership(ctx context.Context, s *Session, roleID string, current []string, desired Members) error {
	s.Log.Debug().
		Strs("current", current).
		Strs("desired", desired.IDs()).
		Bool("managed", desired.Managed()).
		Msg("reconciling members")

	if !desired.Managed() {
		return nil
	}

	toRemove, toAdd := Diff(current, desired.ids)
	if len(toRemove) == 0 && len(toAdd) == 0 {
		return nil
	}
	if err := s.Propose("would adjust users (check mode)"); err != nil {
		return err
	}

	usersPath := RolePath(roleID) + "users/"
	for _, login := range toRemove {
		if err := s.API.Delete(ctx, usersPath+url.PathEscape(login)+"/"); err != nil {
			return err
		}
	}
	for _, login := range toAdd {
		if err := s.API.Create(ctx, usersPath, memberBody{Login: login}); err != nil {
			return err
		}
	}
	return nil
}
