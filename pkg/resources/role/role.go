// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package role

import (
	"context"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
)

// DefaultDescription is used when no description is given.
const DefaultDescription = "deployed by ansible"

// Properties is the desired state of a role as supplied by the caller.
type Properties struct {
	ID          string              `json:"id" yaml:"id"`
	DisplayName string              `json:"display_name,omitempty" yaml:"display_name"`
	Description *string             `json:"description,omitempty" yaml:"description"`
	Permissions map[string][]string `json:"permissions,omitempty" yaml:"permissions"`
	Users       *[]string           `json:"users,omitempty" yaml:"users"`
	State       string              `json:"state,omitempty" yaml:"state"`
}

// Desired is a validated role desired state with defaults applied.
type Desired struct {
	ID          string
	DisplayName string
	Description string
	Permissions reconcile.Permissions
	Members     reconcile.Members
	Existence   reconcile.Existence
}

// Desired validates p and applies defaults.
func (p Properties) Desired() (Desired, error) {
	if p.ID == "" {
		return Desired{}, &reconcile.UsageError{Msg: "missing required argument: id"}
	}
	existence, err := reconcile.ParseExistence(p.State)
	if err != nil {
		return Desired{}, err
	}

	d := Desired{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Description: DefaultDescription,
		Permissions: reconcile.Permissions(p.Permissions),
		Existence:   existence,
	}
	if d.DisplayName == "" {
		d.DisplayName = p.ID
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if d.Permissions == nil {
		d.Permissions = reconcile.Permissions{}
	}
	if p.Users != nil {
		d.Members = reconcile.Exactly(*p.Users...)
	}
	return d, nil
}

// Observed is a role as returned by Pulp. Missing fields stay nil so that
// an absent display name differs from an empty one.
type Observed struct {
	ID          string                `json:"id"`
	DisplayName *string               `json:"display_name"`
	Description *string               `json:"description"`
	Permissions reconcile.Permissions `json:"permissions"`
	Users       []string              `json:"users"`
}

type createBody struct {
	RoleID      string `json:"role_id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type delta struct {
	DisplayName *string `json:"display_name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (d delta) empty() bool {
	return d.DisplayName == nil && d.Description == nil
}

type updateBody struct {
	Delta delta `json:"delta"`
}

// Reconciler converges one Pulp role.
type Reconciler struct {
	desired  Desired
	observed Observed
}

var _ reconcile.Reconciler = &Reconciler{}

// NewReconciler creates a reconciler for d.
func NewReconciler(d Desired) *Reconciler {
	return &Reconciler{desired: d}
}

// ID returns the role id.
func (r *Reconciler) ID() string {
	return r.desired.ID
}

func (r *Reconciler) path() string {
	return reconcile.RolePath(r.desired.ID)
}

// Observe fetches the current role.
func (r *Reconciler) Observe(ctx context.Context, api reconcile.API) (bool, error) {
	r.observed = Observed{}
	return api.Fetch(ctx, r.path(), &r.observed)
}

// Reconcile converges the role from the state found by Observe.
func (r *Reconciler) Reconcile(ctx context.Context, s *reconcile.Session, found bool) error {
	s.Log.Info().
		Str("role", r.desired.ID).
		Bool("found", found).
		Str("state", string(r.desired.Existence)).
		Msg("reconciling role")

	switch {
	case !found && r.desired.Existence == reconcile.Absent:
		return nil
	case !found:
		return r.create(ctx, s)
	case r.desired.Existence == reconcile.Absent:
		return r.delete(ctx, s)
	default:
		return r.update(ctx, s)
	}
}

func (r *Reconciler) create(ctx context.Context, s *reconcile.Session) error {
	if err := s.Propose("would create role (check mode)"); err != nil {
		return err
	}

	body := createBody{
		RoleID:      r.desired.ID,
		DisplayName: r.desired.DisplayName,
		Description: r.desired.Description,
	}
	if err := s.API.Create(ctx, "roles/", body); err != nil {
		return err
	}

	// A new role has no permissions or users yet.
	return r.adjust(ctx, s, reconcile.Permissions{}, []string{})
}

func (r *Reconciler) delete(ctx context.Context, s *reconcile.Session) error {
	if err := s.Propose("would delete role (check mode)"); err != nil {
		return err
	}
	return s.API.Delete(ctx, r.path())
}

func (r *Reconciler) update(ctx context.Context, s *reconcile.Session) error {
	var d delta
	if r.observed.DisplayName == nil || *r.observed.DisplayName != r.desired.DisplayName {
		d.DisplayName = &r.desired.DisplayName
	}
	if r.observed.Description == nil || *r.observed.Description != r.desired.Description {
		d.Description = &r.desired.Description
	}

	if !d.empty() {
		if err := s.Propose("would update role (check mode)"); err != nil {
			return err
		}
		if err := s.API.Update(ctx, r.path(), updateBody{Delta: d}); err != nil {
			return err
		}
	}

	return r.adjust(ctx, s, r.observed.Permissions, r.observed.Users)
}

func (r *Reconciler) adjust(ctx context.Context, s *reconcile.Session, permissions reconcile.Permissions, users []string) error {
	if err := reconcile.ReconcilePermissions(ctx, s, r.desired.ID, permissions, r.desired.Permissions); err != nil {
		return err
	}
	return reconcile.ReconcileMembership(ctx, s, r.desired.ID, users, r.desired.Members)
}

// ObservedProperties renders the role found by Observe.
func (r *Reconciler) ObservedProperties() any {
	users := r.observed.Users
	if users == nil {
		users = []string{}
	}
	permissions := r.observed.Permissions
	if permissions == nil {
		permissions = reconcile.Permissions{}
	}
	p := Properties{
		ID:          r.desired.ID,
		Description: r.observed.Description,
		Permissions: permissions,
		Users:       &users,
	}
	if r.observed.DisplayName != nil {
		p.DisplayName = *r.observed.DisplayName
	}
	return p
}

// DesiredProperties renders the role as it is once converged.
func (r *Reconciler) DesiredProperties() any {
	p := Properties{
		ID:          r.desired.ID,
		DisplayName: r.desired.DisplayName,
		Description: &r.desired.Description,
		Permissions: r.desired.Permissions,
		State:       string(r.desired.Existence),
	}
	if r.desired.Members.Managed() {
		users := r.desired.Members.IDs()
		if users == nil {
			users = []string{}
		}
		p.Users = &users
	}
	return p
}
