// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package user

import (
	"context"
	"strings"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/secret"
)

// ErrPasswordConflict is returned when both an explicit password and a
// random one are requested.
var ErrPasswordConflict = &reconcile.UsageError{Msg: "cannot set both 'password' and 'randomize_password'"}

// Properties is the desired state of a user as supplied by the caller.
type Properties struct {
	Login             string `json:"login" yaml:"login"`
	Name              string `json:"name,omitempty" yaml:"name"`
	Password          string `json:"password,omitempty" yaml:"password"`
	RandomizePassword bool   `json:"randomize_password,omitempty" yaml:"randomize_password"`
	State             string `json:"state,omitempty" yaml:"state"`
}

// Desired is a validated user desired state with defaults applied.
type Desired struct {
	Login string
	Name  string
	// Empty when the password is not managed
	Password          string
	RandomizePassword bool
	Existence         reconcile.Existence
}

// Desired validates p and applies defaults. A password made only of
// whitespace counts as unset.
func (p Properties) Desired() (Desired, error) {
	if p.Login == "" {
		return Desired{}, &reconcile.UsageError{Msg: "missing required argument: login"}
	}
	existence, err := reconcile.ParseExistence(p.State)
	if err != nil {
		return Desired{}, err
	}

	password := p.Password
	if strings.TrimSpace(password) == "" {
		password = ""
	}
	if password != "" && p.RandomizePassword {
		return Desired{}, ErrPasswordConflict
	}

	d := Desired{
		Login:             p.Login,
		Name:              p.Name,
		Password:          password,
		RandomizePassword: p.RandomizePassword,
		Existence:         existence,
	}
	if d.Name == "" {
		d.Name = p.Login
	}
	return d, nil
}

// Observed is a user as returned by Pulp. Pulp never returns passwords.
type Observed struct {
	Login string  `json:"login"`
	Name  *string `json:"name"`
}

type createBody struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type delta struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

type updateBody struct {
	Delta delta `json:"delta"`
}

// Reconciler converges one Pulp user.
type Reconciler struct {
	desired   Desired
	observed  Observed
	passwords secret.Generator
}

var _ reconcile.Reconciler = &Reconciler{}

// NewReconciler creates a reconciler for d drawing random passwords from
// passwords.
func NewReconciler(d Desired, passwords secret.Generator) *Reconciler {
	if passwords == nil {
		passwords = secret.Random{}
	}
	return &Reconciler{desired: d, passwords: passwords}
}

// ID returns the user login.
func (r *Reconciler) ID() string {
	return r.desired.Login
}

func (r *Reconciler) path() string {
	return reconcile.UserPath(r.desired.Login)
}

// Observe fetches the current user.
func (r *Reconciler) Observe(ctx context.Context, api reconcile.API) (bool, error) {
	r.observed = Observed{}
	return api.Fetch(ctx, r.path(), &r.observed)
}

// Reconcile converges the user from the state found by Observe.
func (r *Reconciler) Reconcile(ctx context.Context, s *reconcile.Session, found bool) error {
	s.Log.Info().
		Str("user", r.desired.Login).
		Bool("found", found).
		Str("state", string(r.desired.Existence)).
		Msg("reconciling user")

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
	if err := s.Propose("would create user (check mode)"); err != nil {
		return err
	}

	// Pulp stores a literal "None" when created without a password, so a
	// user created without one gets a random password instead.
	password := r.desired.Password
	if password == "" {
		generated, err := r.generate(s)
		if err != nil {
			return err
		}
		password = generated
	}

	body := createBody{Login: r.desired.Login, Name: r.desired.Name, Password: password}
	return s.API.Create(ctx, "users/", body)
}

func (r *Reconciler) delete(ctx context.Context, s *reconcile.Session) error {
	if err := s.Propose("would delete user (check mode)"); err != nil {
		return err
	}
	return s.API.Delete(ctx, r.path())
}

func (r *Reconciler) update(ctx context.Context, s *reconcile.Session) error {
	var d delta
	if r.observed.Name == nil || *r.observed.Name != r.desired.Name {
		d.Name = &r.desired.Name
	}

	// The current password cannot be read back, so any requested password
	// is always sent.
	changePassword := r.desired.Password != "" || r.desired.RandomizePassword
	if d.Name == nil && !changePassword {
		return nil
	}
	if err := s.Propose("would update user (check mode)"); err != nil {
		return err
	}

	if changePassword {
		password := r.desired.Password
		if r.desired.RandomizePassword {
			generated, err := r.generate(s)
			if err != nil {
				return err
			}
			password = generated
		}
		d.Password = &password
	}

	return s.API.Update(ctx, r.path(), updateBody{Delta: d})
}

func (r *Reconciler) generate(s *reconcile.Session) (string, error) {
	s.Log.Info().Str("user", r.desired.Login).Msg("generating a random password")
	return r.passwords.Generate()
}

// ObservedProperties renders the user found by Observe.
func (r *Reconciler) ObservedProperties() any {
	p := Properties{Login: r.desired.Login}
	if r.observed.Name != nil {
		p.Name = *r.observed.Name
	}
	return p
}

// DesiredProperties renders the user as it is once converged, without any
// password.
func (r *Reconciler) DesiredProperties() any {
	return Properties{
		Login:             r.desired.Login,
		Name:              r.desired.Name,
		RandomizePassword: r.desired.RandomizePassword,
		State:             string(r.desired.Existence),
	}
}
