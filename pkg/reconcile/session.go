// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
)

// API is the subset of the resource client reconcilers write through.
type API interface {
	Fetch(ctx context.Context, path string, into any) (bool, error)
	Create(ctx context.Context, path string, body any) error
	Update(ctx context.Context, path string, body any) error
	Delete(ctx context.Context, path string) error
}

// Reconciler converges one resource. Observe is called once, then
// Reconcile with whether the resource was found.
type Reconciler interface {
	ID() string
	Observe(ctx context.Context, api API) (bool, error)
	Reconcile(ctx context.Context, s *Session, found bool) error
}

// Session carries the state of one invocation: the API, whether writes are
// allowed, and the changed flag accumulated so far.
type Session struct {
	API       API
	CheckMode bool
	Log       zerolog.Logger

	changed bool
}

// NewSession creates a session with changed unset.
func NewSession(api API, checkMode bool, log zerolog.Logger) *Session {
	return &Session{API: api, CheckMode: checkMode, Log: log}
}

// Changed reports whether any change was made or, in check mode, detected.
func (s *Session) Changed() bool {
	return s.changed
}

// Propose records that a change is about to be made. In check mode it
// returns a Pending halt carrying msg and the caller must stop without
// writing.
func (s *Session) Propose(msg string) error {
	s.changed = true
	if s.CheckMode {
		s.Log.Info().Msg(msg)
		return &Pending{Msg: msg}
	}
	return nil
}

// RolePath is the API path of a role.
func RolePath(id string) string {
	return fmt.Sprintf("roles/%s/", url.PathEscape(id))
}

// UserPath is the API path of a user.
func UserPath(login string) string {
	return fmt.Sprintf("users/%s/", url.PathEscape(login))
}
