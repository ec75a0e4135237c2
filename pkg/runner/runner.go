// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package runner

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
)

// Result is the outcome of one invocation.
type Result struct {
	Changed bool   `json:"changed"`
	Msg     string `json:"msg,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

// Runner performs one reconciliation: a single read of the resource, then
// whatever writes converge it.
type Runner struct {
	API       reconcile.API
	CheckMode bool
	Log       zerolog.Logger
}

// Run reconciles rec and always returns a complete Result. The error is the
// failure behind a failed Result, or nil. A check-mode halt is a success
// whose Msg says what would have changed.
func (r *Runner) Run(ctx context.Context, rec reconcile.Reconciler) (Result, error) {
	log := r.Log.With().
		Str("invocation", uuid.NewString()).
		Str("resource", rec.ID()).
		Bool("check_mode", r.CheckMode).
		Logger()

	s := reconcile.NewSession(r.API, r.CheckMode, log)

	err := r.run(ctx, s, rec)
	if pending, ok := reconcile.AsPending(err); ok {
		return Result{Changed: s.Changed(), Msg: pending.Msg}, nil
	}
	if err != nil {
		log.Error().Err(err).Bool("changed", s.Changed()).Msg("reconciliation failed")
		return Result{Changed: s.Changed(), Msg: err.Error(), Failed: true}, err
	}

	log.Info().Bool("changed", s.Changed()).Msg("reconciliation finished")
	return Result{Changed: s.Changed()}, nil
}

func (r *Runner) run(ctx context.Context, s *reconcile.Session, rec reconcile.Reconciler) error {
	found, err := rec.Observe(ctx, s.API)
	if err != nil {
		return err
	}
	return rec.Reconcile(ctx, s, found)
}

// Failure builds the Result for an error raised before reconciliation
// started, such as invalid arguments.
func Failure(err error) Result {
	return Result{Msg: err.Error(), Failed: true}
}
