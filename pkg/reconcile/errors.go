// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import "errors"

// UsageError reports desired state that contradicts itself. It is raised
// before any request is made.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return "usage error: " + e.Msg
}

// Pending halts a check-mode reconciliation at the first change it would
// make. It is not a failure.
type Pending struct {
	Msg string
}

func (p *Pending) Error() string {
	return p.Msg
}

// AsPending returns the Pending halt wrapped in err, if any.
func AsPending(err error) (*Pending, bool) {
	var p *Pending
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

// IsUsageError reports whether err is or wraps a UsageError.
func IsUsageError(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}
