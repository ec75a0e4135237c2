// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import "fmt"

// Existence is whether a resource should exist.
type Existence string

const (
	Present Existence = "present"
	Absent  Existence = "absent"
)

// ParseExistence parses a state value. The empty string means Present.
func ParseExistence(s string) (Existence, error) {
	switch Existence(s) {
	case "", Present:
		return Present, nil
	case Absent:
		return Absent, nil
	default:
		return "", &UsageError{Msg: fmt.Sprintf("state must be one of %q, %q; got %q", Present, Absent, s)}
	}
}
