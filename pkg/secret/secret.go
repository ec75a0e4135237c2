// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package secret

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomBytes is how much entropy goes into a generated password.
const RandomBytes = 64

// Generator produces passwords.
type Generator interface {
	Generate() (string, error)
}

// Random generates URL-safe passwords from crypto/rand.
type Random struct{}

var _ Generator = Random{}

// Generate returns RandomBytes random bytes encoded as unpadded URL-safe
// base64.
func (Random) Generate() (string, error) {
	buf := make([]byte, RandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Static always returns the same password. Intended for tests.
type Static string

// Generate returns s.
func (s Static) Generate() (string, error) {
	return string(s), nil
}
