// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package secret

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom(t *testing.T) {
	a, err := Random{}.Generate()
	require.NoError(t, err)
	b, err := Random{}.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, base64.RawURLEncoding.EncodedLen(RandomBytes))
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, RandomBytes)
}

func TestStatic(t *testing.T) {
	got, err := Static("hunter2").Generate()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}
