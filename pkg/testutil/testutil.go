// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package testutil

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/require"
)

var (
	// Pulp 2 server for integration tests - read from environment variables
	PulpURL      = os.Getenv("PULP2_TEST_URL")
	PulpUsername = getEnvOrDefault("PULP2_TEST_USERNAME", "admin")
	PulpPassword = getEnvOrDefault("PULP2_TEST_PASSWORD", "admin")

	// Prefix for every role and user an integration test creates
	TestPrefix = getEnvOrDefault("PULP2_TEST_PREFIX", "formae-it-")
)

// getEnvOrDefault returns the environment variable value or the default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsPulpConfigured returns true if a Pulp 2 server is available for integration tests
func IsPulpConfigured() bool {
	return PulpURL != ""
}

// SkipIfPulpNotConfigured skips the test if no Pulp 2 server is configured
func SkipIfPulpNotConfigured(t interface{ Skip(...any) }) {
	if !IsPulpConfigured() {
		t.Skip("Skipping test: Pulp 2 server not configured. Set PULP2_TEST_URL (and optionally PULP2_TEST_USERNAME, PULP2_TEST_PASSWORD).")
	}
}

// TargetConfig returns the formae target config for the integration server
// and exports the credentials the way the plugin expects to find them.
func TargetConfig(t *testing.T) json.RawMessage {
	t.Helper()
	t.Setenv("PULP2_USERNAME", PulpUsername)
	t.Setenv("PULP2_PASSWORD", PulpPassword)

	raw, err := json.Marshal(map[string]any{
		"pulpURL":        PulpURL,
		"validateCerts":  false,
		"forceBasicAuth": true,
	})
	require.NoError(t, err)
	return raw
}

// StatusChecker defines the interface for checking operation status
type StatusChecker interface {
	Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error)
}

// RequireCompleted asserts that a finished operation reports success when
// its status is checked.
func RequireCompleted(
	t *testing.T,
	ctx context.Context,
	checker StatusChecker,
	progress *resource.ProgressResult,
	resourceType string,
	targetConfig json.RawMessage,
) *resource.StatusResult {
	t.Helper()
	require.NotNil(t, progress, "progress result should not be nil")
	require.Equal(t, resource.OperationStatusSuccess, progress.OperationStatus,
		"operation failed: %s (error code: %s)", progress.StatusMessage, progress.ErrorCode)

	status, err := checker.Status(ctx, &resource.StatusRequest{
		RequestID:    progress.RequestID,
		NativeID:     progress.NativeID,
		ResourceType: resourceType,
		TargetConfig: targetConfig,
	})
	require.NoError(t, err, "status check should not return error")
	require.NotNil(t, status.ProgressResult, "status progress result should not be nil")
	require.Equal(t, resource.OperationStatusSuccess, status.ProgressResult.OperationStatus)
	return status
}
