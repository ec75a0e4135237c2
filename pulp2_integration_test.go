// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/role"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/user"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/testutil"
)

func uniqueName(kind string) string {
	return fmt.Sprintf("%s%s-%d", testutil.TestPrefix, kind, time.Now().UnixNano())
}

func TestPulp2RoleLifecycle_Integration(t *testing.T) {
	testutil.SkipIfPulpNotConfigured(t)
	ctx := context.Background()
	targetConfig := testutil.TargetConfig(t)
	p := &Plugin{}

	roleID := uniqueName("role")
	login := uniqueName("user")
	t.Cleanup(func() {
		_, _ = p.Delete(ctx, &resource.DeleteRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
		_, _ = p.Delete(ctx, &resource.DeleteRequest{ResourceType: user.ResourceType, NativeID: login, TargetConfig: targetConfig})
	})

	// Create a member first
	userProps, err := json.Marshal(map[string]any{"login": login, "randomize_password": true})
	require.NoError(t, err)
	created, err := p.Create(ctx, &resource.CreateRequest{
		ResourceType: user.ResourceType,
		Label:        login,
		Properties:   userProps,
		TargetConfig: targetConfig,
	})
	require.NoError(t, err)
	testutil.RequireCompleted(t, ctx, p, created.ProgressResult, user.ResourceType, targetConfig)
	assert.NotContains(t, string(created.ProgressResult.ResourceProperties), `"password"`)

	roleProps, err := json.Marshal(map[string]any{
		"id":          roleID,
		"permissions": map[string][]string{"/v2/repositories/": {"READ", "CREATE"}},
		"users":       []string{login},
	})
	require.NoError(t, err)
	createdRole, err := p.Create(ctx, &resource.CreateRequest{
		ResourceType: role.ResourceType,
		Label:        roleID,
		Properties:   roleProps,
		TargetConfig: targetConfig,
	})
	require.NoError(t, err)
	testutil.RequireCompleted(t, ctx, p, createdRole.ProgressResult, role.ResourceType, targetConfig)
	assert.Equal(t, roleID, createdRole.ProgressResult.NativeID)

	read, err := p.Read(ctx, &resource.ReadRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
	require.NoError(t, err)
	require.Empty(t, read.ErrorCode)

	var observed role.Observed
	require.NoError(t, json.Unmarshal([]byte(read.Properties), &observed))
	assert.ElementsMatch(t, []string{"READ", "CREATE"}, observed.Permissions["/v2/repositories/"])
	assert.Equal(t, []string{login}, observed.Users)

	// Narrow permissions and drop the member
	narrowed, err := json.Marshal(map[string]any{
		"id":          roleID,
		"permissions": map[string][]string{"/v2/repositories/": {"READ"}},
		"users":       []string{},
	})
	require.NoError(t, err)
	updated, err := p.Update(ctx, &resource.UpdateRequest{
		ResourceType:      role.ResourceType,
		NativeID:          roleID,
		Label:             roleID,
		DesiredProperties: narrowed,
		TargetConfig:      targetConfig,
	})
	require.NoError(t, err)
	testutil.RequireCompleted(t, ctx, p, updated.ProgressResult, role.ResourceType, targetConfig)

	read, err = p.Read(ctx, &resource.ReadRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
	require.NoError(t, err)
	observed = role.Observed{}
	require.NoError(t, json.Unmarshal([]byte(read.Properties), &observed))
	assert.Equal(t, []string{"READ"}, observed.Permissions["/v2/repositories/"])
	assert.Empty(t, observed.Users)

	list, err := p.List(ctx, &resource.ListRequest{ResourceType: role.ResourceType, TargetConfig: targetConfig})
	require.NoError(t, err)
	assert.Contains(t, list.NativeIDs, roleID)

	deleted, err := p.Delete(ctx, &resource.DeleteRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
	require.NoError(t, err)
	testutil.RequireCompleted(t, ctx, p, deleted.ProgressResult, role.ResourceType, targetConfig)

	gone, err := p.Read(ctx, &resource.ReadRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotFound, gone.ErrorCode)

	// Deleting again is a no-op
	again, err := p.Delete(ctx, &resource.DeleteRequest{ResourceType: role.ResourceType, NativeID: roleID, TargetConfig: targetConfig})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusSuccess, again.ProgressResult.OperationStatus)
}
