// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/role"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/user"
)

// pulpStub serves a fixed set of role records and records every write.
type pulpStub struct {
	mu     sync.Mutex
	roles  map[string]string
	writes []string
}

func newPulpStub(t *testing.T) (*pulpStub, json.RawMessage) {
	t.Helper()
	for _, key := range []string{"PULP2_URL", "PULP2_USERNAME", "PULP2_PASSWORD", "PULP2_CLIENT_CERT", "PULP2_CLIENT_KEY"} {
		t.Setenv(key, "")
	}

	stub := &pulpStub{roles: map[string]string{
		"admins": `{"id": "admins", "display_name": "admins", "description": "deployed by ansible", "permissions": {}, "users": []}`,
	}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	target, err := json.Marshal(map[string]any{"pulpURL": srv.URL + "/pulp/api/v2"})
	require.NoError(t, err)
	return stub, target
}

func (s *pulpStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method != http.MethodGet {
		body, _ := io.ReadAll(r.Body)
		s.writes = append(s.writes, fmt.Sprintf("%s %s %s", r.Method, r.URL.Path, body))
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.URL.Path {
	case "/pulp/api/v2/roles/":
		out := "["
		for _, body := range s.roles {
			out += body
		}
		fmt.Fprint(w, out+"]")
	case "/pulp/api/v2/roles/admins/":
		fmt.Fprint(w, s.roles["admins"])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestPlugin_LabelConfig(t *testing.T) {
	p := &Plugin{}
	cfg := p.LabelConfig()
	assert.Equal(t, "$.id", cfg.DefaultQuery)
	assert.Equal(t, "$.login", cfg.ResourceOverrides[user.ResourceType])
	assert.Nil(t, p.DiscoveryFilters())
}

func TestPlugin_UnsupportedResourceType(t *testing.T) {
	_, target := newPulpStub(t)

	_, err := (&Plugin{}).Read(context.Background(), &resource.ReadRequest{
		ResourceType: "Pulp2::Repo::Repository",
		NativeID:     "zoo",
		TargetConfig: target,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported resource type: Pulp2::Repo::Repository")
}

func TestPlugin_MissingTarget(t *testing.T) {
	newPulpStub(t)

	_, err := (&Plugin{}).List(context.Background(), &resource.ListRequest{ResourceType: role.ResourceType})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract config from target")
}

func TestPlugin_ReadAndList(t *testing.T) {
	stub, target := newPulpStub(t)
	ctx := context.Background()
	p := &Plugin{}

	read, err := p.Read(ctx, &resource.ReadRequest{ResourceType: role.ResourceType, NativeID: "admins", TargetConfig: target})
	require.NoError(t, err)
	assert.Empty(t, read.ErrorCode)
	assert.Contains(t, read.Properties, `"id":"admins"`)

	missing, err := p.Read(ctx, &resource.ReadRequest{ResourceType: role.ResourceType, NativeID: "ghosts", TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotFound, missing.ErrorCode)

	list, err := p.List(ctx, &resource.ListRequest{ResourceType: role.ResourceType, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, []string{"admins"}, list.NativeIDs)
	assert.Empty(t, stub.writes)
}

func TestPlugin_CreateRole(t *testing.T) {
	stub, target := newPulpStub(t)

	result, err := (&Plugin{}).Create(context.Background(), &resource.CreateRequest{
		ResourceType: role.ResourceType,
		Label:        "operators",
		Properties:   json.RawMessage(`{"id": "operators", "permissions": {"/v2/repositories/": ["READ"]}}`),
		TargetConfig: target,
	})
	require.NoError(t, err)
	require.NotNil(t, result.ProgressResult)
	assert.Equal(t, resource.OperationStatusSuccess, result.ProgressResult.OperationStatus, result.ProgressResult.StatusMessage)
	assert.Equal(t, "operators", result.ProgressResult.NativeID)

	assert.Equal(t, []string{
		`POST /pulp/api/v2/roles/ {"role_id":"operators","display_name":"operators","description":"deployed by ansible"}`,
		`POST /pulp/api/v2/permissions/actions/grant_to_role/ {"role_id":"operators","resource":"/v2/repositories/","operations":["READ"]}`,
	}, stub.writes)
}

func TestPlugin_Status(t *testing.T) {
	_, target := newPulpStub(t)

	status, err := (&Plugin{}).Status(context.Background(), &resource.StatusRequest{
		RequestID:    "req-1",
		NativeID:     "admins",
		ResourceType: role.ResourceType,
		TargetConfig: target,
	})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusSuccess, status.ProgressResult.OperationStatus)
	assert.Equal(t, "req-1", status.ProgressResult.RequestID)
}
