// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/testutil"
)

func newClient(fake *testutil.FakeTransport) *ResourceClient {
	return New(fake, zerolog.Nop())
}

func TestFetch(t *testing.T) {
	fake := testutil.NewFakeTransport().
		On(http.MethodGet, "roles/admins/", testutil.JSON(map[string]any{"id": "admins", "display_name": "Admins"})).
		On(http.MethodGet, "roles/missing/", testutil.NotFound())
	c := newClient(fake)

	var role struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	found, err := c.Fetch(context.Background(), "roles/admins/", &role)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Admins", role.DisplayName)

	found, err = c.Fetch(context.Background(), "roles/missing/", &role)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnexpectedStatus(t *testing.T) {
	tests := []struct {
		name string
		call func(*ResourceClient) error
		verb string
	}{
		{
			name: "fetch",
			verb: http.MethodGet,
			call: func(c *ResourceClient) error {
				_, err := c.Fetch(context.Background(), "foo/bar", nil)
				return err
			},
		},
		{
			name: "list",
			verb: http.MethodGet,
			call: func(c *ResourceClient) error {
				var out []any
				return c.List(context.Background(), "foo/bar", &out)
			},
		},
		{
			name: "create",
			verb: http.MethodPost,
			call: func(c *ResourceClient) error {
				return c.Create(context.Background(), "foo/bar", map[string]string{})
			},
		},
		{
			name: "update",
			verb: http.MethodPut,
			call: func(c *ResourceClient) error {
				return c.Update(context.Background(), "foo/bar", map[string]string{})
			},
		},
		{
			name: "delete",
			verb: http.MethodDelete,
			call: func(c *ResourceClient) error {
				return c.Delete(context.Background(), "foo/bar")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeTransport().On(tt.verb, "foo/bar", testutil.Reply{Status: 419, Body: "some response data"})

			err := tt.call(newClient(fake))
			require.Error(t, err)
			assert.Equal(t, "unexpected status 419 from URL https://pulp2.example.com/foo/bar", err.Error())

			var statusErr *UnexpectedStatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, 419, statusErr.Status)
			assert.Equal(t, tt.verb, statusErr.Method)
		})
	}
}

func TestWriteAcceptedStatuses(t *testing.T) {
	fake := testutil.NewFakeTransport().
		On(http.MethodPost, "roles/", testutil.Created()).
		On(http.MethodPut, "roles/admins/", testutil.OK()).
		On(http.MethodDelete, "roles/admins/", testutil.OK()).
		On(http.MethodDelete, "roles/gone/", testutil.NotFound())
	c := newClient(fake)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "roles/", map[string]string{"role_id": "admins"}))
	require.NoError(t, c.Update(ctx, "roles/admins/", map[string]any{"delta": map[string]string{}}))
	require.NoError(t, c.Delete(ctx, "roles/admins/"))
	require.NoError(t, c.Delete(ctx, "roles/gone/"), "deleting a missing resource is not an error")

	assert.Equal(t, []string{
		"POST https://pulp2.example.com/roles/",
		"PUT https://pulp2.example.com/roles/admins/",
		"DELETE https://pulp2.example.com/roles/admins/",
		"DELETE https://pulp2.example.com/roles/gone/",
	}, fake.Requests())
	assert.JSONEq(t, `{"role_id": "admins"}`, string(fake.Calls[0].Body))
}

func TestList(t *testing.T) {
	fake := testutil.NewFakeTransport().
		On(http.MethodGet, "users/", testutil.JSON([]map[string]string{{"login": "alice"}, {"login": "bob"}}))

	var users []struct {
		Login string `json:"login"`
	}
	require.NoError(t, newClient(fake).List(context.Background(), "users/", &users))
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Login)
}

func TestTransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	fake := testutil.NewFakeTransport().Fail(http.MethodGet, "roles/admins/", boom)

	_, err := newClient(fake).Fetch(context.Background(), "roles/admins/", nil)
	require.ErrorIs(t, err, boom)
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(&config.Config{}, zerolog.Nop())
	require.Error(t, err)

	c, err := NewFromConfig(&config.Config{PulpURL: "https://pulp.example.com/pulp/api/v2"}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, c)
}
