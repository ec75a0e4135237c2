// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromExecutable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/usr/share/ansible/plugins/modules/pulp_role", "role"},
		{"pulp_user.exe", "user"},
		{"pulp2-module", "pulp2-module"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindFromExecutable(tt.in), tt.in)
	}
}

func TestRun_UnknownKind(t *testing.T) {
	t.Setenv("PULP2_API_LOG", "")
	var out bytes.Buffer
	err := run([]string{"pulp2-module"}, strings.NewReader("{}"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "pulp2-module"`)
	assert.Empty(t, out.String())
}

func TestRun_FromFile(t *testing.T) {
	t.Setenv("PULP2_API_LOG", "")
	var writes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writes++
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "args.json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"id": "admins", "pulp_url": %q}`, srv.URL)), 0o600))

	var out bytes.Buffer
	err := run([]string{"pulp_role", "--check", path}, nil, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"changed": true, "msg": "would create role (check mode)"}`, out.String())
	assert.Zero(t, writes)
}

func TestRun_FailureExitCode(t *testing.T) {
	t.Setenv("PULP2_API_LOG", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(419)
	}))
	defer srv.Close()

	var out bytes.Buffer
	args := fmt.Sprintf(`{"login": "alice", "pulp_url": %q}`, srv.URL+"/")
	err := run([]string{"pulp2-module", "--kind", "user"}, strings.NewReader(args), &out)

	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.JSONEq(t, fmt.Sprintf(`{"changed": false, "failed": true, "msg": "unexpected status 419 from URL %s/users/alice/"}`, srv.URL), out.String())
}

func TestRun_InvalidArgumentsStillEmitResult(t *testing.T) {
	t.Setenv("PULP2_API_LOG", "")
	var out bytes.Buffer
	err := run([]string{"pulp_user", "-"}, strings.NewReader(`[]`), &out)

	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.JSONEq(t, `{"changed": false, "failed": true, "msg": "usage error: arguments must be a mapping"}`, out.String())
}
