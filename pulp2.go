// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platform-engineering-labs/formae/pkg/plugin"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/rs/zerolog/log"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/base"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/registry"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/secret"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/transport/pulp"

	// Import resources to trigger init() registration
	_ "github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/role"
	_ "github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/user"
)

// Plugin implements the Formae ResourcePlugin interface.
// The SDK automatically provides identity methods (Name, Version, Namespace)
// and schema methods (SupportedResources, SchemaForResourceType) by reading
// formae-plugin.pkl and schema/pkl/ at startup.
type Plugin struct{}

// Compile-time check: Plugin must satisfy ResourcePlugin interface.
var _ plugin.ResourcePlugin = &Plugin{}

// RateLimit returns the rate limit configuration for this plugin
func (p *Plugin) RateLimit() plugin.RateLimitConfig {
	return plugin.RateLimitConfig{
		Scope:                            plugin.RateLimitScopeNamespace,
		MaxRequestsPerSecondForNamespace: 5, // Pulp 2 runs on a single Django worker pool
	}
}

// DiscoveryFilters returns declarative filters for discovery.
// Pulp doesn't need any special filters.
func (p *Plugin) DiscoveryFilters() []plugin.MatchFilter {
	return nil
}

// LabelConfig returns the label extraction configuration for discovered
// Pulp resources. Roles are keyed by id, users by login.
func (p *Plugin) LabelConfig() plugin.LabelConfig {
	return plugin.LabelConfig{
		DefaultQuery: "$.id",
		ResourceOverrides: map[string]string{
			"Pulp2::Auth::User": "$.login",
		},
	}
}

func (p *Plugin) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.CreateResult, error) {
		return provisioner.Create(ctx, request)
	})
}

func (p *Plugin) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.ReadResult, error) {
		return provisioner.Read(ctx, request)
	})
}

func (p *Plugin) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.UpdateResult, error) {
		return provisioner.Update(ctx, request)
	})
}

func (p *Plugin) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.DeleteResult, error) {
		return provisioner.Delete(ctx, request)
	})
}

func (p *Plugin) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.StatusResult, error) {
		return provisioner.Status(ctx, request)
	})
}

func (p *Plugin) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	return withProvisioner(request.ResourceType, request.TargetConfig, func(provisioner prov.Provisioner) (*resource.ListResult, error) {
		return provisioner.List(ctx, request)
	})
}

// withProvisioner builds the provisioner for resourceType against the target
// and runs fn with it. Client key material from the environment is written
// to temporary files for the duration of fn only.
func withProvisioner[T any](resourceType string, targetConfig json.RawMessage, fn func(prov.Provisioner) (T, error)) (T, error) {
	var result T

	// Extract config from target
	cfg, err := config.FromTargetConfig(targetConfig)
	if err != nil {
		return result, fmt.Errorf("failed to extract config from target: %w", err)
	}

	// Check if resource type is supported
	kind, ok := registry.Get(resourceType)
	if !ok {
		return result, fmt.Errorf("unsupported resource type: %s", resourceType)
	}

	logger := log.Logger.With().Str("resourceType", resourceType).Logger()
	err = pulp.WithPEMFiles(cfg, func(cfg *config.Config) error {
		// Create Pulp client
		api, err := client.NewFromConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create Pulp client: %w", err)
		}

		provisioner := base.New(kind, api, prov.Deps{Passwords: secret.Random{}, Log: logger})
		result, err = fn(provisioner)
		return err
	})
	return result, err
}
