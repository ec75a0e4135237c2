// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/rs/zerolog"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/secret"
)

// Provisioner interface for resource operations
type Provisioner interface {
	Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error)
	Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error)
	Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error)
	Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error)
	List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error)
	Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error)
}

// Resource is a reconciler that can also render its state as properties.
type Resource interface {
	reconcile.Reconciler

	// ObservedProperties is the state found by Observe.
	ObservedProperties() any
	// DesiredProperties is the state once converged. Never carries secrets.
	DesiredProperties() any
}

// Deps are the collaborators a Resource may need.
type Deps struct {
	Passwords secret.Generator
	Log       zerolog.Logger
}

// Decoder fills a properties struct from caller input.
type Decoder func(into any) error
