// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package base

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/registry"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/runner"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/transport/pulp"
)

// API is the resource client used by BaseResource.
type API interface {
	reconcile.API
	List(ctx context.Context, path string, into any) error
}

// BaseResource provides CRUD operations for any registered kind by running
// its reconciler.
type BaseResource struct {
	Kind registry.Kind
	API  API
	Deps prov.Deps
}

var _ prov.Provisioner = &BaseResource{}

// New creates the provisioner for kind.
func New(kind registry.Kind, api API, deps prov.Deps) *BaseResource {
	return &BaseResource{Kind: kind, API: api, Deps: deps}
}

// Create performs a CREATE operation
func (b *BaseResource) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	res, err := b.build(request.Properties, map[string]any{"state": string(reconcile.Present)})
	if err != nil {
		return b.createFailureResult("", err), nil
	}

	if err := b.converge(ctx, res); err != nil {
		return b.createFailureResult(res.ID(), err), nil
	}

	propsJSON, err := json.Marshal(res.DesiredProperties())
	if err != nil {
		return b.createFailureResult(res.ID(), err), nil
	}

	return &resource.CreateResult{
		ProgressResult: &resource.ProgressResult{
			Operation:          resource.OperationCreate,
			OperationStatus:    resource.OperationStatusSuccess,
			NativeID:           res.ID(),
			ResourceProperties: propsJSON,
		},
	}, nil
}

// Read performs a READ operation
func (b *BaseResource) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	res, err := b.build(nil, map[string]any{b.Kind.IDField: request.NativeID})
	if err != nil {
		return &resource.ReadResult{ErrorCode: errorCode(err)}, nil
	}

	found, err := res.Observe(ctx, b.API)
	if err != nil {
		return &resource.ReadResult{ErrorCode: errorCode(err)}, nil
	}
	if !found {
		return &resource.ReadResult{ErrorCode: resource.OperationErrorCodeNotFound}, nil
	}

	propsJSON, err := json.Marshal(res.ObservedProperties())
	if err != nil {
		return &resource.ReadResult{ErrorCode: resource.OperationErrorCodeServiceInternalError}, nil
	}

	return &resource.ReadResult{
		Properties: string(propsJSON),
	}, nil
}

// Update performs an UPDATE operation
func (b *BaseResource) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	res, err := b.build(request.DesiredProperties, map[string]any{
		b.Kind.IDField: request.NativeID,
		"state":        string(reconcile.Present),
	})
	if err != nil {
		return b.updateFailureResult(request.NativeID, err), nil
	}

	if err := b.converge(ctx, res); err != nil {
		return b.updateFailureResult(request.NativeID, err), nil
	}

	propsJSON, err := json.Marshal(res.DesiredProperties())
	if err != nil {
		return b.updateFailureResult(request.NativeID, err), nil
	}

	return &resource.UpdateResult{
		ProgressResult: &resource.ProgressResult{
			Operation:          resource.OperationUpdate,
			OperationStatus:    resource.OperationStatusSuccess,
			NativeID:           request.NativeID,
			ResourceProperties: propsJSON,
		},
	}, nil
}

// Delete performs a DELETE operation. A resource that is already gone is
// deleted successfully.
func (b *BaseResource) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	res, err := b.build(nil, map[string]any{
		b.Kind.IDField: request.NativeID,
		"state":        string(reconcile.Absent),
	})
	if err != nil {
		return b.deleteFailureResult(request.NativeID, err), nil
	}

	if err := b.converge(ctx, res); err != nil {
		return b.deleteFailureResult(request.NativeID, err), nil
	}

	return &resource.DeleteResult{
		ProgressResult: &resource.ProgressResult{
			Operation:       resource.OperationDelete,
			OperationStatus: resource.OperationStatusSuccess,
			NativeID:        request.NativeID,
		},
	}, nil
}

// List performs a LIST operation
func (b *BaseResource) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	var items []map[string]any
	if err := b.API.List(ctx, b.Kind.CollectionPath, &items); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	nativeIDs := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item[b.Kind.IDField].(string); ok && id != "" {
			nativeIDs = append(nativeIDs, id)
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

// Status checks operation status. Every operation completes synchronously.
func (b *BaseResource) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return &resource.StatusResult{
		ProgressResult: &resource.ProgressResult{
			Operation:       resource.OperationCheckStatus,
			OperationStatus: resource.OperationStatusSuccess,
			RequestID:       request.RequestID,
			NativeID:        request.NativeID,
		},
	}, nil
}

// build decodes properties, with overrides applied on top, into a resource
// of this kind.
func (b *BaseResource) build(properties json.RawMessage, overrides map[string]any) (prov.Resource, error) {
	decode := func(into any) error {
		props := map[string]any{}
		if len(properties) > 0 {
			if err := json.Unmarshal(properties, &props); err != nil {
				return &reconcile.UsageError{Msg: fmt.Sprintf("failed to parse properties: %v", err)}
			}
		}
		maps.Copy(props, overrides)

		raw, err := json.Marshal(props)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, into); err != nil {
			return &reconcile.UsageError{Msg: fmt.Sprintf("invalid properties: %v", err)}
		}
		return nil
	}
	return b.Kind.Factory(decode, b.Deps)
}

func (b *BaseResource) converge(ctx context.Context, res prov.Resource) error {
	r := &runner.Runner{API: b.API, Log: b.Deps.Log}
	_, err := r.Run(ctx, res)
	return err
}

func (b *BaseResource) createFailureResult(nativeID string, err error) *resource.CreateResult {
	return &resource.CreateResult{
		ProgressResult: &resource.ProgressResult{
			Operation:       resource.OperationCreate,
			OperationStatus: resource.OperationStatusFailure,
			ErrorCode:       errorCode(err),
			StatusMessage:   err.Error(),
			NativeID:        nativeID,
		},
	}
}

func (b *BaseResource) updateFailureResult(nativeID string, err error) *resource.UpdateResult {
	return &resource.UpdateResult{
		ProgressResult: &resource.ProgressResult{
			Operation:       resource.OperationUpdate,
			OperationStatus: resource.OperationStatusFailure,
			ErrorCode:       errorCode(err),
			StatusMessage:   err.Error(),
			NativeID:        nativeID,
		},
	}
}

func (b *BaseResource) deleteFailureResult(nativeID string, err error) *resource.DeleteResult {
	return &resource.DeleteResult{
		ProgressResult: &resource.ProgressResult{
			Operation:       resource.OperationDelete,
			OperationStatus: resource.OperationStatusFailure,
			ErrorCode:       errorCode(err),
			StatusMessage:   err.Error(),
			NativeID:        nativeID,
		},
	}
}

// errorCode classifies a reconciliation failure for formae.
func errorCode(err error) resource.OperationErrorCode {
	var (
		statusErr    *client.UnexpectedStatusError
		transportErr *pulp.Error
	)
	switch {
	case reconcile.IsUsageError(err):
		return resource.OperationErrorCodeInvalidRequest
	case errors.As(err, &statusErr):
		return pulp.ToResourceErrorCode(pulp.ClassifyHTTPStatus(statusErr.Status))
	case errors.As(err, &transportErr):
		return pulp.ToResourceErrorCode(transportErr.Code)
	default:
		return resource.OperationErrorCodeServiceInternalError
	}
}
