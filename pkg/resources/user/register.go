// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package user

import (
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/registry"
)

// ResourceType is the formae resource type of a Pulp user.
const ResourceType = "Pulp2::Auth::User"

func init() {
	registry.Register(registry.Kind{
		ResourceType:   ResourceType,
		Name:           "user",
		IDField:        "login",
		CollectionPath: "users/",
		Operations: []resource.Operation{
			resource.OperationCreate,
			resource.OperationRead,
			resource.OperationUpdate,
			resource.OperationDelete,
			resource.OperationList,
		},
		Factory: newResource,
	})
}

func newResource(decode prov.Decoder, deps prov.Deps) (prov.Resource, error) {
	var props Properties
	if err := decode(&props); err != nil {
		return nil, err
	}
	desired, err := props.Desired()
	if err != nil {
		return nil, err
	}
	return NewReconciler(desired, deps.Passwords), nil
}
