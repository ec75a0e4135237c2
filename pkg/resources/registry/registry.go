// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"slices"
	"sync"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
)

// Factory builds a resource from decoded properties.
type Factory func(decode prov.Decoder, deps prov.Deps) (prov.Resource, error)

// Kind describes a registered resource kind.
type Kind struct {
	// formae resource type, e.g. "Pulp2::Auth::Role"
	ResourceType string
	// Short name used on the command line, e.g. "role"
	Name string
	// Property holding the native ID
	IDField string
	// API path listing every resource of this kind
	CollectionPath string
	Operations     []resource.Operation
	Factory        Factory
}

var (
	mu     sync.RWMutex
	byType = make(map[string]Kind)
	byName = make(map[string]Kind)
)

// Register registers a resource kind
func Register(kind Kind) {
	mu.Lock()
	defer mu.Unlock()
	byType[kind.ResourceType] = kind
	byName[kind.Name] = kind
}

// Get returns the kind registered for a formae resource type
func Get(resourceType string) (Kind, bool) {
	mu.RLock()
	defer mu.RUnlock()
	kind, ok := byType[resourceType]
	return kind, ok
}

// ByName returns the kind registered under a short name
func ByName(name string) (Kind, bool) {
	mu.RLock()
	defer mu.RUnlock()
	kind, ok := byName[name]
	return kind, ok
}

// HasProvisioner checks if a resource type is registered
func HasProvisioner(resourceType string) bool {
	_, ok := Get(resourceType)
	return ok
}

// GetOperations returns supported operations for a resource type
func GetOperations(resourceType string) []resource.Operation {
	kind, ok := Get(resourceType)
	if !ok {
		return nil
	}
	return kind.Operations
}

// ResourceTypes returns all registered resource types, sorted
func ResourceTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Names returns the short names of all registered kinds, sorted
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
