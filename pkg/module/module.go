// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package module runs one reconciliation from an Ansible-style arguments
// record and produces the result record.
package module

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/reconcile"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/registry"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/runner"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/transport/pulp"
)

// argsWrapperKey wraps the arguments when Ansible passes them on stdin.
const argsWrapperKey = "ANSIBLE_MODULE_ARGS"

// Invocation is a parsed arguments record.
type Invocation struct {
	Kind      registry.Kind
	Config    config.Config
	CheckMode bool

	args *yaml.Node
}

type invocationFlags struct {
	CheckMode bool `yaml:"_ansible_check_mode"`
}

// Parse reads an arguments record for kind. data may be JSON or YAML, bare
// or wrapped in ANSIBLE_MODULE_ARGS.
func Parse(kind registry.Kind, data []byte) (*Invocation, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &reconcile.UsageError{Msg: fmt.Sprintf("failed to parse arguments: %v", err)}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &reconcile.UsageError{Msg: "arguments must be a mapping"}
	}
	args := unwrap(doc.Content[0])

	inv := &Invocation{Kind: kind, args: args}
	if err := args.Decode(&inv.Config); err != nil {
		return nil, &reconcile.UsageError{Msg: fmt.Sprintf("invalid connection arguments: %v", err)}
	}
	var flags invocationFlags
	if err := args.Decode(&flags); err != nil {
		return nil, &reconcile.UsageError{Msg: fmt.Sprintf("invalid arguments: %v", err)}
	}
	inv.CheckMode = flags.CheckMode
	return inv, nil
}

func unwrap(mapping *yaml.Node) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == argsWrapperKey && mapping.Content[i+1].Kind == yaml.MappingNode {
			return mapping.Content[i+1]
		}
	}
	return mapping
}

// Decoder decodes the kind-specific arguments.
func (inv *Invocation) Decoder() prov.Decoder {
	return func(into any) error {
		if err := inv.args.Decode(into); err != nil {
			return &reconcile.UsageError{Msg: fmt.Sprintf("invalid arguments: %v", err)}
		}
		return nil
	}
}

// Run reconciles the resource described by inv. Argument problems are
// reported before any request is made. checkMode forces check mode on top
// of what the record asks for.
func Run(ctx context.Context, inv *Invocation, deps prov.Deps, checkMode bool) runner.Result {
	res, err := inv.Kind.Factory(inv.Decoder(), deps)
	if err != nil {
		return runner.Failure(err)
	}
	if err := inv.Config.Validate(); err != nil {
		return runner.Failure(err)
	}

	var result runner.Result
	err = pulp.WithPEMFiles(&inv.Config, func(cfg *config.Config) error {
		api, err := client.NewFromConfig(cfg, deps.Log)
		if err != nil {
			return err
		}
		r := &runner.Runner{API: api, CheckMode: checkMode || inv.CheckMode, Log: deps.Log}
		result, _ = r.Run(ctx, res)
		return nil
	})
	if err != nil {
		return runner.Result{Changed: result.Changed, Msg: err.Error(), Failed: true}
	}
	return result
}

// Emit writes result as a single JSON document.
func Emit(w io.Writer, result runner.Result) error {
	return json.NewEncoder(w).Encode(result)
}
