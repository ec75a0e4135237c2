// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// pulp2-module reconciles one Pulp 2 role or user from an Ansible-style
// arguments file and prints the result record as JSON on stdout.
//
// Usage:
//
//	pulp2-module [--kind role|user] [--check] [ARGS_FILE]
//
// The arguments are read from stdin when ARGS_FILE is omitted or "-". When
// --kind is not given it is derived from the executable name, so the binary
// can be installed as pulp_role and pulp_user.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/logging"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/module"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/prov"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/registry"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/runner"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/secret"

	// Import resources to trigger init() registration
	_ "github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/role"
	_ "github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/resources/user"
)

// exitError carries a process exit code for a result already printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string  { return fmt.Sprintf("exit status %d", e.code) }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args, os.Stdin, os.Stdout); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func run(argv []string, stdin io.Reader, stdout io.Writer) error {
	var kindName string
	var checkMode bool

	flagSet := pflag.NewFlagSet(filepath.Base(argv[0]), pflag.ContinueOnError)
	flagSet.StringVar(&kindName, "kind", "", "resource kind to reconcile: "+strings.Join(registry.Names(), ", "))
	flagSet.BoolVar(&checkMode, "check", false, "report what would change without changing anything")
	if err := flagSet.Parse(argv[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if kindName == "" {
		kindName = kindFromExecutable(argv[0])
	}
	kind, ok := registry.ByName(kindName)
	if !ok {
		return fmt.Errorf("unknown kind %q (use --kind %s)", kindName, strings.Join(registry.Names(), "|"))
	}

	data, err := readArgs(flagSet.Args(), stdin)
	if err != nil {
		return err
	}

	closeLog, err := logging.Setup()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := execute(ctx, kind, data, checkMode)
	if err := module.Emit(stdout, result); err != nil {
		return err
	}
	if result.Failed {
		return &exitError{code: 1}
	}
	return nil
}

func execute(ctx context.Context, kind registry.Kind, data []byte, checkMode bool) runner.Result {
	inv, err := module.Parse(kind, data)
	if err != nil {
		return runner.Failure(err)
	}
	deps := prov.Deps{
		Passwords: secret.Random{},
		Log:       log.Logger.With().Str("kind", kind.Name).Logger(),
	}
	return module.Run(ctx, inv, deps, checkMode)
}

// kindFromExecutable maps "pulp_role" and "pulp_user" (with any directory
// or extension) to their kind names.
func kindFromExecutable(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimPrefix(name, "pulp_")
	return name
}

func readArgs(args []string, stdin io.Reader) ([]byte, error) {
	switch len(args) {
	case 0:
		return io.ReadAll(stdin)
	case 1:
		if args[0] == "-" {
			return io.ReadAll(stdin)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("expected at most one arguments file, got %d", len(args))
	}
}
