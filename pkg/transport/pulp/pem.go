// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pulp

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
)

const pemMarker = "-----BEGIN"

// IsPEM reports whether value holds PEM content rather than a file path.
func IsPEM(value string) bool {
	return strings.Contains(value, pemMarker)
}

// WithPEMFiles calls fn with a copy of cfg in which literal PEM values of
// ClientCert and ClientKey have been written to temporary files and replaced
// by their paths. The files exist only for the duration of fn and are
// removed on every return path, including a panic in fn. Values that are
// already paths are passed through untouched, and cfg itself is never
// modified.
func WithPEMFiles(cfg *config.Config, fn func(*config.Config) error) (err error) {
	var files []string
	defer func() {
		for _, name := range files {
			if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove %s: %w", name, rmErr))
			}
		}
	}()

	materialize := func(param, value string) (string, error) {
		if !IsPEM(value) {
			return value, nil
		}
		name, err := writeTemp(value)
		if name != "" {
			files = append(files, name)
		}
		if err != nil {
			return "", fmt.Errorf("failed to serialize %s: %w", param, err)
		}
		return name, nil
	}

	cert, err := materialize("client_cert", cfg.ClientCert)
	if err != nil {
		return err
	}
	key, err := materialize("client_key", cfg.ClientKey)
	if err != nil {
		return err
	}

	derived := cfg.WithClientCredentials(cert, key)
	return fn(&derived)
}

func writeTemp(content string) (string, error) {
	f, err := os.CreateTemp("", "*pulp2_api")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return name, err
	}
	if _, err := f.WriteString(content + "\n"); err != nil {
		f.Close()
		return name, err
	}
	return name, f.Close()
}
