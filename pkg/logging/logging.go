// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// EnvLogFile names the file log records are appended to. Logging is
	// off when it is unset.
	EnvLogFile = "PULP2_API_LOG"
	// EnvLogLevel overrides the default info level.
	EnvLogLevel = "PULP2_API_LOG_LEVEL"
)

// Setup points the global logger at the file named by PULP2_API_LOG. The
// returned function closes the file.
func Setup() (func() error, error) {
	return SetupFile(os.Getenv(EnvLogFile), os.Getenv(EnvLogLevel))
}

// SetupFile points the global logger at path, appending JSON records at
// level (info when empty). An empty path disables logging, since stdout is
// reserved for results.
func SetupFile(path, level string) (func() error, error) {
	if path == "" {
		log.Logger = zerolog.Nop()
		return func() error { return nil }, nil
	}

	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		lvl = parsed
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(f).Level(lvl).With().Timestamp().Str("logger", "pulp2_api").Logger()
	return f.Close, nil
}
