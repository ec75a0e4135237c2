// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/platform-engineering-labs/formae/pkg/model"
)

// DefaultHTTPAgent is the User-Agent sent when none is configured.
const DefaultHTTPAgent = "ansible-pulp2_api"

// Redirect policies accepted by FollowRedirects.
const (
	RedirectsAll  = "all"
	RedirectsSafe = "safe"
	RedirectsNone = "none"
)

// Config holds the connection settings for a Pulp 2 server.
// Note: when built from a formae target, only the non-sensitive fields are
// read from the target config. Credentials and client key material are
// always read from environment variables to avoid storing secrets in the
// database.
type Config struct {
	// Base URL of the Pulp service, including the trailing "/pulp/api/v2"
	// component if applicable.
	PulpURL string `json:"pulpURL" yaml:"pulp_url"`

	// TLS and HTTP behavior (non-sensitive)
	ValidateCerts   *bool  `json:"validateCerts,omitempty" yaml:"validate_certs"`
	HTTPAgent       string `json:"httpAgent,omitempty" yaml:"http_agent"`
	ForceBasicAuth  bool   `json:"forceBasicAuth,omitempty" yaml:"force_basic_auth"`
	FollowRedirects string `json:"followRedirects,omitempty" yaml:"follow_redirects"`

	// Secrets. Never stored in a target config.
	Username   string `json:"-" yaml:"url_username"`
	Password   string `json:"-" yaml:"url_password"`
	ClientCert string `json:"-" yaml:"client_cert"` // path or literal PEM
	ClientKey  string `json:"-" yaml:"client_key"`  // path or literal PEM
}

// FromTarget extracts Pulp configuration from a Target
func FromTarget(target *model.Target) (*Config, error) {
	if target == nil {
		return nil, fmt.Errorf("target is nil")
	}
	return FromTargetConfig(target.Config)
}

// FromTargetConfig extracts Pulp configuration from a TargetConfig JSON.
// The URL can fall back to PULP2_URL; credentials and client certificates
// are always read from the environment.
func FromTargetConfig(targetConfig json.RawMessage) (*Config, error) {
	var cfg Config

	if len(targetConfig) > 0 {
		if err := json.Unmarshal(targetConfig, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target config: %w", err)
		}
	}

	if cfg.PulpURL == "" {
		cfg.PulpURL = os.Getenv("PULP2_URL")
	}

	cfg.Username = os.Getenv("PULP2_USERNAME")
	cfg.Password = os.Getenv("PULP2_PASSWORD")
	cfg.ClientCert = os.Getenv("PULP2_CLIENT_CERT")
	cfg.ClientKey = os.Getenv("PULP2_CLIENT_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can be used to build a transport.
func (c *Config) Validate() error {
	if c.PulpURL == "" {
		return fmt.Errorf("pulpURL is required (set PULP2_URL or provide in target config)")
	}
	u, err := url.Parse(c.PulpURL)
	if err != nil {
		return fmt.Errorf("invalid pulp URL %q: %w", c.PulpURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid pulp URL %q: scheme must be http or https", c.PulpURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid pulp URL %q: missing host", c.PulpURL)
	}

	switch c.Redirects() {
	case RedirectsAll, RedirectsSafe, RedirectsNone:
	default:
		return fmt.Errorf("invalid follow_redirects value %q", c.FollowRedirects)
	}
	return nil
}

// BaseURL returns PulpURL with exactly one trailing slash, so that relative
// API paths can be appended to it.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.PulpURL, "/") + "/"
}

// VerifyTLS reports whether server certificates should be validated.
// Defaults to true.
func (c *Config) VerifyTLS() bool {
	return c.ValidateCerts == nil || *c.ValidateCerts
}

// Agent returns the User-Agent to send.
func (c *Config) Agent() string {
	if c.HTTPAgent == "" {
		return DefaultHTTPAgent
	}
	return c.HTTPAgent
}

// Redirects maps the option values understood by ansible.builtin.uri onto
// the three policies the transport implements. Unknown values are returned
// unchanged and rejected by Validate.
func (c *Config) Redirects() string {
	switch strings.ToLower(c.FollowRedirects) {
	case "", "urllib2", "all", "yes", "true":
		return RedirectsAll
	case "safe":
		return RedirectsSafe
	case "none", "no", "false":
		return RedirectsNone
	default:
		return c.FollowRedirects
	}
}

// WithClientCredentials returns a copy of the config with the client
// certificate and key replaced. The receiver is left untouched.
func (c *Config) WithClientCredentials(cert, key string) Config {
	out := *c
	out.ClientCert = cert
	out.ClientKey = key
	return out
}
