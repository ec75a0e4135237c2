// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pulp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
)

// Client wraps a gophercloud service client pointed at a Pulp 2 API root.
// Pulp does not speak Keystone, so no token is ever set; gophercloud is used
// purely as the JSON round-tripper.
type Client struct {
	service *gophercloud.ServiceClient
}

// RequestOptions defines options for an API request
type RequestOptions struct {
	Method string
	Path   string      // relative to the API root, e.g. "roles/admins/"
	Body   interface{} // JSON-encoded when non-nil
}

// Response represents an API response. Every HTTP status is reported here;
// deciding which ones are acceptable is up to the caller.
type Response struct {
	StatusCode int
	URL        string
	Body       []byte
}

// acceptedCodes are the statuses gophercloud hands back as a plain response.
// Anything else surfaces as ErrUnexpectedResponseCode and is unwrapped into
// a Response by Do.
var acceptedCodes = []int{http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent}

// NewClient creates a Pulp API client from config. Client certificate and
// key must already be file paths (see WithPEMFiles).
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	provider := &gophercloud.ProviderClient{HTTPClient: *httpClient}
	provider.UserAgent.Prepend(cfg.Agent())

	return &Client{
		service: &gophercloud.ServiceClient{
			ProviderClient: provider,
			Endpoint:       cfg.BaseURL(),
		},
	}, nil
}

// URL returns the absolute URL for an API path.
func (c *Client) URL(path string) string {
	return c.service.ServiceURL(path)
}

// Do executes an API request
func (c *Client) Do(ctx context.Context, opts RequestOptions) (*Response, error) {
	switch opts.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method: %s", opts.Method)
	}

	url := c.URL(opts.Path)
	reqOpts := &gophercloud.RequestOpts{
		OkCodes:          acceptedCodes,
		KeepResponseBody: true,
	}
	if opts.Method != http.MethodGet {
		reqOpts.MoreHeaders = map[string]string{"Content-Type": "application/json"}
	}
	if opts.Body != nil {
		reqOpts.JSONBody = opts.Body
	}

	resp, err := c.service.Request(ctx, opts.Method, url, reqOpts)
	if err != nil {
		var unexpected gophercloud.ErrUnexpectedResponseCode
		if errors.As(err, &unexpected) {
			return &Response{
				StatusCode: unexpected.Actual,
				URL:        url,
				Body:       unexpected.Body,
			}, nil
		}
		return nil, c.classifyError(err, url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyError(fmt.Errorf("failed to read response body: %w", err), url)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        url,
		Body:       bytes.TrimSpace(body),
	}, nil
}

// classifyError converts a failure below the HTTP layer (DNS, TLS,
// connection refused) into a transport error.
func (c *Client) classifyError(err error, url string) error {
	return &Error{
		Code:       ErrorCodeUnknown,
		Message:    fmt.Sprintf("request to %s failed: %v", url, err),
		Underlying: err,
	}
}

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !cfg.VerifyTLS(), //nolint:gosec // validate_certs=false is an explicit user choice
	}

	if cfg.ClientCert != "" {
		keyFile := cfg.ClientKey
		if keyFile == "" {
			// Certificate file carries the key as well.
			keyFile = cfg.ClientCert
		}
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig

	var transport http.RoundTripper = base
	if cfg.Username != "" {
		transport = &basicAuthTransport{
			base:     base,
			username: cfg.Username,
			password: cfg.Password,
			force:    cfg.ForceBasicAuth,
		}
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy(cfg.Redirects()),
	}, nil
}

func redirectPolicy(policy string) func(*http.Request, []*http.Request) error {
	switch policy {
	case config.RedirectsNone:
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case config.RedirectsSafe:
		return func(req *http.Request, via []*http.Request) error {
			// Only requests that started out idempotent may be redirected.
			if method := via[0].Method; method != http.MethodGet && method != http.MethodHead {
				return http.ErrUseLastResponse
			}
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		}
	default:
		return nil
	}
}
