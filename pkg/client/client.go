// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/transport/pulp"
)

// Transport is the HTTP capability the resource client is built on.
type Transport interface {
	Do(ctx context.Context, opts pulp.RequestOptions) (*pulp.Response, error)
}

// UnexpectedStatusError is returned when Pulp answers with a status that is
// not acceptable for the operation.
type UnexpectedStatusError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from URL %s", e.Status, e.URL)
}

// ResourceClient reads and writes Pulp resources addressed by paths relative
// to the API root, translating response statuses into outcomes.
type ResourceClient struct {
	transport Transport
	log       zerolog.Logger
}

// New creates a ResourceClient over transport.
func New(transport Transport, log zerolog.Logger) *ResourceClient {
	return &ResourceClient{transport: transport, log: log}
}

// NewFromConfig creates a ResourceClient talking to the server described by
// cfg. Client certificate and key must be file paths.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) (*ResourceClient, error) {
	transport, err := pulp.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pulp transport: %w", err)
	}
	return New(transport, log), nil
}

// Fetch GETs path and decodes the body into into. A 404 is reported as
// found=false with a nil error.
func (c *ResourceClient) Fetch(ctx context.Context, path string, into any) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		c.log.Info().Str("url", resp.URL).Msg("resource doesn't exist")
		return false, nil
	case http.StatusOK:
		if into != nil && len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, into); err != nil {
				return false, fmt.Errorf("failed to decode response from %s: %w", resp.URL, err)
			}
		}
		return true, nil
	default:
		return false, c.unexpected(http.MethodGet, resp)
	}
}

// List GETs a collection path. Unlike Fetch, a missing collection is an
// error.
func (c *ResourceClient) List(ctx context.Context, path string, into any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return c.unexpected(http.MethodGet, resp)
	}
	if err := json.Unmarshal(resp.Body, into); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", resp.URL, err)
	}
	return nil
}

// Create POSTs body to path.
func (c *ResourceClient) Create(ctx context.Context, path string, body any) error {
	return c.write(ctx, http.MethodPost, path, body)
}

// Update PUTs body to path.
func (c *ResourceClient) Update(ctx context.Context, path string, body any) error {
	return c.write(ctx, http.MethodPut, path, body)
}

// Delete DELETEs path. A resource that is already gone counts as deleted.
func (c *ResourceClient) Delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return c.unexpected(http.MethodDelete, resp)
	}
}

func (c *ResourceClient) write(ctx context.Context, method, path string, body any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	default:
		return c.unexpected(method, resp)
	}
}

func (c *ResourceClient) do(ctx context.Context, method, path string, body any) (*pulp.Response, error) {
	resp, err := c.transport.Do(ctx, pulp.RequestOptions{Method: method, Path: path, Body: body})
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, err
	}
	c.log.Info().Str("method", method).Str("url", resp.URL).Int("status", resp.StatusCode).Msg("pulp request")
	return resp, nil
}

func (c *ResourceClient) unexpected(method string, resp *pulp.Response) error {
	c.log.Warn().
		Str("method", method).
		Str("url", resp.URL).
		Int("status", resp.StatusCode).
		Bytes("body", resp.Body).
		Msg("unexpected response")
	return &UnexpectedStatusError{Method: method, URL: resp.URL, Status: resp.StatusCode, Body: resp.Body}
}
