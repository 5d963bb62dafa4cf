// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Package gluetun queries the gluetun VPN control server for the
// currently forwarded port.
package gluetun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dankreek/slskSticky/lib/clock"
	"github.com/dankreek/slskSticky/lib/netutil"
)

const (
	// maxAttempts bounds retries for network-level failures. A
	// well-formed error response from gluetun is definitive and is
	// never retried; only connection failures get the retry loop.
	maxAttempts = 3

	// backoffStep is the linear backoff unit: attempt n sleeps
	// n * backoffStep before the next try.
	backoffStep = 2 * time.Second

	// requestTimeout is the total per-request timeout.
	requestTimeout = 10 * time.Second
)

// Auth modes for the gluetun control server.
const (
	AuthBasic  = "basic"
	AuthAPIKey = "apikey"
)

// Config holds configuration for creating a gluetun Client.
type Config struct {
	// BaseURL is the control server root, e.g. "http://gluetun:8000".
	// Required.
	BaseURL string

	// AuthType selects the authentication mode: AuthBasic or
	// AuthAPIKey. Any other value makes GetForwardedPort fail
	// without issuing a request.
	AuthType string

	// Username and Password are the HTTP Basic credentials for
	// AuthBasic.
	Username string
	Password string

	// APIKey is the X-API-Key value for AuthAPIKey.
	APIKey string

	// HTTPClient is used for all requests. Defaults to a client with
	// a 10-second total timeout.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	// Inject clock.Fake() in tests for deterministic backoff.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client reads the forwarded port from the gluetun control server.
type Client struct {
	baseURL    string
	authType   string
	username   string
	password   string
	apiKey     string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates a gluetun client from the given configuration.
func New(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    config.BaseURL,
		authType:   config.AuthType,
		username:   config.Username,
		password:   config.Password,
		apiKey:     config.APIKey,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
	}
}

// portForwardResponse is the body of GET /v1/portforward. Port is null
// when gluetun has no forwarded port.
type portForwardResponse struct {
	Port *int `json:"port"`
}

// GetForwardedPort returns the port gluetun currently has forwarded.
// Network-level failures are retried up to maxAttempts times with
// linear backoff (2s, 4s, 6s); HTTP error statuses, unparseable
// bodies, and a null or zero port are definitive failures and return
// immediately. A misconfigured auth type fails without any request.
func (c *Client) GetForwardedPort(ctx context.Context) (int, error) {
	c.logger.Debug("querying gluetun for forwarded port", "url", c.baseURL)

	if c.authType != AuthBasic && c.authType != AuthAPIKey {
		return 0, fmt.Errorf("unsupported gluetun auth type %q", c.authType)
	}

	var lastError error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		port, retryable, err := c.fetchPort(ctx)
		if err == nil {
			return port, nil
		}
		if !retryable {
			return 0, err
		}
		lastError = err

		delay := time.Duration(attempt) * backoffStep
		c.logger.Warn("gluetun connection attempt failed",
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.clock.After(delay):
		}
	}
	return 0, fmt.Errorf("all %d attempts to reach gluetun failed: %w", maxAttempts, lastError)
}

// fetchPort issues a single port-forward status request. The retryable
// result is true only for network-level failures; response-level
// failures (non-200, bad body, no port) are definitive.
func (c *Client) fetchPort(ctx context.Context) (port int, retryable bool, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/portforward", nil)
	if err != nil {
		return 0, false, err
	}
	switch c.authType {
	case AuthBasic:
		request.SetBasicAuth(c.username, c.password)
	case AuthAPIKey:
		request.Header.Set("X-API-Key", c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, true, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return 0, true, fmt.Errorf("reading gluetun response: %w", err)
	}
	c.logger.Debug("gluetun response", "status", response.StatusCode, "body", string(body))

	if response.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("gluetun returned HTTP %d", response.StatusCode)
	}

	var payload portForwardResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, false, fmt.Errorf("parsing gluetun response: %w", err)
	}
	if payload.Port == nil || *payload.Port == 0 {
		return 0, false, errors.New("gluetun reports no forwarded port")
	}
	return *payload.Port, false, nil
}
