// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Package slskd synchronizes the slskd daemon's Soulseek listen port
// with a desired value.
//
// Updating the port is a read-modify-write against the daemon's remote
// options document with no transactional guarantee, run as four
// independently failable steps: fetch the YAML options, patch the
// soulseek.listen_port field in memory, write the document back, and
// trigger a server reconnect so the daemon picks up the change. When
// the fetched document already carries the desired port the write and
// reconnect are skipped entirely — the idempotence short-circuit.
//
// The Client owns a single lazily created HTTP session. It is used
// from exactly one goroutine (the reconciliation loop), so no locking
// is done.
package slskd

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dankreek/slskSticky/lib/netutil"
)

const (
	optionsPath = "/api/v0/options/yaml"
	serverPath  = "/api/v0/server"

	// minListenPort and maxListenPort bound acceptable listen ports.
	// Ports below 1024 are privileged and never forwarded by gluetun.
	minListenPort = 1024
	maxListenPort = 65535

	// sessionTimeout is the total per-request timeout for slskd
	// calls.
	sessionTimeout = 30 * time.Second
)

// Config holds configuration for creating a slskd Client.
type Config struct {
	// BaseURL is the slskd API root, e.g. "http://slskd:5030" or
	// "https://slskd:5030". Required.
	BaseURL string

	// APIKey is sent as X-API-Key on every request. The key must
	// carry the Administrator role for options access.
	APIKey string

	// InsecureTLS accepts self-signed and otherwise unverifiable
	// certificates. Set when the slskd endpoint uses HTTPS with
	// certificate verification disabled.
	InsecureTLS bool

	// HTTPClient overrides the lazily created session. Used in
	// tests.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client calls the slskd API to read and update the daemon's options.
type Client struct {
	baseURL     string
	apiKey      string
	insecureTLS bool
	logger      *slog.Logger

	// httpClient is created on first use; Close drops it.
	httpClient *http.Client
}

// New creates a slskd client from the given configuration. The HTTP
// session is not created until the first request.
func New(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     config.BaseURL,
		apiKey:      config.APIKey,
		insecureTLS: config.InsecureTLS,
		logger:      logger,
		httpClient:  config.HTTPClient,
	}
}

// session returns the HTTP client, creating it on first use.
func (c *Client) session() *http.Client {
	if c.httpClient == nil {
		c.logger.Debug("initializing slskd HTTP session", "insecure_tls", c.insecureTLS)
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecureTLS {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		c.httpClient = &http.Client{
			Timeout:   sessionTimeout,
			Transport: transport,
		}
	}
	return c.httpClient
}

// Close releases the HTTP session. Safe to call multiple times; a
// no-op if the session was never created or is already closed.
func (c *Client) Close() {
	if c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
	c.httpClient = nil
}

// UpdateListenPort drives the full fetch-patch-write-reconnect
// sequence toward newPort. It returns changed=true only when the
// remote configuration was rewritten and the daemon reconnected; the
// idempotence short-circuit returns (false, nil). Any failure returns
// a non-nil error and never advances the daemon — in particular, a
// reconnect failure after a successful write is an error, because the
// daemon has not yet picked up the new port.
func (c *Client) UpdateListenPort(ctx context.Context, newPort int) (changed bool, err error) {
	if newPort < minListenPort || newPort > maxListenPort {
		err := fmt.Errorf("port %d outside valid range [%d, %d]", newPort, minListenPort, maxListenPort)
		c.logger.Error("refusing invalid listen port", "error", err)
		return false, err
	}

	document, err := c.fetchOptions(ctx)
	if err != nil {
		return false, err
	}

	updated, currentPort, changed, err := patchListenPort(document, newPort)
	if err != nil {
		return false, err
	}
	if !changed {
		c.logger.Debug("listen port already configured in slskd, skipping update", "port", newPort)
		return false, nil
	}

	if err := c.writeOptions(ctx, updated); err != nil {
		return false, err
	}
	c.logger.Info("updated slskd listen port", "from", currentPort, "to", newPort)

	if err := c.Reconnect(ctx); err != nil {
		c.logger.Warn("port updated but reconnect failed, slskd may need a manual reconnect", "error", err)
		return false, fmt.Errorf("port updated but reconnect failed: %w", err)
	}
	return true, nil
}

// fetchOptions retrieves the daemon's options document. The API
// returns the YAML text JSON-encoded as a single string.
func (c *Client) fetchOptions(ctx context.Context) (string, error) {
	response, err := c.do(ctx, http.MethodGet, optionsPath, nil)
	if err != nil {
		return "", fmt.Errorf("fetching slskd options: %w", err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
		var document string
		if err := netutil.DecodeResponse(response.Body, &document); err != nil {
			return "", fmt.Errorf("decoding slskd options response: %w", err)
		}
		return document, nil
	case http.StatusForbidden:
		return "", errors.New("slskd denied access to remote configuration: enable SLSKD_REMOTE_CONFIGURATION and use an API key with the Administrator role")
	default:
		return "", fmt.Errorf("slskd options fetch returned HTTP %d", response.StatusCode)
	}
}

// writeOptions replaces the daemon's options document. The body is the
// YAML text JSON-encoded, mirroring the fetch format.
func (c *Client) writeOptions(ctx context.Context, document string) error {
	encoded, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encoding slskd options request: %w", err)
	}

	response, err := c.do(ctx, http.MethodPost, optionsPath, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("writing slskd options: %w", err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		return errors.New("slskd denied the configuration update: the API key must have the Administrator role")
	case http.StatusBadRequest:
		return fmt.Errorf("slskd rejected the updated configuration: %s", netutil.ErrorBody(response.Body))
	default:
		return fmt.Errorf("slskd options write returned HTTP %d", response.StatusCode)
	}
}

// Reconnect forces slskd to drop and re-establish its connection to
// the Soulseek network, picking up the configured listen port. The API
// answers 200 or 205 on success.
func (c *Client) Reconnect(ctx context.Context) error {
	response, err := c.do(ctx, http.MethodPut, serverPath, nil)
	if err != nil {
		return fmt.Errorf("triggering slskd reconnect: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusResetContent {
		return fmt.Errorf("slskd reconnect returned HTTP %d", response.StatusCode)
	}
	c.logger.Debug("triggered slskd server reconnect")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return c.session().Do(request)
}
