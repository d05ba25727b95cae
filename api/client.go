// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// apiPrefix is prepended to every request path.
const apiPrefix = "/api/v1"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the root URL of the backend (e.g., "http://localhost:3000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with a
	// cookie jar is constructed — the jar carries the httpOnly
	// refresh-token cookie set by the auth endpoints.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is the unauthenticated HTTP layer. It holds the base URL and
// transport, shared by every Session derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// The refresh token arrives as an httpOnly cookie on login and
		// travels back on POST /auth/refresh, so the default transport
		// must keep cookies.
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("api: creating cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops idle HTTP connections so the next request
// opens a fresh socket. Call after a network disruption to avoid
// reusing a poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// do performs a request and returns the envelope's data payload.
// token may be empty for unauthenticated endpoints. query may be nil.
// On non-2xx responses the error is a *Error carrying the backend's
// code and message.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, requestBody any) (json.RawMessage, error) {
	requestURL := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("api: reading response body: %w", err)
	}

	// Every backend response, success or failure, uses the same
	// envelope shape.
	var env envelope
	if len(responseBody) > 0 {
		if jsonErr := json.Unmarshal(responseBody, &env); jsonErr != nil {
			return nil, fmt.Errorf("api: unexpected %d response from %s %s: %s",
				response.StatusCode, method, path, string(responseBody))
		}
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return env.Data, nil
	}

	apiErr := &Error{
		Message:    env.Message,
		StatusCode: response.StatusCode,
	}
	if env.Error != nil {
		apiErr.Code = env.Error.Code
		if apiErr.Message == "" {
			apiErr.Message = env.Error.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}
	return nil, apiErr
}

// maxResponseBytes bounds response bodies read into memory. 8 MiB is
// far beyond any real payload from this backend.
const maxResponseBytes = 8 << 20

// envelope is the uniform backend response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Error   *errorDetail    `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decode unmarshals an envelope data payload into T.
func decode[T any](data json.RawMessage, what string) (T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("api: parsing %s response: %w", what, err)
	}
	return value, nil
}
