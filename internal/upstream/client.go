// Package upstream wraps the remote REST API this service fronts.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// APIError carries the upstream HTTP status and its message payload when
// one was present.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// IsRateLimited reports whether err is an upstream HTTP 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Message extracts a user-facing message from an upstream error, falling
// back to the provided generic text.
func Message(err error, generic string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return generic
}

// Client is a thin JSON client for the remote API. Every call takes the
// request context, so an aborted originating request cancels the upstream
// call with it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Do issues a JSON request and returns the response body. Responses with a
// status of 400 or above are converted into an *APIError carrying the
// payload's message field when present.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("upstream: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		if c.logger != nil {
			c.logger.Warn("upstream error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", res.StatusCode))
		}
		return nil, &APIError{StatusCode: res.StatusCode, Message: decodeMessage(data)}
	}

	return data, nil
}

func decodeMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
