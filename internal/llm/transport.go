// Package llm holds clients for OpenAI-compatible chat completion and
// embedding endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aller-discovery/internal/contextutil"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	maxErrorBody      = 2 << 10
)

// APIError is a non-2xx reply from the model server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Option configures a client.
type Option func(*transport)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		if c != nil {
			t.http = c
		}
	}
}

// WithMaxRetries sets how often a rate-limited or failed request is repeated.
func WithMaxRetries(n int) Option {
	return func(t *transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithBackoff sets the wait before the first retry. It doubles on each retry.
func WithBackoff(d time.Duration) Option {
	return func(t *transport) {
		t.backoff = d
	}
}

// transport posts JSON to one server with bearer auth and retries.
type transport struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	maxRetries int
	backoff    time.Duration
}

func newTransport(baseURL, apiKey string, opts []Option) transport {
	t := transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		http:       &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// post sends payload to path and decodes the reply into out.
func (t *transport) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	wait := t.backoff
	for attempt := 0; ; attempt++ {
		err = t.do(ctx, path, body, out)
		var apiErr *APIError
		if err == nil || attempt >= t.maxRetries || !errors.As(err, &apiErr) || !apiErr.Temporary() {
			return err
		}

		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "model server request failed, retrying",
			"path", path, "status", apiErr.StatusCode, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (t *transport) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
