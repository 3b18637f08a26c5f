// In file: internal/llm/helpers.go

// Package llm contains the model clients used by the agent loop: a common
// message and tool-call model, and one client per provider that maps it onto
// the provider's native API.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Option customizes an HTTP-based client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// WithBaseURL points the client at another endpoint, e.g. a proxy or a test server.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithRetryDelay sets the initial backoff between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(o *clientOptions) { o.retryDelay = d }
}

func newClientOptions(defaultURL string, opts []Option) clientOptions {
	o := clientOptions{
		baseURL:    defaultURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: initialRetryDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// overflowMarkers are the phrases providers use when a prompt is too long.
var overflowMarkers = []string{
	"prompt is too long",
	"context_length_exceeded",
	"maximum context length",
	"too many tokens",
	"exceeds the maximum number of tokens",
	"input is too long",
}

func isContextOverflow(status int, body string) bool {
	if status == http.StatusRequestEntityTooLarge {
		return true
	}
	lower := strings.ToLower(body)
	for _, marker := range overflowMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// postJSON sends payload with retries. 4xx answers are not retried; the ones
// that report an over-long prompt come back as ErrContextOverflow.
func postJSON(ctx context.Context, provider string, o clientOptions, headers map[string]string, payload []byte) ([]byte, error) {
	var lastErr error
	delay := o.retryDelay
	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := o.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s request failed (attempt %d/%d): %w", provider, i+1, maxRetries, err)
			if !wait(ctx, delay) {
				return nil, ctx.Err()
			}
			delay *= 2
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close response body: %v", err)
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s API error (attempt %d/%d): status %d, body: %s", provider, i+1, maxRetries, resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			if isContextOverflow(resp.StatusCode, string(body)) {
				return nil, fmt.Errorf("%w: %s", ErrContextOverflow, lastErr)
			}
			return nil, lastErr
		}
		if !wait(ctx, delay) {
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
