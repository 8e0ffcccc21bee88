// Package push delivers composed reports to the worker endpoint.
package push

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

	"NewsDigest/internal/backoff"
	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Client posts reports to the worker publish API with bearer auth.
type Client struct {
	workerURL  string
	token      string
	policy     backoff.Policy
	httpClient *http.Client
}

var _ ports.Publisher = (*Client)(nil)

// NewClient builds a publisher from configuration; httpClient may be nil.
func NewClient(cfg config.PushConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	policy := backoff.Default()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}

	return &Client{
		workerURL:  strings.TrimSuffix(cfg.WorkerURL, "/"),
		token:      cfg.Token,
		policy:     policy,
		httpClient: httpClient,
	}
}

// Publish delivers one report. It performs a single bounded retry
// sequence per invocation; a 2xx acknowledgment stops it immediately,
// so acknowledged content is never sent twice. Exhausted retries
// surface as a domain.PublishError.
func (c *Client) Publish(ctx context.Context, title, date, content string) error {
	if c.workerURL == "" || c.token == "" {
		return &domain.PublishError{Err: fmt.Errorf("publisher misconfigured: worker url and token are required")}
	}

	body, err := json.Marshal(map[string]any{
		"title":   title,
		"date":    date,
		"content": content,
		"push":    true,
	})
	if err != nil {
		return &domain.PublishError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	err = c.policy.Do(ctx, func() error {
		return c.post(ctx, body)
	}, retryable)
	if err != nil {
		return &domain.PublishError{Err: err}
	}

	return nil
}

// Health probes the worker health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.workerURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.workerURL+"/publish", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("worker status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
