// Package ai scores collected items through an OpenAI-compatible chat
// completions endpoint.
package ai

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
	"sync"
	"time"

	"NewsDigest/internal/backoff"
	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const systemPrompt = `You are a financial news relevance judge. You rate each item on
relevance to finance and markets (weight 0.3), information value (0.25),
timeliness (0.25) and potential market impact (0.2), then combine the
weighted dimensions into a single score between 0 and 1.

You receive a JSON array of items. Reply with JSON only, no other text:
{"scores": [{"score": 0.0, "reason": "one short sentence"}, ...]}
The scores array must be parallel to the input array.`

// Client implements ports.Scorer against a chat completions API.
type Client struct {
	endpoint    string
	model       string
	apiKey      string
	batchSize   int
	concurrency int
	temperature float64
	policy      backoff.Policy
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ ports.Scorer = (*Client)(nil)

// NewClient builds a scorer from configuration; httpClient may be nil.
func NewClient(cfg config.AIConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	policy := backoff.Default()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		batchSize:   batchSize,
		concurrency: concurrency,
		temperature: cfg.Temperature,
		policy:      policy,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Score batches the items and calls the service per batch, concurrently
// up to the configured limit. Batching never reorders items: results
// land in per-batch slots and are flattened in input order. A batch
// that fails after retries is excluded and reported via the error
// slice; other batches are unaffected.
func (c *Client) Score(ctx context.Context, items []domain.Item) ([]domain.Item, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	batches := splitBatches(items, c.batchSize)
	results := make([][]domain.Item, len(batches))

	var (
		mu       sync.Mutex
		problems []error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, c.concurrency)

	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, batch []domain.Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			scored, warns, err := c.scoreBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				problems = append(problems, &domain.ScoreBatchError{Batch: idx, Size: len(batch), Err: err})
				return
			}
			results[idx] = scored
			problems = append(problems, warns...)
		}(i, batch)
	}
	wg.Wait()

	var scored []domain.Item
	for _, part := range results {
		scored = append(scored, part...)
	}
	return scored, problems
}

// scoreBatch issues one retried request for a batch. The returned warns
// carry non-fatal oddities (clamped or missing per-item scores).
func (c *Client) scoreBatch(ctx context.Context, batch []domain.Item) ([]domain.Item, []error, error) {
	var reply scoreReply
	err := c.policy.Do(ctx, func() error {
		var callErr error
		reply, callErr = c.call(ctx, batch)
		return callErr
	}, retryable)
	if err != nil {
		return nil, nil, err
	}

	if len(reply.Scores) != len(batch) {
		return nil, nil, fmt.Errorf("service returned %d scores for %d items", len(reply.Scores), len(batch))
	}

	var warns []error
	scored := make([]domain.Item, 0, len(batch))
	for i, item := range batch {
		entry := reply.Scores[i]
		if entry.Score == nil {
			warns = append(warns, fmt.Errorf("item %s: score missing in response", shortID(item.Identity)))
			continue
		}

		value := *entry.Score
		if value < 0 || value > 1 {
			warns = append(warns, fmt.Errorf("item %s: score %.3f clamped to [0,1]", shortID(item.Identity), value))
			value = clamp(value)
		}

		item.Score = &value
		scored = append(scored, item)
	}

	return scored, warns, nil
}

type scoreReply struct {
	Scores []struct {
		Score  *float64 `json:"score"`
		Reason string   `json:"reason"`
	} `json:"scores"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError distinguishes retryable service failures from permanent ones.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("scoring service status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Network and timeout failures are worth another attempt.
	return true
}

func (c *Client) call(ctx context.Context, batch []domain.Item) (scoreReply, error) {
	type payloadItem struct {
		Title   string `json:"title"`
		Excerpt string `json:"excerpt"`
		URL     string `json:"url"`
	}

	payload := make([]payloadItem, 0, len(batch))
	for _, item := range batch {
		payload = append(payload, payloadItem{Title: item.Title, Excerpt: item.Excerpt, URL: item.URL})
	}

	userMsg, err := json.Marshal(payload)
	if err != nil {
		return scoreReply{}, fmt.Errorf("marshal batch: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"max_tokens":  1000,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": string(userMsg)},
		},
	})
	if err != nil {
		return scoreReply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return scoreReply{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoreReply{}, fmt.Errorf("call scoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return scoreReply{}, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return scoreReply{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return scoreReply{}, fmt.Errorf("response has no choices")
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)

	var reply scoreReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return scoreReply{}, fmt.Errorf("parse model reply: %w", err)
	}

	c.debug("batch scored", "items", len(batch), "scores", len(reply.Scores))
	return reply, nil
}

// stripCodeFence removes a surrounding markdown code block the model
// sometimes wraps its JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func splitBatches(items []domain.Item, size int) [][]domain.Item {
	var batches [][]domain.Item
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
