package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	defaultLimit    = 10
	maxTitleRunes   = 100
	maxExcerptRunes = 1000
)

// TimelineSource collects recent posts of one account from a timeline
// JSON endpoint ({base}/timeline/{handle}?limit=n).
type TimelineSource struct {
	label    string
	handle   string
	apiBase  string
	limit    int
	keywords []string
	client   *http.Client
	limiter  *rate.Limiter
	now      func() time.Time
}

var _ ports.Source = (*TimelineSource)(nil)

// tweetPayload mirrors the timeline endpoint response entries.
type tweetPayload struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// NewTimelineSource wires one configured account. The limiter is
// shared across sources so all accounts together respect the endpoint
// budget; client and limiter may be nil for defaults.
func NewTimelineSource(cfg config.SourceConfig, shared config.TwitterConfig, client *http.Client, limiter *rate.Limiter) (*TimelineSource, error) {
	if shared.APIBase == "" {
		return nil, fmt.Errorf("twitter api base is not configured")
	}

	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if limiter == nil {
		limiter = NewLimiter(shared)
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return &TimelineSource{
		label:    cfg.Label,
		handle:   strings.TrimPrefix(cfg.Address, "@"),
		apiBase:  strings.TrimSuffix(shared.APIBase, "/"),
		limit:    limit,
		keywords: cfg.Keywords,
		client:   client,
		limiter:  limiter,
		now:      time.Now,
	}, nil
}

// NewLimiter builds the request limiter shared by all timeline sources.
func NewLimiter(shared config.TwitterConfig) *rate.Limiter {
	perMin := shared.RequestsPerMin
	if perMin <= 0 {
		perMin = 30
	}
	return rate.NewLimiter(rate.Limit(perMin/60.0), 1)
}

// Label identifies the source in logs and run results.
func (s *TimelineSource) Label() string {
	return s.label
}

// Collect fetches the account timeline and normalizes tweets, applying
// the per-account keyword filter when one is configured.
func (s *TimelineSource) Collect(ctx context.Context) ([]domain.Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &domain.SourceError{Label: s.label, Err: err}
	}

	endpoint := fmt.Sprintf("%s/timeline/%s?limit=%d", s.apiBase, url.PathEscape(s.handle), s.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.SourceError{Label: s.label, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", "NewsDigest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.SourceError{Label: s.label, Err: fmt.Errorf("fetch timeline: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.SourceError{Label: s.label, Err: fmt.Errorf("timeline returned %s", resp.Status)}
	}

	var tweets []tweetPayload
	if err := json.NewDecoder(resp.Body).Decode(&tweets); err != nil {
		return nil, &domain.SourceError{Label: s.label, Err: fmt.Errorf("decode timeline: %w", err)}
	}

	items := make([]domain.Item, 0, len(tweets))
	for _, tw := range tweets {
		if len(items) >= s.limit {
			break
		}

		item, ok := s.normalize(tw)
		if !ok {
			continue
		}
		if !s.matchesKeywords(item) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *TimelineSource) normalize(tw tweetPayload) (domain.Item, bool) {
	text := strings.TrimSpace(tw.Text)
	if text == "" || tw.ID == "" {
		return domain.Item{}, false
	}

	canonical := fmt.Sprintf("https://x.com/%s/status/%s", s.handle, tw.ID)

	publishedAt := s.now().UTC()
	if tw.Timestamp > 0 {
		publishedAt = time.Unix(tw.Timestamp, 0).UTC()
	}

	excerpt := text
	if r := []rune(excerpt); len(r) > maxExcerptRunes {
		excerpt = string(r[:maxExcerptRunes])
	}

	return domain.Item{
		Identity:    domain.DeriveIdentity(domain.KindTwitter, canonical),
		Kind:        domain.KindTwitter,
		SourceLabel: s.label,
		Title:       tweetTitle(text),
		Excerpt:     excerpt,
		URL:         canonical,
		Author:      s.handle,
		PublishedAt: publishedAt,
	}, true
}

func (s *TimelineSource) matchesKeywords(item domain.Item) bool {
	if len(s.keywords) == 0 {
		return true
	}

	haystack := strings.ToLower(item.Title + " " + item.Excerpt)
	for _, kw := range s.keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// tweetTitle takes the first line of the tweet, shortened with an
// ellipsis when it exceeds the title budget.
func tweetTitle(text string) string {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes]) + "..."
	}
	return line
}
