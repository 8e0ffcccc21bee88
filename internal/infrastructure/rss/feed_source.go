package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	defaultLimit      = 20
	maxExcerptRunes   = 1000
	defaultTimeoutSec = 20
)

// FeedSource collects items from a single RSS/Atom feed.
type FeedSource struct {
	label   string
	feedURL string
	limit   int
	parser  *gofeed.Parser
	now     func() time.Time
}

var _ ports.Source = (*FeedSource)(nil)

// NewFeedSource wires a gofeed parser for one configured feed; client
// may be nil to use a default with a sane timeout.
func NewFeedSource(cfg config.SourceConfig, client *http.Client) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeoutSec * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "NewsDigest/1.0"

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return &FeedSource{
		label:   cfg.Label,
		feedURL: cfg.Address,
		limit:   limit,
		parser:  parser,
		now:     time.Now,
	}
}

// Label identifies the source in logs and run results.
func (s *FeedSource) Label() string {
	return s.label
}

// Collect fetches the feed and normalizes up to the configured number
// of entries. Feed order is preserved; entries without a link are
// skipped since identity derivation needs a canonical URL.
func (s *FeedSource) Collect(ctx context.Context) ([]domain.Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, &domain.SourceError{Label: s.label, Err: fmt.Errorf("parse feed: %w", err)}
	}

	items := make([]domain.Item, 0, min(len(feed.Items), s.limit))
	for _, entry := range feed.Items {
		if len(items) >= s.limit {
			break
		}

		item, ok := s.normalize(entry)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *FeedSource) normalize(entry *gofeed.Item) (domain.Item, bool) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if title == "" || link == "" {
		return domain.Item{}, false
	}

	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	publishedAt := time.Time{}
	switch {
	case entry.PublishedParsed != nil:
		publishedAt = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		publishedAt = entry.UpdatedParsed.UTC()
	default:
		// Collection-time fallback keeps ordering well-defined downstream.
		publishedAt = s.now().UTC()
	}

	author := ""
	if len(entry.Authors) > 0 {
		author = entry.Authors[0].Name
	}

	return domain.Item{
		Identity:    domain.DeriveIdentity(domain.KindRSS, link),
		Kind:        domain.KindRSS,
		SourceLabel: s.label,
		Title:       title,
		Excerpt:     ExcerptFromHTML(body),
		URL:         link,
		Author:      author,
		PublishedAt: publishedAt,
	}, true
}

// ExcerptFromHTML strips markup from feed bodies and truncates the
// plain text for the scoring payload.
func ExcerptFromHTML(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > maxExcerptRunes {
		return string(runes[:maxExcerptRunes])
	}
	return text
}
