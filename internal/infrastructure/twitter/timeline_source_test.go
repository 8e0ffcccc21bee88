package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
)

const sampleTimeline = `[
  {"id": "1001", "text": "Fed minutes point to a pause in rate hikes.\nFull thread below.", "timestamp": 1738576800},
  {"id": "1002", "text": "Good morning everyone!", "timestamp": 1738576900},
  {"id": "", "text": "broken entry"},
  {"id": "1003", "text": ""}
]`

func testSource(t *testing.T, keywords []string) *TimelineSource {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeline/trader", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleTimeline))
	}))
	t.Cleanup(server.Close)

	cfg := config.SourceConfig{
		Kind:     domain.KindTwitter,
		Label:    "@trader",
		Address:  "@trader",
		Keywords: keywords,
	}
	shared := config.TwitterConfig{APIBase: server.URL}

	src, err := NewTimelineSource(cfg, shared, server.Client(), rate.NewLimiter(rate.Inf, 1))
	require.NoError(t, err)
	return src
}

func TestCollectNormalizesTweets(t *testing.T) {
	t.Parallel()

	src := testSource(t, nil)

	items, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "entries without id or text must be skipped")

	first := items[0]
	assert.Equal(t, domain.KindTwitter, first.Kind)
	assert.Equal(t, "@trader", first.SourceLabel)
	assert.Equal(t, "Fed minutes point to a pause in rate hikes.", first.Title)
	assert.Equal(t, "https://x.com/trader/status/1001", first.URL)
	assert.Equal(t, "trader", first.Author)
	assert.Equal(t, time.Unix(1738576800, 0).UTC(), first.PublishedAt)
	assert.Equal(t, domain.DeriveIdentity(domain.KindTwitter, first.URL), first.Identity)
}

func TestCollectAppliesKeywordFilter(t *testing.T) {
	t.Parallel()

	src := testSource(t, []string{"fed", "rates"})

	items, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://x.com/trader/status/1001", items[0].URL)
}

func TestCollectServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.SourceConfig{Kind: domain.KindTwitter, Label: "@down", Address: "down"}
	src, err := NewTimelineSource(cfg, config.TwitterConfig{APIBase: server.URL}, server.Client(), rate.NewLimiter(rate.Inf, 1))
	require.NoError(t, err)

	_, err = src.Collect(context.Background())

	var srcErr *domain.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "@down", srcErr.Label)
}

func TestNewTimelineSourceRequiresAPIBase(t *testing.T) {
	t.Parallel()

	cfg := config.SourceConfig{Kind: domain.KindTwitter, Label: "@x", Address: "x"}
	_, err := NewTimelineSource(cfg, config.TwitterConfig{}, nil, nil)
	require.Error(t, err)
}

func TestTweetTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "first line", tweetTitle("first line\nsecond line"))

	long := strings.Repeat("a", 150)
	got := tweetTitle(long)
	assert.Len(t, []rune(got), 103)
	assert.True(t, strings.HasSuffix(got, "..."))
}
