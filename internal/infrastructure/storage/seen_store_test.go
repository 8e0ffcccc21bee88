package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func newStore(t *testing.T) *SeenStore {
	t.Helper()

	store, err := NewSeenStore(filepath.Join(t.TempDir(), "cache", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func item(url string, score float64) domain.Item {
	return domain.Item{
		Identity:    domain.DeriveIdentity(domain.KindRSS, url),
		Kind:        domain.KindRSS,
		SourceLabel: "Test Feed",
		Title:       "Title for " + url,
		URL:         url,
		Score:       &score,
	}
}

func TestMarkSeenRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	items := []domain.Item{item("https://example.com/a", 0.9), item("https://example.com/b", 0.4)}
	require.NoError(t, store.MarkSeen(ctx, items, time.Now()))

	seen, err = store.LoadSeen(ctx)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Contains(t, seen, items[0].Identity)
	assert.Contains(t, seen, items[1].Identity)
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	it := item("https://example.com/a", 0.9)
	require.NoError(t, store.MarkSeen(ctx, []domain.Item{it}, time.Now()))
	require.NoError(t, store.MarkSeen(ctx, []domain.Item{it}, time.Now()))

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestMarkSeenAcceptsUnscoredItems(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	unscored := domain.Item{
		Identity: domain.DeriveIdentity(domain.KindRSS, "https://example.com/u"),
		URL:      "https://example.com/u",
	}
	require.NoError(t, store.MarkSeen(ctx, []domain.Item{unscored}, time.Now()))

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestEvictRespectsRetentionWindow(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := item("https://example.com/old", 0.5)
	fresh := item("https://example.com/fresh", 0.5)

	require.NoError(t, store.MarkSeen(ctx, []domain.Item{old}, now.AddDate(0, 0, -40)))
	require.NoError(t, store.MarkSeen(ctx, []domain.Item{fresh}, now))

	evicted, err := store.Evict(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Contains(t, seen, fresh.Identity)
}

func TestSeenSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewSeenStore(path)
	require.NoError(t, err)
	it := item("https://example.com/persist", 0.7)
	require.NoError(t, store.MarkSeen(ctx, []domain.Item{it}, time.Now()))
	require.NoError(t, store.Close())

	reopened, err := NewSeenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	seen, err := reopened.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Contains(t, seen, it.Identity)
}
