package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsDigest/internal/domain"
)

func itemWithURL(url string) domain.Item {
	return domain.Item{
		Identity: domain.DeriveIdentity(domain.KindRSS, url),
		Kind:     domain.KindRSS,
		URL:      url,
	}
}

func TestDedupeFiltersSeenIdentities(t *testing.T) {
	t.Parallel()

	a := itemWithURL("https://example.com/a")
	b := itemWithURL("https://example.com/b")
	seen := map[string]struct{}{a.Identity: {}}

	fresh := Dedupe([]domain.Item{a, b}, seen)

	assert.Equal(t, []domain.Item{b}, fresh)
	assert.Len(t, seen, 1, "seen set must not be mutated")
}

func TestDedupeCollapsesWithinRunDuplicates(t *testing.T) {
	t.Parallel()

	a := itemWithURL("https://example.com/a")
	fresh := Dedupe([]domain.Item{a, a}, nil)
	assert.Len(t, fresh, 1)
}

func TestDedupeIsStable(t *testing.T) {
	t.Parallel()

	items := []domain.Item{
		itemWithURL("https://example.com/1"),
		itemWithURL("https://example.com/2"),
		itemWithURL("https://example.com/3"),
	}
	seen := map[string]struct{}{items[1].Identity: {}}

	first := Dedupe(items, seen)
	second := Dedupe(items, seen)
	assert.Equal(t, first, second)
}

func TestDedupeAllSeenYieldsEmpty(t *testing.T) {
	t.Parallel()

	items := []domain.Item{itemWithURL("https://example.com/a"), itemWithURL("https://example.com/b")}
	seen := map[string]struct{}{}
	for _, it := range items {
		seen[it.Identity] = struct{}{}
	}

	assert.Empty(t, Dedupe(items, seen))
}
