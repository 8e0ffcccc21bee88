package usecase

import (
	"sort"

	"NewsDigest/internal/domain"
)

// Select filters scored items by threshold and orders the survivors
// for the report: score descending, ties by published time descending,
// then by identity ascending so the order is fully deterministic. An
// item scoring exactly the threshold is included. When maxItems > 0
// the ordered sequence is truncated to the highest-ranked entries.
func Select(items []domain.Item, threshold float64, maxItems int) []domain.Item {
	selected := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if !item.Scored() {
			continue
		}
		if item.ScoreValue() < threshold {
			continue
		}
		selected = append(selected, item)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.ScoreValue() != b.ScoreValue() {
			return a.ScoreValue() > b.ScoreValue()
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Identity < b.Identity
	})

	if maxItems > 0 && len(selected) > maxItems {
		selected = selected[:maxItems]
	}

	return selected
}
