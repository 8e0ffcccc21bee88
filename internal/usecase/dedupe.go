package usecase

import "NewsDigest/internal/domain"

// Dedupe retains only items whose identity is absent from seen. It is
// a pure function: seen is never mutated (appending this run's
// identities happens at end of run), and input order is preserved, so
// the same inputs always yield the same subset.
func Dedupe(items []domain.Item, seen map[string]struct{}) []domain.Item {
	fresh := make([]domain.Item, 0, len(items))
	inRun := make(map[string]struct{}, len(items))

	for _, item := range items {
		if _, ok := seen[item.Identity]; ok {
			continue
		}
		// Two sources can surface the same content within one run.
		if _, ok := inRun[item.Identity]; ok {
			continue
		}
		inRun[item.Identity] = struct{}{}
		fresh = append(fresh, item)
	}

	return fresh
}
