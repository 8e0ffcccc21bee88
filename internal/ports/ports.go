package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// Source pulls fresh items from one configured upstream (a feed, an
// account). Collect performs a full fetch each call; adapters keep no
// cross-run state.
type Source interface {
	Label() string
	Collect(ctx context.Context) ([]domain.Item, error)
}

// SeenStore persists identities of already-processed items for
// deduplication across runs.
type SeenStore interface {
	LoadSeen(ctx context.Context) (map[string]struct{}, error)
	MarkSeen(ctx context.Context, items []domain.Item, at time.Time) error
	Evict(ctx context.Context, olderThan time.Time) (int, error)
	Close() error
}

// Scorer assigns relevance scores via the external AI service. The
// returned slice contains only items that were scored; items of failed
// batches are absent and their failures are reported alongside.
type Scorer interface {
	Score(ctx context.Context, items []domain.Item) ([]domain.Item, []error)
}

// Publisher delivers the composed report to the push endpoint.
type Publisher interface {
	Publish(ctx context.Context, title, date, content string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
