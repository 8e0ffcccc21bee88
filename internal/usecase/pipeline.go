package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/report"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources   []ports.Source
	SeenStore ports.SeenStore
	Scorer    ports.Scorer
	Publisher ports.Publisher
	Logger    *slog.Logger

	ReportName    string
	Threshold     float64
	MaxItems      int
	RetentionDays int
}

// Pipeline implements the ingestion-to-digest workflow: collect,
// dedupe, score, select, compose, publish, persist.
type Pipeline struct {
	sources   []ports.Source
	seenStore ports.SeenStore
	scorer    ports.Scorer
	publisher ports.Publisher
	logger    *slog.Logger

	reportName    string
	threshold     float64
	maxItems      int
	retentionDays int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	retention := deps.RetentionDays
	if retention <= 0 {
		retention = 30
	}

	return &Pipeline{
		sources:       deps.Sources,
		seenStore:     deps.SeenStore,
		scorer:        deps.Scorer,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		reportName:    deps.ReportName,
		threshold:     deps.Threshold,
		maxItems:      deps.MaxItems,
		retentionDays: retention,
	}
}

// Run executes one complete pipeline pass for the given trigger time.
// Failures below the orchestrator are downgraded to entries in the
// RunResult; the returned error is reserved for conditions that
// prevent the run from operating at all (no sources, state unreadable).
func (p *Pipeline) Run(ctx context.Context, now time.Time) (result domain.RunResult, err error) {
	result.Started = now
	defer func() { result.Finished = time.Now() }()

	if len(p.sources) == 0 {
		return result, fmt.Errorf("no sources configured")
	}
	result.Sources = len(p.sources)

	seen := map[string]struct{}{}
	if p.seenStore != nil {
		seen, err = p.seenStore.LoadSeen(ctx)
		if err != nil {
			return result, fmt.Errorf("load seen set: %w", err)
		}
	}

	collected := p.collect(ctx, &result)
	result.Fetched = len(collected)

	fresh := Dedupe(collected, seen)
	result.Deduped = len(collected) - len(fresh)
	p.info("collection done", "fetched", result.Fetched, "new", len(fresh), "source_errors", len(result.SourceErrors))

	scored := p.score(ctx, fresh, &result)
	result.Scored = len(scored)

	selected := Select(scored, p.threshold, p.maxItems)
	result.Selected = len(selected)

	meta := report.Meta{
		Name:        p.reportName,
		Date:        now,
		SourceNames: p.sourceNames(),
	}

	if text, ok := report.Compose(selected, meta); ok {
		result.Report = text
		p.publish(ctx, text, now, &result)
	} else {
		p.info("nothing relevant, skipping publish")
	}

	// Seen means processed: everything that was scored is recorded,
	// whether it cleared the threshold or not. Items of failed scoring
	// batches are left unmarked so the next run picks them up again.
	if p.seenStore != nil {
		if err := p.seenStore.MarkSeen(ctx, scored, now); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("persist seen set: %v", err))
		}

		cutoff := now.AddDate(0, 0, -p.retentionDays)
		if evicted, err := p.seenStore.Evict(ctx, cutoff); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("evict seen set: %v", err))
		} else if evicted > 0 {
			p.info("evicted expired seen entries", "count", evicted)
		}
	}

	return result, nil
}

// collect fetches all sources concurrently. A failing source is
// recorded and skipped; the rest proceed. Merge order follows the
// configured source order so runs are reproducible.
func (p *Pipeline) collect(ctx context.Context, result *domain.RunResult) []domain.Item {
	perSource := make([][]domain.Item, len(p.sources))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, src := range p.sources {
		wg.Add(1)
		go func(idx int, src ports.Source) {
			defer wg.Done()

			items, err := src.Collect(ctx)
			if err != nil {
				mu.Lock()
				result.SourceErrors = append(result.SourceErrors, err.Error())
				mu.Unlock()
				p.warn("source failed", "source", src.Label(), "error", err)
				return
			}
			perSource[idx] = items
		}(i, src)
	}
	wg.Wait()

	var merged []domain.Item
	for _, items := range perSource {
		merged = append(merged, items...)
	}
	return merged
}

func (p *Pipeline) score(ctx context.Context, items []domain.Item, result *domain.RunResult) []domain.Item {
	if len(items) == 0 || p.scorer == nil {
		return nil
	}

	scored, problems := p.scorer.Score(ctx, items)
	for _, problem := range problems {
		var batchErr *domain.ScoreBatchError
		if errors.As(problem, &batchErr) {
			result.ScoreErrors = append(result.ScoreErrors, problem.Error())
			p.warn("scoring batch failed", "error", problem)
			continue
		}
		result.Warnings = append(result.Warnings, problem.Error())
	}

	return scored
}

func (p *Pipeline) publish(ctx context.Context, text string, now time.Time, result *domain.RunResult) {
	if p.publisher == nil {
		result.PublishError = "no publisher configured"
		return
	}

	date := now.Format("2006-01-02")
	title := fmt.Sprintf("%s - %s", p.reportName, date)

	if err := p.publisher.Publish(ctx, title, date, text); err != nil {
		result.PublishError = err.Error()
		p.warn("publish failed", "error", err)
		return
	}

	result.Published = true
}

func (p *Pipeline) sourceNames() []string {
	names := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		names = append(names, src.Label())
	}
	return names
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
