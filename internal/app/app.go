package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/ai"
	"NewsDigest/internal/infrastructure/push"
	"NewsDigest/internal/infrastructure/rss"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/twitter"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/source"
	"NewsDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	store     *storage.SeenStore
	publisher *push.Client
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := source.NewRegistry()
	registry.Register(domain.KindRSS, func(sc config.SourceConfig) (ports.Source, error) {
		return rss.NewFeedSource(sc, nil), nil
	})

	limiter := twitter.NewLimiter(cfg.Twitter)
	registry.Register(domain.KindTwitter, func(sc config.SourceConfig) (ports.Source, error) {
		return twitter.NewTimelineSource(sc, cfg.Twitter, nil, limiter)
	})

	sources, err := registry.Build(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	store, err := storage.NewSeenStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}

	scorer := ai.NewClient(cfg.AI, nil, baseLogger.With("component", "scorer"))
	publisher := push.NewClient(cfg.Push, nil)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:       sources,
		SeenStore:     store,
		Scorer:        scorer,
		Publisher:     publisher,
		Logger:        baseLogger.With("component", "pipeline"),
		ReportName:    cfg.Report.Name,
		Threshold:     cfg.Report.Threshold,
		MaxItems:      cfg.Report.MaxItems,
		RetentionDays: cfg.Storage.RetentionDays,
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		store:     store,
		publisher: publisher,
	}, nil
}

// checkWorkerHealth warns when the publish endpoint does not answer its
// health route. The run still proceeds: publishing has its own retries
// and the worker may recover before the report is ready.
func (a *Application) checkWorkerHealth(ctx context.Context) {
	if err := a.publisher.Health(ctx); err != nil {
		a.logger.Warn("worker health check failed", "error", err)
	}
}

// RunOnce performs a single pipeline pass and returns its result.
func (a *Application) RunOnce(ctx context.Context) (domain.RunResult, error) {
	a.checkWorkerHealth(ctx)

	now := time.Now().In(a.cfg.Scheduler.Location())

	result, err := a.pipeline.Run(ctx, now)
	if err != nil {
		return result, err
	}

	usecase.LogSummary(a.logger, result)
	return result, nil
}

// RunCron blocks and executes the pipeline on the configured schedule
// until an interrupt or the context ends.
func (a *Application) RunCron(ctx context.Context) error {
	a.checkWorkerHealth(ctx)

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		a.logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
