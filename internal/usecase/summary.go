package usecase

import (
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
)

// LogSummary emits the end-of-run summary line. Every run logs one,
// whatever its outcome.
func LogSummary(logger *slog.Logger, result domain.RunResult) {
	if logger == nil {
		return
	}

	logger.Info("run finished",
		"fetched", result.Fetched,
		"deduped", result.Deduped,
		"scored", result.Scored,
		"selected", result.Selected,
		"published", result.Published,
		"duration", result.Finished.Sub(result.Started).Round(time.Millisecond),
	)

	for _, msg := range result.SourceErrors {
		logger.Warn("source error", "error", msg)
	}
	for _, msg := range result.ScoreErrors {
		logger.Warn("scoring error", "error", msg)
	}
	if result.PublishError != "" {
		logger.Error("publish error", "error", result.PublishError)
	}
	for _, msg := range result.Warnings {
		logger.Warn("warning", "detail", msg)
	}
}
