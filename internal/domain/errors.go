package domain

import "fmt"

// SourceError marks a single source as unreachable or unparseable.
// It is scoped to that source: the orchestrator records it and keeps
// collecting from the others.
type SourceError struct {
	Label string
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Label, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ScoreBatchError marks one scoring batch as failed after retries.
// Items of that batch are excluded from the run; other batches proceed.
type ScoreBatchError struct {
	Batch int
	Size  int
	Err   error
}

func (e *ScoreBatchError) Error() string {
	return fmt.Sprintf("score batch %d (%d items): %v", e.Batch, e.Size, e.Err)
}

func (e *ScoreBatchError) Unwrap() error { return e.Err }

// PublishError marks a delivery that failed after bounded retries.
// Fatal to the run's delivery goal, not to the process.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish report: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
