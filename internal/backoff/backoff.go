// Package backoff implements the bounded exponential retry policy used
// for outbound calls (scoring batches, report delivery).
package backoff

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule. The delay starts at Base
// and doubles per attempt, capped at Max.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration

	// Sleep is overridable so tests run without real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default mirrors the schedule used against both external services:
// three attempts, 1s then 2s between them.
func Default() Policy {
	return Policy{MaxAttempts: 3, Base: time.Second, Max: 30 * time.Second}
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping the scheduled delay
// between attempts. It stops early when fn succeeds, when retryable
// reports the error as permanent, or when the context ends. The last
// error is returned after exhaustion.
func (p Policy) Do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Delay(attempt-1)); err != nil {
				return err
			}
		}

		last = fn()
		if last == nil {
			return nil
		}
		if retryable != nil && !retryable(last) {
			return last
		}
	}

	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
