package contest

import (
	"context"
	"time"

	"github.com/futurecareers/contestide/internal/models"
)

// Timing holds the polling and retry bounds.
type Timing struct {
	// PollInterval is the delay before each execution poll, including the first.
	PollInterval time.Duration
	// MaxAttempts bounds the number of polls before a client-side timeout.
	MaxAttempts int
	// ReconcileDelay separates an accepted submit from the solved-list re-fetch.
	ReconcileDelay time.Duration
	// ThreadRetries is how many extra fetches wait for a clarification thread.
	ThreadRetries int
	// ThreadBackoff separates those fetches.
	ThreadBackoff time.Duration
	// ExecutionTimeout is sent to the execution service, in seconds.
	ExecutionTimeout int
}

// DefaultTiming matches the production backend.
func DefaultTiming() Timing {
	return Timing{
		PollInterval:     time.Second,
		MaxAttempts:      60,
		ReconcileDelay:   500 * time.Millisecond,
		ThreadRetries:    3,
		ThreadBackoff:    800 * time.Millisecond,
		ExecutionTimeout: models.DefaultExecutionTimeout,
	}
}

// withDefaults fills zero fields from DefaultTiming.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = d.MaxAttempts
	}
	if t.ReconcileDelay < 0 {
		t.ReconcileDelay = 0
	}
	if t.ThreadRetries < 0 {
		t.ThreadRetries = 0
	}
	if t.ThreadBackoff <= 0 {
		t.ThreadBackoff = d.ThreadBackoff
	}
	if t.ExecutionTimeout <= 0 {
		t.ExecutionTimeout = d.ExecutionTimeout
	}
	return t
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-clock SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
