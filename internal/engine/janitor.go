package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/mparks/geode/internal/store"
)

// Janitor periodically prunes terminal jobs older than the retention window.
// A pruned job id reads as not-found afterwards, never as a stale result.
type Janitor struct {
	store     store.Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor creates a janitor. A zero retention disables pruning.
func NewJanitor(s store.Store, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:     s,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks, sweeping on every interval tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.retention <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// Sweep removes terminal jobs that finished before the retention cutoff.
func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	n, err := j.store.DeleteJobsBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("job pruning failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("pruned terminal jobs", "count", n, "cutoff", cutoff)
	}
}
