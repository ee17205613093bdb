package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/pushfeed/pushfeed/pkg/logger"
	"github.com/pushfeed/pushfeed/pkg/metrics"
	"github.com/pushfeed/pushfeed/pkg/notifier"
)

// Janitor periodically prunes expired notifications from storage. It is
// purely time-driven, so retention stays bounded even with zero traffic.
type Janitor struct {
	storage  notifier.Storage
	counters *metrics.Counters
	interval time.Duration
	logger   *slog.Logger
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithLogger sets the logger for the Janitor.
func WithLogger(l *slog.Logger) Option {
	return func(j *Janitor) {
		if l != nil {
			j.logger = l
		}
	}
}

// New creates a janitor that prunes the storage on the given interval.
func New(storage notifier.Storage, counters *metrics.Counters, interval time.Duration, opts ...Option) *Janitor {
	if counters == nil {
		counters = metrics.New()
	}

	j := &Janitor{
		storage:  storage,
		counters: counters,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start runs the prune loop until the context is cancelled. It blocks, so
// callers typically run it in its own goroutine.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.InfoContext(ctx, "janitor started",
		slog.Duration("interval", j.interval))

	for {
		select {
		case now := <-ticker.C:
			j.prune(ctx, now)
		case <-ctx.Done():
			j.logger.InfoContext(ctx, "janitor stopped")
			return ctx.Err()
		}
	}
}

func (j *Janitor) prune(ctx context.Context, now time.Time) {
	removed, err := j.storage.Prune(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "prune failed", logger.Error(err))
		return
	}
	if removed > 0 {
		j.counters.NotificationsPruned.Add(int64(removed))
		j.logger.DebugContext(ctx, "pruned expired notifications",
			slog.Int("removed", removed))
	}
}
