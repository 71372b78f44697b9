package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/core/metrics"
)

const component = "service.sessions"

// Janitor periodically drops sessions idle for longer than ttl.
type Janitor struct {
	store Pruner
	ttl   time.Duration
	sched gocron.Scheduler
	now   func() time.Time
}

// NewJanitor schedules pruning every interval. Call Start to begin.
func NewJanitor(store Pruner, ttl, interval time.Duration) (*Janitor, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session: janitor ttl must be > 0")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("session: scheduler: %w", err)
	}
	j := &Janitor{store: store, ttl: ttl, sched: sched, now: time.Now}
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_, _ = j.RunOnce(context.Background())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("session: schedule prune: %w", err)
	}
	return j, nil
}

// Start begins the schedule.
func (j *Janitor) Start() {
	j.sched.Start()
}

// Stop waits for a running prune and stops the schedule.
func (j *Janitor) Stop() error {
	return j.sched.Shutdown()
}

// RunOnce prunes immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := j.now().Add(-j.ttl)
	n, err := j.store.Prune(ctx, cutoff)
	if err != nil {
		logger.Warn(ctx, component, "sessions.prune",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, err
	}
	metrics.AddPruned(n)
	level := slog.LevelDebug
	if n > 0 {
		level = slog.LevelInfo
	}
	logger.Event(ctx, component, level, "sessions.prune",
		slog.String("status", "ok"),
		slog.Int64("pruned", n),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return n, nil
}
