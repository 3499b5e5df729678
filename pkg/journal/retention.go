package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/config"
)

// pruneTimeout bounds one pruning pass.
const pruneTimeout = time.Minute

// Pruner deletes journal records older than the retention period on a
// cron schedule.
type Pruner struct {
	storage Storage
	config  config.RetentionConfig
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewPruner creates a pruner for the given storage backend.
func NewPruner(storage Storage, cfg config.RetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		config:  cfg,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "journal.retention"),
	}
}

// Start schedules pruning according to the configured cron expression.
// With retention disabled (days <= 0) or no schedule, Start is a no-op.
func (p *Pruner) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.Days <= 0 || p.config.PruneSchedule == "" {
		p.logger.Info("journal retention disabled",
			"retention_days", p.config.Days,
		)
		return nil
	}

	if _, err := cron.ParseStandard(p.config.PruneSchedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.config.PruneSchedule, err)
	}

	_, err := p.cron.AddFunc(p.config.PruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("journal retention scheduled",
		"schedule", p.config.PruneSchedule,
		"retention_days", p.config.Days,
	)

	return nil
}

// Prune deletes records older than the retention period and returns how
// many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.Days <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed: %w", err)
	}

	if deleted > 0 {
		remaining, countErr := p.storage.Count(ctx)
		if countErr != nil {
			remaining = -1
		}
		p.logger.Info("journal records pruned",
			"deleted", deleted,
			"remaining", remaining,
			"retention_days", p.config.Days,
		)
	} else {
		p.logger.Debug("no journal records to prune",
			"retention_days", p.config.Days,
		)
	}

	return deleted, nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	ctx := p.cron.Stop()
	<-ctx.Done()
	p.running = false
	p.logger.Info("journal retention stopped")
}

// Running reports whether the scheduler is active.
func (p *Pruner) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled pruning time, or nil when the
// scheduler is idle.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
