package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

const (
	// DefaultEventRetention is how long metric events are kept.
	DefaultEventRetention = 30 * 24 * time.Hour // 30 days
)

// UndoPruner drops expired undo entries.
type UndoPruner interface {
	PruneUndo(ctx context.Context) (int, error)
}

// EventTrimmer deletes metric events older than a cutoff.
type EventTrimmer interface {
	TrimBefore(ctx context.Context, before time.Time) (int64, error)
}

// UndoCollector handles cleanup of expired undo entries and old events
type UndoCollector struct {
	pruner    UndoPruner
	events    EventTrimmer
	clock     domain.Clock
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewUndoCollector creates a new collector
func NewUndoCollector(
	pruner UndoPruner,
	events EventTrimmer,
	clock domain.Clock,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *UndoCollector {
	if retention == 0 {
		retention = DefaultEventRetention
	}

	return &UndoCollector{
		pruner:    pruner,
		events:    events,
		clock:     clock,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (uc *UndoCollector) Start(ctx context.Context) error {
	if err := uc.Collect(ctx); err != nil {
		uc.logger.Warn("initial collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(uc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := uc.Collect(ctx); err != nil {
					uc.logger.Error("collection failed",
						logger.Error(err))
				}
			case <-uc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (uc *UndoCollector) Stop() {
	close(uc.stopCh)
}

// Collect prunes the undo stack and trims events past the retention period.
// Both steps run even if the first one fails.
func (uc *UndoCollector) Collect(ctx context.Context) error {
	now := uc.clock.Now()

	pruned, pruneErr := uc.pruner.PruneUndo(ctx)
	trimmed, trimErr := uc.events.TrimBefore(ctx, now.Add(-uc.retention))

	if pruned > 0 || trimmed > 0 {
		uc.logger.Info("collection completed",
			logger.Int("undo_entries_pruned", pruned),
			logger.Int64("events_trimmed", trimmed))
	} else {
		uc.logger.Debug("nothing to collect")
	}

	return errors.Join(pruneErr, trimErr)
}
