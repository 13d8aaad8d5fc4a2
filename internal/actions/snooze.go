package actions

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

// scheduleSnoozeEnd replaces the pending snooze-end task with one firing at
// until. At most one task is pending.
func (e *Engine) scheduleSnoozeEnd(until time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	if e.snoozeTimer != nil {
		e.snoozeTimer.Stop()
	}
	e.snoozeGen++
	gen := e.snoozeGen
	delay := max(until.Sub(e.clock.Now()), 0)
	e.snoozeTimer = time.AfterFunc(delay, func() { e.fireSnoozeEnd(gen, until) })
}

// SnoozePending reports whether a snooze-end task is scheduled.
func (e *Engine) SnoozePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snoozeTimer != nil
}

func (e *Engine) fireSnoozeEnd(gen uint64, until time.Time) {
	e.mu.Lock()
	if gen != e.snoozeGen || !e.running {
		e.mu.Unlock()
		return
	}
	e.snoozeTimer = nil
	ctx := e.ctx
	e.mu.Unlock()

	e.clearSnooze(ctx, until)
}

// clearSnooze resets snoozeUntil if it still equals until, then notifies
// OnSnoozeEnd subscribers. A snooze extended in the meantime is left alone.
func (e *Engine) clearSnooze(ctx context.Context, until time.Time) {
	cleared := false
	_, err := e.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		cleared = false
		if rs.SnoozeUntil == nil || !rs.SnoozeUntil.Equal(until) {
			return domain.ErrSkipUpdate
		}
		rs.SnoozeUntil = nil
		cleared = true
		return nil
	})
	if err != nil {
		e.logger.Error("failed to clear snooze", logger.Time("until", until), logger.Error(err))
		return
	}
	if !cleared {
		return
	}

	e.logger.Info("snooze ended", logger.Time("until", until))
	e.snoozeEnded.Publish(until)
}
