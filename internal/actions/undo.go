package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

// pushUndo snapshots targets into a new entry and inserts it under the
// stack bounds.
func (e *Engine) pushUndo(ctx context.Context, kind domain.UndoKind, targets []domain.Resource) (string, error) {
	now := e.clock.Now()
	entry := domain.UndoEntry{
		ID:        e.ids.New(),
		CreatedAt: now,
		Kind:      kind,
		Snapshot:  make([]domain.ResourceSnapshot, len(targets)),
	}
	for i, r := range targets {
		entry.Snapshot[i] = r.Snapshot()
	}

	_, err := e.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		rs.UndoStack = domain.BoundUndoStack(append(rs.UndoStack, entry.Clone()), now)
		return nil
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

// UndoStack lists the live undo entries, oldest first.
func (e *Engine) UndoStack(ctx context.Context) ([]domain.UndoEntry, error) {
	rs, err := e.state.LoadRuntime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load runtime state: %w", err)
	}
	return domain.BoundUndoStack(rs.UndoStack, e.clock.Now()), nil
}

// Undo removes the entry id from the stack and reopens its resources.
// Expired and unknown ids fail with domain.ErrUndoNotFound. Every snapshot is
// attempted even if an earlier restore fails.
func (e *Engine) Undo(ctx context.Context, id string) (Result, error) {
	now := e.clock.Now()
	var entry domain.UndoEntry

	_, err := e.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		live := domain.BoundUndoStack(rs.UndoStack, now)
		i := slices.IndexFunc(live, func(u domain.UndoEntry) bool { return u.ID == id })
		if i < 0 {
			return domain.ErrUndoNotFound
		}
		entry = live[i].Clone()
		rs.UndoStack = slices.Delete(live, i, i+1)
		return nil
	})
	if err != nil {
		return Result{}, &domain.ActionError{Action: "undo", Params: "id=" + id, Err: err}
	}

	snaps := slices.Clone(entry.Snapshot)
	slices.SortStableFunc(snaps, func(a, b domain.ResourceSnapshot) int {
		if a.ContainerID != b.ContainerID {
			if a.ContainerID < b.ContainerID {
				return -1
			}
			return 1
		}
		return a.Index - b.Index
	})

	var errs []error
	restored := 0
	for _, snap := range snaps {
		if err := e.sink.RestoreResource(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", snap.ID, err))
			continue
		}
		restored++
	}

	res := Result{Summary: fmt.Sprintf("Restored %s", tabs(restored)), AffectedCount: restored}
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", domain.ErrMutation, errors.Join(errs...))
		e.logger.Warn("undo incomplete",
			logger.String("undo_id", id),
			logger.Int("restored", restored),
			logger.Int("failed", len(errs)),
			logger.Error(err))
		return res, &domain.ActionError{Action: "undo", Params: "id=" + id, Err: err}
	}

	e.logger.Info("undo applied",
		logger.String("undo_id", id),
		logger.String("kind", string(entry.Kind)),
		logger.Int("restored", restored))
	return res, nil
}

// PruneUndo drops expired entries and returns how many were removed.
func (e *Engine) PruneUndo(ctx context.Context) (int, error) {
	now := e.clock.Now()
	removed := 0
	_, err := e.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		live := domain.BoundUndoStack(rs.UndoStack, now)
		removed = len(rs.UndoStack) - len(live)
		if removed == 0 {
			return domain.ErrSkipUpdate
		}
		rs.UndoStack = live
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune undo stack: %w", err)
	}
	return removed, nil
}
