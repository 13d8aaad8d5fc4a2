package domain

import (
	"context"
	"errors"
	"time"
)

// RuntimeState is the mutable record shared by the monitor and the engine.
//
// Version increases on every successful write. Stores use it to detect
// concurrent writers and retry instead of silently losing an update.
type RuntimeState struct {
	LastAlertAt *time.Time  `json:"last_alert_at,omitempty"`
	SnoozeUntil *time.Time  `json:"snooze_until,omitempty"`
	UndoStack   []UndoEntry `json:"undo_stack"`
	Version     int64       `json:"version"`
}

// Snoozed reports whether alerts are silenced at now.
func (rs RuntimeState) Snoozed(now time.Time) bool {
	return rs.SnoozeUntil != nil && now.Before(*rs.SnoozeUntil)
}

// CoolingDown reports whether the last alert is more recent than cooldown.
func (rs RuntimeState) CoolingDown(now time.Time, cooldown time.Duration) bool {
	return rs.LastAlertAt != nil && now.Sub(*rs.LastAlertAt) < cooldown
}

// Clone deep-copies the record so callers can mutate it freely.
func (rs RuntimeState) Clone() RuntimeState {
	out := rs
	if rs.LastAlertAt != nil {
		t := *rs.LastAlertAt
		out.LastAlertAt = &t
	}
	if rs.SnoozeUntil != nil {
		t := *rs.SnoozeUntil
		out.SnoozeUntil = &t
	}
	out.UndoStack = make([]UndoEntry, len(rs.UndoStack))
	for i, e := range rs.UndoStack {
		out.UndoStack[i] = e.Clone()
	}
	return out
}

// ErrSkipUpdate may be returned by an update function to leave the stored
// state untouched. UpdateRuntime then returns the current state and no error.
var ErrSkipUpdate = errors.New("skip runtime state update")

// StateStore persists settings and runtime state.
//
// UpdateRuntime runs fn against the latest state and writes the result only
// if nobody else wrote in between, re-running fn otherwise.
type StateStore interface {
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
	LoadRuntime(ctx context.Context) (RuntimeState, error)
	UpdateRuntime(ctx context.Context, fn func(rs *RuntimeState) error) (RuntimeState, error)
}
