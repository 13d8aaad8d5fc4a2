// Package storetest holds the behavior every store.Backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/store"
)

// Run executes the backend contract against stores built by newBackend.
// newBackend must return an empty store on each call.
func Run(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Run("settings default when absent", func(t *testing.T) {
		b := newBackend(t)
		got, err := b.LoadSettings(context.Background())
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if got != domain.DefaultSettings() {
			t.Errorf("LoadSettings() = %+v, want defaults", got)
		}
	})

	t.Run("settings round trip", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		s := domain.DefaultSettings()
		s.ThresholdCount = 42
		s.Locale = "ko"

		if err := b.SaveSettings(ctx, s); err != nil {
			t.Fatalf("SaveSettings() error = %v", err)
		}
		got, err := b.LoadSettings(ctx)
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if got != s {
			t.Errorf("LoadSettings() = %+v, want %+v", got, s)
		}
	})

	t.Run("invalid settings rejected", func(t *testing.T) {
		b := newBackend(t)
		s := domain.DefaultSettings()
		s.ThresholdCount = 0
		if err := b.SaveSettings(context.Background(), s); err == nil {
			t.Error("SaveSettings() accepted a zero threshold")
		}
	})

	t.Run("runtime update bumps version", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

		rs, err := b.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
			rs.LastAlertAt = &now
			return nil
		})
		if err != nil {
			t.Fatalf("UpdateRuntime() error = %v", err)
		}
		if rs.Version != 1 {
			t.Errorf("Version = %d, want 1", rs.Version)
		}

		loaded, err := b.LoadRuntime(ctx)
		if err != nil {
			t.Fatalf("LoadRuntime() error = %v", err)
		}
		if loaded.LastAlertAt == nil || !loaded.LastAlertAt.Equal(now) {
			t.Errorf("LastAlertAt = %v, want %v", loaded.LastAlertAt, now)
		}
	})

	t.Run("runtime skip leaves state untouched", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		rs, err := b.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
			rs.UndoStack = append(rs.UndoStack, domain.UndoEntry{ID: "dropped"})
			return domain.ErrSkipUpdate
		})
		if err != nil {
			t.Fatalf("UpdateRuntime() error = %v", err)
		}
		if rs.Version != 0 || len(rs.UndoStack) != 0 {
			t.Errorf("skipped update leaked: %+v", rs)
		}
	})

	t.Run("runtime update error propagates", func(t *testing.T) {
		b := newBackend(t)
		boom := errors.New("boom")
		_, err := b.UpdateRuntime(context.Background(), func(rs *domain.RuntimeState) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("UpdateRuntime() error = %v, want boom", err)
		}
	})

	t.Run("concurrent runtime updates are not lost", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		const writers = 8

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := b.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
					rs.UndoStack = append(rs.UndoStack, domain.UndoEntry{ID: fmt.Sprintf("w%d", i)})
					return nil
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("UpdateRuntime() error = %v", err)
			}
		}

		rs, err := b.LoadRuntime(ctx)
		if err != nil {
			t.Fatalf("LoadRuntime() error = %v", err)
		}
		if len(rs.UndoStack) != writers {
			t.Errorf("undo stack has %d entries, want %d", len(rs.UndoStack), writers)
		}
		if rs.Version != writers {
			t.Errorf("Version = %d, want %d", rs.Version, writers)
		}
	})

	t.Run("events since window", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

		for i, kind := range []domain.EventKind{domain.EventAlertShown, domain.EventActionExecuted, domain.EventSnooze} {
			ev := domain.MetricEvent{
				ID:        fmt.Sprintf("ev-%d", i),
				Timestamp: base.Add(time.Duration(i) * time.Hour),
				Kind:      kind,
				Payload:   domain.EventPayload{Count: i},
			}
			if err := b.Append(ctx, ev); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		got, err := b.Since(ctx, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("Since() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Since() returned %d events, want 2", len(got))
		}
		if got[0].ID != "ev-1" || got[1].ID != "ev-2" {
			t.Errorf("Since() order = [%s %s], want [ev-1 ev-2]", got[0].ID, got[1].ID)
		}
		if got[1].Payload.Count != 2 {
			t.Errorf("payload not preserved: %+v", got[1].Payload)
		}

		removed, err := b.TrimBefore(ctx, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("TrimBefore() error = %v", err)
		}
		if removed != 1 {
			t.Errorf("TrimBefore() removed %d, want 1", removed)
		}
		all, _ := b.Since(ctx, time.Time{})
		if len(all) != 2 {
			t.Errorf("after trim %d events remain, want 2", len(all))
		}
	})

	t.Run("commands drain in order", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			cmd := domain.Command{ID: fmt.Sprintf("c%d", i), Kind: domain.CommandRemove, ResourceIDs: []string{fmt.Sprint(i)}}
			if err := b.Push(ctx, cmd); err != nil {
				t.Fatalf("Push() error = %v", err)
			}
		}

		first, err := b.Drain(ctx, 2)
		if err != nil {
			t.Fatalf("Drain() error = %v", err)
		}
		if len(first) != 2 || first[0].ID != "c0" || first[1].ID != "c1" {
			t.Errorf("first drain = %+v", first)
		}

		rest, err := b.Drain(ctx, 10)
		if err != nil {
			t.Fatalf("Drain() error = %v", err)
		}
		if len(rest) != 1 || rest[0].ID != "c2" {
			t.Errorf("second drain = %+v", rest)
		}

		empty, err := b.Drain(ctx, 10)
		if err != nil {
			t.Fatalf("Drain() on empty queue error = %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("empty drain returned %d commands", len(empty))
		}
	})

	t.Run("report round trip", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		none, err := b.LatestReport(ctx)
		if err != nil || none != nil {
			t.Fatalf("LatestReport() on empty store = %q, %v", none, err)
		}
		if err := b.SaveReport(ctx, []byte(`{"ok":true}`)); err != nil {
			t.Fatalf("SaveReport() error = %v", err)
		}
		got, err := b.LatestReport(ctx)
		if err != nil {
			t.Fatalf("LatestReport() error = %v", err)
		}
		if string(got) != `{"ok":true}` {
			t.Errorf("LatestReport() = %q", got)
		}
	})
}
