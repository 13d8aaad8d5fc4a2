package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/store/memory"
	"github.com/MrSnakeDoc/tabguard/internal/testutil"
)

func alert(at time.Time, current int) domain.MetricEvent {
	return domain.MetricEvent{Timestamp: at, Kind: domain.EventAlertShown,
		Payload: domain.EventPayload{Current: current, Threshold: 30}}
}

func closed(at time.Time, action string, n, dups int) domain.MetricEvent {
	return domain.MetricEvent{Timestamp: at, Kind: domain.EventActionExecuted,
		Payload: domain.EventPayload{Action: action, Count: n, Closed: n, Duplicates: dups}}
}

func grouped(at time.Time, host string) domain.MetricEvent {
	return domain.MetricEvent{Timestamp: at, Kind: domain.EventActionExecuted,
		Payload: domain.EventPayload{Action: "group_domain", Count: 2, Domain: host}}
}

func TestFold_Empty(t *testing.T) {
	s := Fold(nil)
	if s.AverageOpen != 0 || s.MaxOpen != 0 || s.DuplicateRate != 0 {
		t.Errorf("Fold(nil) = %+v", s)
	}
	if s.TopDomains == nil || s.History == nil {
		t.Error("empty lists should be non-nil")
	}
}

func TestFold_AlertSamples(t *testing.T) {
	now := testutil.FixedClock().Now()
	s := Fold([]domain.MetricEvent{
		alert(now, 31),
		alert(now, 40),
		alert(now, 33),
	})
	if s.Alerts != 3 || s.MaxOpen != 40 {
		t.Errorf("alerts=%d max=%d", s.Alerts, s.MaxOpen)
	}
	if s.AverageOpen != 35 {
		t.Errorf("AverageOpen = %d, want 35", s.AverageOpen)
	}
	if len(s.History) != 0 {
		t.Error("alerts must not appear in the action history")
	}
}

func TestFold_AverageRoundsHalfUp(t *testing.T) {
	now := testutil.FixedClock().Now()
	s := Fold([]domain.MetricEvent{alert(now, 30), alert(now, 31)})
	if s.AverageOpen != 31 {
		t.Errorf("AverageOpen = %d, want 31", s.AverageOpen)
	}
}

func TestFold_SnoozeDoesNotDiluteDuplicateRate(t *testing.T) {
	now := testutil.FixedClock().Now()
	s := Fold([]domain.MetricEvent{
		closed(now, "close_duplicates", 2, 2),
		{Timestamp: now, Kind: domain.EventActionExecuted,
			Payload: domain.EventPayload{Action: "snooze", Minutes: 60}},
	})
	if s.DuplicateRate != 100 || s.Closed != 2 || len(s.History) != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestFold_DuplicateRate(t *testing.T) {
	now := testutil.FixedClock().Now()
	tests := []struct {
		name   string
		events []domain.MetricEvent
		want   int
	}{
		{"nothing closed", []domain.MetricEvent{grouped(now, "a.com")}, 0},
		{"all duplicates", []domain.MetricEvent{closed(now, "close_duplicates", 4, 4)}, 100},
		{"one third rounds down", []domain.MetricEvent{
			closed(now, "close_duplicates", 1, 1),
			closed(now, "close_oldest", 2, 0),
		}, 33},
		{"two thirds rounds up", []domain.MetricEvent{
			closed(now, "close_duplicates", 2, 2),
			closed(now, "archive_stale", 1, 0),
		}, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.events).DuplicateRate; got != tt.want {
				t.Errorf("DuplicateRate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFold_TopDomains(t *testing.T) {
	now := testutil.FixedClock().Now()
	var events []domain.MetricEvent
	for _, host := range []string{"f.com", "b.com", "a.com", "b.com", "c.com", "d.com", "e.com", "a.com", "g.com"} {
		events = append(events, grouped(now, host))
	}
	events = append(events, closed(now, "close_oldest", 3, 0))

	s := Fold(events)
	want := []DomainCount{{"b.com", 2}, {"a.com", 2}, {"f.com", 1}, {"c.com", 1}, {"d.com", 1}}
	if len(s.TopDomains) != len(want) {
		t.Fatalf("TopDomains = %+v", s.TopDomains)
	}
	for i := range want {
		if s.TopDomains[i] != want[i] {
			t.Errorf("TopDomains[%d] = %+v, want %+v", i, s.TopDomains[i], want[i])
		}
	}
	if len(s.History) != len(events) {
		t.Errorf("History has %d entries, want %d", len(s.History), len(events))
	}
}

func TestSummarize_Window(t *testing.T) {
	clock := testutil.FixedClock()
	now := clock.Now()
	store := memory.NewStore()
	ctx := context.Background()

	for _, ev := range []domain.MetricEvent{
		alert(now.Add(-8*24*time.Hour), 99),
		alert(now.Add(-Window), 50),
		alert(now.Add(-time.Hour), 40),
		{Timestamp: now.Add(-time.Minute), Kind: domain.EventActionExecuted,
			Payload: domain.EventPayload{Action: "snooze", Minutes: 30, Reason: "alert"}},
	} {
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	s, err := New(store, clock, logger.New("error", false)).Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Alerts != 2 || s.MaxOpen != 50 || s.AverageOpen != 45 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.History) != 1 || s.History[0].Action != "snooze" || s.History[0].Minutes != 30 {
		t.Errorf("History = %+v", s.History)
	}
	if !s.To.Equal(now) || !s.From.Equal(now.Add(-Window)) {
		t.Errorf("window = %s..%s", s.From, s.To)
	}
}

type brokenLog struct{}

func (brokenLog) Append(ctx context.Context, ev domain.MetricEvent) error { return nil }
func (brokenLog) Since(ctx context.Context, since time.Time) ([]domain.MetricEvent, error) {
	return nil, errors.New("connection refused")
}

func TestSummarize_LogFailure(t *testing.T) {
	_, err := New(brokenLog{}, testutil.FixedClock(), logger.New("error", false)).Summarize(context.Background())
	if err == nil {
		t.Fatal("Summarize() should fail when the log cannot be read")
	}
}
