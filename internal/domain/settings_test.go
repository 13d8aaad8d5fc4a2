package domain

import (
	"testing"
	"time"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"zero threshold", func(s *Settings) { s.ThresholdCount = 0 }, true},
		{"negative cooldown", func(s *Settings) { s.CooldownMinutes = -1 }, true},
		{"zero quick close", func(s *Settings) { s.QuickCloseCount = 0 }, true},
		{"zero snooze", func(s *Settings) { s.DefaultSnoozeMinutes = 0 }, true},
		{"zero stale hours", func(s *Settings) { s.StaleAfterHours = 0 }, true},
		{"empty locale is fine", func(s *Settings) { s.Locale = "" }, false},
		{"korean locale", func(s *Settings) { s.Locale = "ko" }, false},
		{"unsupported locale", func(s *Settings) { s.Locale = "fr" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.ThresholdCount != 30 || s.CooldownMinutes != 10 || s.QuickCloseCount != 10 ||
		s.DefaultSnoozeMinutes != 60 || s.Locale != "en" || s.StaleAfterHours != 24 || s.WeeklyReportOptIn {
		t.Errorf("DefaultSettings() = %+v", s)
	}
}

func TestSettingsSnoozeFor(t *testing.T) {
	s := DefaultSettings()
	s.DefaultSnoozeMinutes = 45

	if got := s.SnoozeFor(0); got != 45*time.Minute {
		t.Errorf("SnoozeFor(0) = %v, want 45m", got)
	}
	if got := s.SnoozeFor(5); got != 5*time.Minute {
		t.Errorf("SnoozeFor(5) = %v, want 5m", got)
	}
}

func TestRuntimeStateSuppression(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	until := now.Add(time.Minute)
	last := now.Add(-5 * time.Minute)

	rs := RuntimeState{SnoozeUntil: &until, LastAlertAt: &last}
	if !rs.Snoozed(now) {
		t.Error("expected snoozed before snoozeUntil")
	}
	if rs.Snoozed(until) {
		t.Error("snooze must end at snoozeUntil")
	}
	if !rs.CoolingDown(now, 10*time.Minute) {
		t.Error("expected cooldown within 10 minutes")
	}
	if rs.CoolingDown(now, 5*time.Minute) {
		t.Error("cooldown must end once the full window elapsed")
	}
}

func TestRuntimeStateCloneIsDeep(t *testing.T) {
	now := time.Now()
	rs := RuntimeState{
		LastAlertAt: &now,
		UndoStack:   []UndoEntry{{ID: "a", Snapshot: []ResourceSnapshot{{ID: "1"}}}},
	}
	c := rs.Clone()
	c.UndoStack[0].Snapshot[0].ID = "changed"
	*c.LastAlertAt = now.Add(time.Hour)

	if rs.UndoStack[0].Snapshot[0].ID != "1" {
		t.Error("clone shares snapshot backing array")
	}
	if !rs.LastAlertAt.Equal(now) {
		t.Error("clone shares LastAlertAt pointer")
	}
}
