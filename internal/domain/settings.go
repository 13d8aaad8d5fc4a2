package domain

import (
	"fmt"
	"slices"
	"time"
)

// Settings is the user configuration. It stays immutable for one monitor
// cycle; components cache it and reload it on demand.
type Settings struct {
	ThresholdCount       int    `json:"threshold_count" yaml:"threshold_count" toml:"threshold_count"`
	CooldownMinutes      int    `json:"cooldown_minutes" yaml:"cooldown_minutes" toml:"cooldown_minutes"`
	QuickCloseCount      int    `json:"quick_close_count" yaml:"quick_close_count" toml:"quick_close_count"`
	DefaultSnoozeMinutes int    `json:"default_snooze_minutes" yaml:"default_snooze_minutes" toml:"default_snooze_minutes"`
	WeeklyReportOptIn    bool   `json:"weekly_report_opt_in" yaml:"weekly_report_opt_in" toml:"weekly_report_opt_in"`
	Locale               string `json:"locale" yaml:"locale" toml:"locale"`
	StaleAfterHours      int    `json:"stale_after_hours" yaml:"stale_after_hours" toml:"stale_after_hours"`
}

// DefaultSettings is used until the user stores something else.
func DefaultSettings() Settings {
	return Settings{
		ThresholdCount:       30,
		CooldownMinutes:      10,
		QuickCloseCount:      10,
		DefaultSnoozeMinutes: 60,
		WeeklyReportOptIn:    false,
		Locale:               "en",
		StaleAfterHours:      24,
	}
}

// Locales lists the locale codes the alert texts exist in.
var Locales = []string{"en", "ko"}

// Validate checks that every numeric field is strictly positive and that
// the locale is supported. An empty locale means English.
func (s Settings) Validate() error {
	if s.Locale != "" && !slices.Contains(Locales, s.Locale) {
		return fmt.Errorf("invalid settings: locale must be one of %v, got %q", Locales, s.Locale)
	}
	checks := []struct {
		name  string
		value int
	}{
		{"threshold_count", s.ThresholdCount},
		{"cooldown_minutes", s.CooldownMinutes},
		{"quick_close_count", s.QuickCloseCount},
		{"default_snooze_minutes", s.DefaultSnoozeMinutes},
		{"stale_after_hours", s.StaleAfterHours},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("invalid settings: %s must be > 0, got %d", c.name, c.value)
		}
	}
	return nil
}

// Cooldown returns the minimum spacing between two alerts.
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.CooldownMinutes) * time.Minute
}

// SnoozeFor returns the snooze length for minutes, falling back to the default.
func (s Settings) SnoozeFor(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = s.DefaultSnoozeMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// StaleAfter returns the age after which an untouched resource is stale.
func (s Settings) StaleAfter() time.Duration {
	return time.Duration(s.StaleAfterHours) * time.Hour
}
