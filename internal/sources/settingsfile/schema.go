package settingsfile

import "github.com/MrSnakeDoc/tabguard/internal/domain"

// File is the on-disk settings document. Every key is optional; absent keys
// keep the value already in effect.
type File struct {
	ThresholdCount       *int    `yaml:"threshold_count" toml:"threshold_count"`
	CooldownMinutes      *int    `yaml:"cooldown_minutes" toml:"cooldown_minutes"`
	QuickCloseCount      *int    `yaml:"quick_close_count" toml:"quick_close_count"`
	DefaultSnoozeMinutes *int    `yaml:"default_snooze_minutes" toml:"default_snooze_minutes"`
	WeeklyReportOptIn    *bool   `yaml:"weekly_report_opt_in" toml:"weekly_report_opt_in"`
	Locale               *string `yaml:"locale" toml:"locale"`
	StaleAfterHours      *int    `yaml:"stale_after_hours" toml:"stale_after_hours"`
}

// Merge returns base with every key present in f applied on top.
func (f File) Merge(base domain.Settings) domain.Settings {
	out := base
	setInt(&out.ThresholdCount, f.ThresholdCount)
	setInt(&out.CooldownMinutes, f.CooldownMinutes)
	setInt(&out.QuickCloseCount, f.QuickCloseCount)
	setInt(&out.DefaultSnoozeMinutes, f.DefaultSnoozeMinutes)
	setInt(&out.StaleAfterHours, f.StaleAfterHours)
	if f.WeeklyReportOptIn != nil {
		out.WeeklyReportOptIn = *f.WeeklyReportOptIn
	}
	if f.Locale != nil {
		out.Locale = *f.Locale
	}
	return out
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
