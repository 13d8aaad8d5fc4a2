package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/metrics"
)

// Summarizer computes the rolling metrics summary.
type Summarizer interface {
	Summarize(ctx context.Context) (metrics.Summary, error)
}

// ReportSink keeps the latest rendered report.
type ReportSink interface {
	SaveReport(ctx context.Context, data []byte) error
}

// SettingsSource exposes the cached settings.
type SettingsSource interface {
	Settings() domain.Settings
}

// WeeklyReporter stores a metrics report on its interval for users who
// opted in.
type WeeklyReporter struct {
	summarizer Summarizer
	reports    ReportSink
	settings   SettingsSource
	logger     logger.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

func NewWeeklyReporter(
	summarizer Summarizer,
	reports ReportSink,
	settings SettingsSource,
	log logger.Logger,
	interval time.Duration,
) *WeeklyReporter {
	return &WeeklyReporter{
		summarizer: summarizer,
		reports:    reports,
		settings:   settings,
		logger:     log,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the periodic report process. The first report is produced
// after one interval.
func (wr *WeeklyReporter) Start(ctx context.Context) error {
	ticker := time.NewTicker(wr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := wr.Run(ctx); err != nil {
					wr.logger.Error("weekly report failed",
						logger.Error(err))
				}
			case <-wr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reporter
func (wr *WeeklyReporter) Stop() {
	close(wr.stopCh)
}

// Run builds and stores one report. It reports false without doing anything
// when the user has not opted in.
func (wr *WeeklyReporter) Run(ctx context.Context) (bool, error) {
	if !wr.settings.Settings().WeeklyReportOptIn {
		wr.logger.Debug("weekly report skipped: not opted in")
		return false, nil
	}

	summary, err := wr.summarizer.Summarize(ctx)
	if err != nil {
		return false, err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return false, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := wr.reports.SaveReport(ctx, data); err != nil {
		return false, fmt.Errorf("failed to save report: %w", err)
	}

	wr.logger.Info("weekly report stored",
		logger.Int("alerts", summary.Alerts),
		logger.Int("max_open", summary.MaxOpen),
		logger.Int("closed", summary.Closed),
		logger.Int("duplicate_rate", summary.DuplicateRate))
	return true, nil
}
