package app

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/config"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:             "127.0.0.1:0",
		ShutdownTimeout:        time.Second,
		StoreBackend:           config.StoreMemory,
		SettingsReloadInterval: time.Hour,
		DebounceWindow:         time.Hour,
		UndoGCInterval:         time.Hour,
		EventRetention:         24 * time.Hour,
		ReportInterval:         time.Hour,
		CommandDrainMax:        10,
		ActionRateBurst:        10,
		ActionRatePerMin:       60,
	}
}

func stopAll(stops []func()) {
	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
}

func TestStart_ExpiredSnoozeTriggersEvaluation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig(), logger.New("error", false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	until := time.Now().Add(-time.Minute)
	if _, err := a.store.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		rs.SnoozeUntil = &until
		return nil
	}); err != nil {
		t.Fatalf("UpdateRuntime() error = %v", err)
	}

	stops, err := a.start(ctx)
	defer stopAll(stops)
	if err != nil {
		t.Fatalf("start() error = %v", err)
	}

	rs, err := a.store.LoadRuntime(ctx)
	if err != nil {
		t.Fatalf("LoadRuntime() error = %v", err)
	}
	if rs.SnoozeUntil != nil {
		t.Errorf("SnoozeUntil = %v, want cleared", rs.SnoozeUntil)
	}
	if !a.monitor.Pending() {
		t.Error("ending a stale snooze on start should schedule an evaluation")
	}
}

func TestStart_NoSnoozeLeavesMonitorIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig(), logger.New("error", false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	stops, err := a.start(ctx)
	defer stopAll(stops)
	if err != nil {
		t.Fatalf("start() error = %v", err)
	}
	if a.monitor.Pending() {
		t.Error("nothing changed, no evaluation expected")
	}
}
