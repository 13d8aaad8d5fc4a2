package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/sources/settingsfile"
)

// Refresher caches settings and reloads them on request.
type Refresher interface {
	RefreshSettings(ctx context.Context) error
}

// SettingsReloader seeds the store from the settings file and keeps the
// component caches in sync with the store.
//
// The file is applied on start and whenever its content changes. In between,
// settings written through the API stay in effect.
type SettingsReloader struct {
	loader        *settingsfile.Loader
	store         domain.StateStore
	refreshers    []Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	mu         sync.Mutex
	lastDigest uint64
	applied    bool
}

// NewSettingsReloader creates a reloader. An empty settingsFile disables the
// file and only refreshes caches.
func NewSettingsReloader(
	settingsFile string,
	store domain.StateStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
	refreshers ...Refresher,
) *SettingsReloader {
	var loader *settingsfile.Loader
	if settingsFile != "" {
		loader = settingsfile.NewLoader(settingsFile)
	}
	return &SettingsReloader{
		loader:        loader,
		store:         store,
		refreshers:    refreshers,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic reload process
func (sr *SettingsReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx, false); err != nil {
		return fmt.Errorf("initial settings reload failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Reload(ctx, false); err != nil {
					sr.logger.Error("failed to reload settings",
						logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual settings reload triggered")
				if err := sr.Reload(ctx, true); err != nil {
					sr.logger.Error("failed to reload settings",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *SettingsReloader) Stop() {
	close(sr.stopCh)
}

// Reload applies the settings file if it changed since the last apply, or
// unconditionally when force is set, then refreshes every cache.
func (sr *SettingsReloader) Reload(ctx context.Context, force bool) error {
	if sr.loader != nil {
		if err := sr.applyFile(ctx, force); err != nil {
			return err
		}
	}
	return sr.Refresh(ctx)
}

// Refresh reloads every cache from the store.
func (sr *SettingsReloader) Refresh(ctx context.Context) error {
	for _, r := range sr.refreshers {
		if err := r.RefreshSettings(ctx); err != nil {
			return fmt.Errorf("failed to refresh settings cache: %w", err)
		}
	}
	return nil
}

func (sr *SettingsReloader) applyFile(ctx context.Context, force bool) error {
	doc, err := sr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings file: %w", err)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.applied && !force && doc.Digest == sr.lastDigest {
		sr.logger.Debug("settings file unchanged", logger.String("path", sr.loader.Path()))
		return nil
	}

	current, err := sr.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored settings: %w", err)
	}
	merged := doc.File.Merge(current)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("settings file %s: %w", sr.loader.Path(), err)
	}
	if err := sr.store.SaveSettings(ctx, merged); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	sr.lastDigest = doc.Digest
	sr.applied = true
	sr.logger.Info("settings file applied",
		logger.String("path", sr.loader.Path()),
		logger.Int("threshold", merged.ThresholdCount),
		logger.Int("cooldown_minutes", merged.CooldownMinutes),
		logger.String("locale", merged.Locale))
	return nil
}
