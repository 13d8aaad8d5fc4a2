package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/notify"
)

// DefaultDebounce is how long the monitor waits after the last change.
const DefaultDebounce = 500 * time.Millisecond

// EventKind distinguishes threshold crossings from clears.
type EventKind string

const (
	ThresholdExceeded EventKind = "threshold_exceeded"
	ThresholdCleared  EventKind = "threshold_cleared"
)

// Event is published to subscribers after an evaluation.
type Event struct {
	Kind      EventKind `json:"kind"`
	Current   int       `json:"current"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

// Monitor turns bursts of resource changes into threshold evaluations.
//
// Only one debounce task is pending at a time. Scheduling a new one stops the
// previous timer and bumps the generation, so a timer that already fired but
// lost the race for the lock does nothing.
type Monitor struct {
	source   domain.ResourceSource
	state    domain.StateStore
	clock    domain.Clock
	logger   logger.Logger
	debounce time.Duration
	events   notify.Hub[Event]

	mu         sync.Mutex
	settings   domain.Settings
	timer      *time.Timer
	generation uint64
	ctx        context.Context
	running    bool
}

// New creates a monitor. A non-positive debounce falls back to DefaultDebounce.
func New(
	source domain.ResourceSource,
	state domain.StateStore,
	clock domain.Clock,
	log logger.Logger,
	debounce time.Duration,
) *Monitor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Monitor{
		source:   source,
		state:    state,
		clock:    clock,
		logger:   log,
		debounce: debounce,
		settings: domain.DefaultSettings(),
		ctx:      context.Background(),
	}
}

// Start loads settings and enables debounced evaluations. Evaluations
// triggered by Notify run under ctx.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.RefreshSettings(ctx); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	m.mu.Lock()
	m.ctx = ctx
	m.running = true
	m.mu.Unlock()
	return nil
}

// Stop cancels the pending debounce task. Notify becomes a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Subscribe registers fn for every published event.
func (m *Monitor) Subscribe(fn func(Event)) (unsubscribe func()) {
	return m.events.Subscribe(fn)
}

// Settings returns the cached settings.
func (m *Monitor) Settings() domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// RefreshSettings reloads the cached settings from the store. The monitor
// never reads the store on its own during evaluation.
func (m *Monitor) RefreshSettings(ctx context.Context) error {
	s, err := m.state.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()

	m.logger.Debug("monitor settings refreshed",
		logger.Int("threshold", s.ThresholdCount),
		logger.Int("cooldown_minutes", s.CooldownMinutes))
	return nil
}

// Notify records a resource or container change and (re)schedules the
// evaluation for one debounce window from now.
func (m *Monitor) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.generation++
	gen := m.generation
	m.timer = time.AfterFunc(m.debounce, func() { m.fire(gen) })
}

// Pending reports whether a debounce task is scheduled.
func (m *Monitor) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

func (m *Monitor) fire(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || !m.running {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	ctx := m.ctx
	m.mu.Unlock()

	// Failures are logged by CheckThreshold; the next change starts a new cycle.
	_, _, _ = m.CheckThreshold(ctx)
}

// CheckThreshold evaluates the current count against the cached threshold.
//
// It returns the evaluated event and whether it was published. A crossing
// that is snoozed or still cooling down is returned unpublished.
func (m *Monitor) CheckThreshold(ctx context.Context) (Event, bool, error) {
	settings := m.Settings()

	resources, err := m.source.List(ctx, domain.ResourceFilter{})
	if err != nil {
		m.logger.Warn("threshold check skipped: cannot list resources", logger.Error(err))
		return Event{}, false, fmt.Errorf("%w: %w", domain.ErrEnumeration, err)
	}

	now := m.clock.Now()
	ev := Event{
		Current:   len(resources),
		Threshold: settings.ThresholdCount,
		At:        now,
	}

	if ev.Current <= ev.Threshold {
		ev.Kind = ThresholdCleared
		m.events.Publish(ev)
		return ev, true, nil
	}

	ev.Kind = ThresholdExceeded
	reason := ""
	_, err = m.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		switch {
		case rs.Snoozed(now):
			reason = "snoozed"
		case rs.CoolingDown(now, settings.Cooldown()):
			reason = "cooldown"
		default:
			reason = ""
			rs.LastAlertAt = &now
			return nil
		}
		return domain.ErrSkipUpdate
	})
	if err != nil {
		m.logger.Error("threshold check failed: cannot update runtime state", logger.Error(err))
		return ev, false, fmt.Errorf("failed to record alert time: %w", err)
	}

	if reason != "" {
		m.logger.Debug("threshold alert suppressed",
			logger.String("reason", reason),
			logger.Int("current", ev.Current),
			logger.Int("threshold", ev.Threshold))
		return ev, false, nil
	}

	m.logger.Info("threshold exceeded",
		logger.Int("current", ev.Current),
		logger.Int("threshold", ev.Threshold))
	m.events.Publish(ev)
	return ev, true, nil
}
