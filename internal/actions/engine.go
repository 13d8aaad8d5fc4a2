package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/notify"
)

// Origins recorded as the reason of a metric event.
const (
	OriginAPI   = "api"
	OriginAlert = "alert"
)

const unknownDescription = "Unknown action"

// Preview is the read-only estimate of an action.
type Preview struct {
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// Result describes an executed action. UndoID is empty when the action
// produced no undo entry.
type Result struct {
	Summary       string `json:"summary"`
	AffectedCount int    `json:"affected_count"`
	UndoID        string `json:"undo_id,omitempty"`
}

// Engine previews and executes actions against the live resource set.
type Engine struct {
	source domain.ResourceSource
	sink   domain.MutationSink
	state  domain.StateStore
	events domain.EventLog
	clock  domain.Clock
	ids    domain.IDGenerator
	logger logger.Logger

	snoozeEnded notify.Hub[time.Time]

	mu          sync.Mutex
	settings    domain.Settings
	ctx         context.Context
	running     bool
	snoozeTimer *time.Timer
	snoozeGen   uint64
}

func New(
	source domain.ResourceSource,
	sink domain.MutationSink,
	state domain.StateStore,
	events domain.EventLog,
	clock domain.Clock,
	ids domain.IDGenerator,
	log logger.Logger,
) *Engine {
	return &Engine{
		source:   source,
		sink:     sink,
		state:    state,
		events:   events,
		clock:    clock,
		ids:      ids,
		logger:   log,
		settings: domain.DefaultSettings(),
		ctx:      context.Background(),
	}
}

// Start loads settings and re-arms the snooze-end task left by a previous
// run. Snooze-end tasks run under ctx.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.RefreshSettings(ctx); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	e.mu.Lock()
	e.ctx = ctx
	e.running = true
	e.mu.Unlock()

	rs, err := e.state.LoadRuntime(ctx)
	if err != nil {
		return fmt.Errorf("failed to load runtime state: %w", err)
	}
	if rs.SnoozeUntil != nil {
		if rs.Snoozed(e.clock.Now()) {
			e.scheduleSnoozeEnd(*rs.SnoozeUntil)
		} else {
			e.clearSnooze(ctx, *rs.SnoozeUntil)
		}
	}
	return nil
}

// Stop cancels the pending snooze-end task.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running = false
	e.snoozeGen++
	if e.snoozeTimer != nil {
		e.snoozeTimer.Stop()
		e.snoozeTimer = nil
	}
}

// Settings returns the cached settings.
func (e *Engine) Settings() domain.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// RefreshSettings reloads the cached settings from the store.
func (e *Engine) RefreshSettings(ctx context.Context) error {
	s, err := e.state.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
	return nil
}

// OnSnoozeEnd registers fn to run when a snooze expires. fn receives the
// snooze end time.
func (e *Engine) OnSnoozeEnd(fn func(time.Time)) (unsubscribe func()) {
	return e.snoozeEnded.Subscribe(fn)
}

// Preview estimates a without touching resources or state. It never fails:
// a nil action or a listing error yields a zero count.
func (e *Engine) Preview(ctx context.Context, a Action) Preview {
	if a == nil {
		return Preview{Description: unknownDescription}
	}
	settings := e.Settings()

	if s, ok := a.(Snooze); ok {
		d := settings.SnoozeFor(s.Minutes)
		return Preview{Description: fmt.Sprintf("Snooze alerts for %d minutes", int(d/time.Minute))}
	}

	resources, err := e.source.List(ctx, domain.ResourceFilter{})
	if err != nil {
		e.logger.Warn("preview failed: cannot list resources",
			logger.String("action", string(a.Kind())),
			logger.Error(err))
		return Preview{Description: "Tabs are unavailable"}
	}

	switch a := a.(type) {
	case CloseOldest:
		targets := oldest(resources, e.closeCount(a, settings))
		return Preview{Count: len(targets), Description: fmt.Sprintf("Close %s oldest", tabs(len(targets)))}
	case CloseDuplicates:
		targets := duplicates(resources)
		return Preview{Count: len(targets), Description: fmt.Sprintf("Close %s with duplicate URLs", tabs(len(targets)))}
	case GroupDomain:
		host, members := resolveGroup(resources, a)
		if len(members) <= 1 {
			return Preview{Count: len(members), Description: "Nothing to group"}
		}
		return Preview{Count: len(members), Description: fmt.Sprintf("Group %s from %s", tabs(len(members)), host)}
	case ArchiveStale:
		maxIdle := e.staleAfter(a, settings)
		targets := stale(resources, e.clock.Now(), maxIdle)
		return Preview{Count: len(targets), Description: fmt.Sprintf("Archive %s idle for %dh", tabs(len(targets)), int(maxIdle.Hours()))}
	}
	return Preview{Description: unknownDescription}
}

// Execute runs a on behalf of the API.
func (e *Engine) Execute(ctx context.Context, a Action) (Result, error) {
	return e.ExecuteFrom(ctx, a, OriginAPI)
}

// ExecuteFrom runs a and records a metric event tagged with origin. Failures
// are returned as *domain.ActionError. The metric event is best-effort.
func (e *Engine) ExecuteFrom(ctx context.Context, a Action, origin string) (Result, error) {
	if a == nil {
		return Result{}, &domain.ActionError{Action: "<nil>", Err: domain.ErrUnknownAction}
	}

	var (
		res     Result
		payload domain.EventPayload
		err     error
	)
	switch a := a.(type) {
	case CloseOldest:
		res, payload, err = e.closeOldest(ctx, a)
	case CloseDuplicates:
		res, payload, err = e.closeDuplicates(ctx)
	case GroupDomain:
		res, payload, err = e.groupDomain(ctx, a)
	case Snooze:
		res, payload, err = e.snooze(ctx, a)
	case ArchiveStale:
		res, payload, err = e.archiveStale(ctx, a)
	default:
		err = domain.ErrUnknownAction
	}

	if err != nil {
		e.logger.Warn("action failed",
			logger.String("action", string(a.Kind())),
			logger.String("params", a.params()),
			logger.String("origin", origin),
			logger.Error(err))
		return res, &domain.ActionError{Action: string(a.Kind()), Params: a.params(), Err: err}
	}

	payload.Action = string(a.Kind())
	payload.Reason = origin
	e.Record(ctx, domain.EventActionExecuted, payload)

	e.logger.Info("action executed",
		logger.String("action", string(a.Kind())),
		logger.String("origin", origin),
		logger.Int("affected", res.AffectedCount),
		logger.String("undo_id", res.UndoID))
	return res, nil
}

// Record appends a metric event. Failures are logged and dropped.
func (e *Engine) Record(ctx context.Context, kind domain.EventKind, payload domain.EventPayload) {
	ev := domain.MetricEvent{
		ID:        e.ids.New(),
		Timestamp: e.clock.Now(),
		Kind:      kind,
		Payload:   payload,
	}
	if err := e.events.Append(ctx, ev); err != nil {
		e.logger.Warn("metric event dropped",
			logger.String("kind", string(kind)),
			logger.Error(fmt.Errorf("%w: %w", domain.ErrMetricsLog, err)))
	}
}

func (e *Engine) closeOldest(ctx context.Context, a CloseOldest) (Result, domain.EventPayload, error) {
	resources, err := e.list(ctx)
	if err != nil {
		return Result{}, domain.EventPayload{}, err
	}
	targets := oldest(resources, e.closeCount(a, e.Settings()))
	return e.closeTargets(ctx, domain.UndoClose, targets, "Closed %s")
}

func (e *Engine) closeDuplicates(ctx context.Context) (Result, domain.EventPayload, error) {
	resources, err := e.list(ctx)
	if err != nil {
		return Result{}, domain.EventPayload{}, err
	}
	targets := duplicates(resources)
	res, payload, err := e.closeTargets(ctx, domain.UndoClose, targets, "Closed %s with duplicate URLs")
	if err == nil {
		payload.Duplicates = payload.Closed
	}
	return res, payload, err
}

func (e *Engine) archiveStale(ctx context.Context, a ArchiveStale) (Result, domain.EventPayload, error) {
	resources, err := e.list(ctx)
	if err != nil {
		return Result{}, domain.EventPayload{}, err
	}
	targets := stale(resources, e.clock.Now(), e.staleAfter(a, e.Settings()))
	return e.closeTargets(ctx, domain.UndoArchive, targets, "Archived %s")
}

// closeTargets writes the undo entry, then removes the targets. A failed
// removal leaves the undo entry in place.
func (e *Engine) closeTargets(ctx context.Context, kind domain.UndoKind, targets []domain.Resource, summary string) (Result, domain.EventPayload, error) {
	if len(targets) == 0 {
		return Result{Summary: "No tabs to close"}, domain.EventPayload{}, nil
	}

	undoID, err := e.pushUndo(ctx, kind, targets)
	if err != nil {
		return Result{}, domain.EventPayload{}, fmt.Errorf("failed to record undo entry: %w", err)
	}

	res := Result{UndoID: undoID}
	if err := e.sink.RemoveResources(ctx, resourceIDs(targets)); err != nil {
		return res, domain.EventPayload{}, fmt.Errorf("%w: %w", domain.ErrMutation, err)
	}

	res.Summary = fmt.Sprintf(summary, tabs(len(targets)))
	res.AffectedCount = len(targets)
	return res, domain.EventPayload{Count: len(targets), Closed: len(targets)}, nil
}

func (e *Engine) groupDomain(ctx context.Context, a GroupDomain) (Result, domain.EventPayload, error) {
	resources, err := e.list(ctx)
	if err != nil {
		return Result{}, domain.EventPayload{}, err
	}

	host, members := resolveGroup(resources, a)
	if len(members) <= 1 {
		return Result{Summary: "Nothing to group"}, domain.EventPayload{}, nil
	}

	containerID, err := e.sink.CreateContainer(ctx, members[0].ID)
	if err != nil {
		return Result{}, domain.EventPayload{}, fmt.Errorf("%w: create container: %w", domain.ErrMutation, err)
	}
	for _, r := range members[1:] {
		to := domain.Placement{ContainerID: containerID, Position: -1}
		if err := e.sink.MoveResource(ctx, r.ID, to); err != nil {
			return Result{}, domain.EventPayload{}, fmt.Errorf("%w: move %s: %w", domain.ErrMutation, r.ID, err)
		}
	}

	res := Result{
		Summary:       fmt.Sprintf("Grouped %s from %s", tabs(len(members)), host),
		AffectedCount: len(members),
	}
	return res, domain.EventPayload{Count: len(members), Domain: host}, nil
}

func (e *Engine) snooze(ctx context.Context, a Snooze) (Result, domain.EventPayload, error) {
	d := e.Settings().SnoozeFor(a.Minutes)
	until := e.clock.Now().Add(d)

	_, err := e.state.UpdateRuntime(ctx, func(rs *domain.RuntimeState) error {
		rs.SnoozeUntil = &until
		return nil
	})
	if err != nil {
		return Result{}, domain.EventPayload{}, fmt.Errorf("failed to store snooze: %w", err)
	}
	e.scheduleSnoozeEnd(until)

	minutes := int(d / time.Minute)
	return Result{Summary: fmt.Sprintf("Alerts snoozed for %d minutes", minutes)},
		domain.EventPayload{Minutes: minutes}, nil
}

func (e *Engine) list(ctx context.Context) ([]domain.Resource, error) {
	resources, err := e.source.List(ctx, domain.ResourceFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnumeration, err)
	}
	return resources, nil
}

func (e *Engine) closeCount(a CloseOldest, s domain.Settings) int {
	if a.Count > 0 {
		return a.Count
	}
	return s.QuickCloseCount
}

func (e *Engine) staleAfter(a ArchiveStale, s domain.Settings) time.Duration {
	if a.Hours > 0 {
		return time.Duration(a.Hours) * time.Hour
	}
	return s.StaleAfter()
}

func resolveGroup(resources []domain.Resource, a GroupDomain) (string, []domain.Resource) {
	host := a.Domain
	if host == "" {
		host = dominantDomain(resources)
	}
	if host == "" {
		return "", nil
	}
	return host, onDomain(resources, host)
}

func tabs(n int) string {
	if n == 1 {
		return "1 tab"
	}
	return fmt.Sprintf("%d tabs", n)
}
