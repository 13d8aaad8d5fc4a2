package alert

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrSnakeDoc/tabguard/internal/actions"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/monitor"
)

// TabLimitID is the ID of the threshold alert.
const TabLimitID = "tab-limit"

// The badge has room for two digits.
const maxBadge = 99

var (
	// ErrAlertNotFound means the clicked alert is no longer on display.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrUnknownButton means the button index is not 0 or 1.
	ErrUnknownButton = errors.New("unknown alert button")
)

// Executor runs the actions behind the alert buttons and records metric
// events.
type Executor interface {
	ExecuteFrom(ctx context.Context, a actions.Action, origin string) (actions.Result, error)
	Record(ctx context.Context, kind domain.EventKind, payload domain.EventPayload)
	Settings() domain.Settings
}

// EventSource publishes threshold events.
type EventSource interface {
	Subscribe(fn func(monitor.Event)) (unsubscribe func())
}

// Bridge renders monitor events on the Board and routes button clicks to
// the action engine.
type Bridge struct {
	board  *Board
	engine Executor
	logger logger.Logger
}

func NewBridge(board *Board, engine Executor, log logger.Logger) *Bridge {
	return &Bridge{board: board, engine: engine, logger: log}
}

// Attach subscribes the bridge to src. Metric events are recorded under ctx.
func (b *Bridge) Attach(ctx context.Context, src EventSource) (detach func()) {
	return src.Subscribe(func(ev monitor.Event) { b.Handle(ctx, ev) })
}

// Handle applies one monitor event.
func (b *Bridge) Handle(ctx context.Context, ev monitor.Event) {
	switch ev.Kind {
	case monitor.ThresholdExceeded:
		s := b.engine.Settings()
		a := MessagesFor(s.Locale).render(ev.Current, ev.Threshold, s.QuickCloseCount, s.DefaultSnoozeMinutes)
		a.ShownAt = ev.At
		b.board.Show(TabLimitID, a)
		b.board.SetBadge(strconv.Itoa(min(maxBadge, ev.Current)))
		b.engine.Record(ctx, domain.EventAlertShown, domain.EventPayload{
			Current:   ev.Current,
			Threshold: ev.Threshold,
		})
		b.logger.Info("alert shown",
			logger.Int("current", ev.Current),
			logger.Int("threshold", ev.Threshold),
			logger.String("locale", s.Locale))

	case monitor.ThresholdCleared:
		b.board.Clear(TabLimitID)
		b.board.SetBadge("")
	}
}

// Click runs the action behind button on the displayed alert, then clears
// it. Button 0 closes the oldest tabs, button 1 snoozes.
func (b *Bridge) Click(ctx context.Context, alertID string, button int) (actions.Result, error) {
	current, ok := b.board.Current()
	if !ok || current.ID != alertID {
		return actions.Result{}, fmt.Errorf("%w: %s", ErrAlertNotFound, alertID)
	}

	var a actions.Action
	switch button {
	case 0:
		a = actions.CloseOldest{}
	case 1:
		a = actions.Snooze{}
	default:
		return actions.Result{}, fmt.Errorf("%w: %d", ErrUnknownButton, button)
	}

	res, err := b.engine.ExecuteFrom(ctx, a, actions.OriginAlert)
	if err != nil {
		return res, err
	}
	b.board.Clear(alertID)
	return res, nil
}
