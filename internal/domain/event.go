package domain

import (
	"context"
	"time"
)

// EventKind tags a MetricEvent.
type EventKind string

const (
	EventAlertShown     EventKind = "alert_shown"
	EventActionExecuted EventKind = "action_executed"
	EventSnooze         EventKind = "snooze"
)

// MetricEvent is one immutable entry of the event log.
type MetricEvent struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      EventKind    `json:"kind"`
	Payload   EventPayload `json:"payload"`
}

// EventPayload holds the fields used by the aggregator. Only the fields that
// make sense for the event kind are set.
type EventPayload struct {
	// alert_shown
	Current   int `json:"current,omitempty"`
	Threshold int `json:"threshold,omitempty"`

	// action_executed and snooze
	Action     string `json:"action,omitempty"`
	Count      int    `json:"count,omitempty"`
	Closed     int    `json:"closed,omitempty"`
	Duplicates int    `json:"duplicates,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Minutes    int    `json:"minutes,omitempty"`
}

// EventLog is the append-only store behind the metrics aggregator.
type EventLog interface {
	Append(ctx context.Context, ev MetricEvent) error
	Since(ctx context.Context, since time.Time) ([]MetricEvent, error)
}
