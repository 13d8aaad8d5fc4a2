package metrics

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

const (
	// Window is the rolling period covered by a summary.
	Window = 7 * 24 * time.Hour

	maxTopDomains = 5
)

// Summary is derived from the event log on demand and never stored as the
// source of truth.
type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// Sampled at alert moments only, so the average leans towards busy periods.
	Alerts      int     `json:"alerts"`
	AverageOpen int     `json:"average_open"`
	MaxOpen     int     `json:"max_open"`

	Closed        int `json:"closed"`
	DuplicateRate int `json:"duplicate_rate"`

	TopDomains []DomainCount   `json:"top_domains"`
	History    []HistoryEntry `json:"history"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// HistoryEntry is one executed action or snooze, unaggregated.
type HistoryEntry struct {
	Timestamp time.Time        `json:"timestamp"`
	Kind      domain.EventKind `json:"kind"`
	Action    string           `json:"action,omitempty"`
	Count     int              `json:"count"`
	Reason    string           `json:"reason,omitempty"`
	Domain    string           `json:"domain,omitempty"`
	Minutes   int              `json:"minutes,omitempty"`
}

// Aggregator folds the event log into a Summary.
type Aggregator struct {
	events domain.EventLog
	clock  domain.Clock
	logger logger.Logger
}

func New(events domain.EventLog, clock domain.Clock, log logger.Logger) *Aggregator {
	return &Aggregator{events: events, clock: clock, logger: log}
}

// Summarize reads every event of the last Window and folds it.
func (a *Aggregator) Summarize(ctx context.Context) (Summary, error) {
	to := a.clock.Now()
	from := to.Add(-Window)

	events, err := a.events.Since(ctx, from)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read events since %s: %w", from.Format(time.RFC3339), err)
	}

	s := Fold(events)
	s.From, s.To = from, to
	a.logger.Debug("metrics summarized",
		logger.Int("events", len(events)),
		logger.Int("alerts", s.Alerts),
		logger.Int("closed", s.Closed))
	return s, nil
}

// Fold computes a Summary in one pass over events, in the given order.
func Fold(events []domain.MetricEvent) Summary {
	s := Summary{
		TopDomains: []DomainCount{},
		History:    []HistoryEntry{},
	}

	var (
		openSum    int
		duplicates int
		domainIdx  = make(map[string]int)
	)

	for _, ev := range events {
		p := ev.Payload
		switch ev.Kind {
		case domain.EventAlertShown:
			s.Alerts++
			openSum += p.Current
			s.MaxOpen = max(s.MaxOpen, p.Current)
			continue

		case domain.EventActionExecuted:
			s.Closed += p.Closed
			duplicates += p.Duplicates
			if p.Domain != "" {
				if i, ok := domainIdx[p.Domain]; ok {
					s.TopDomains[i].Count++
				} else {
					domainIdx[p.Domain] = len(s.TopDomains)
					s.TopDomains = append(s.TopDomains, DomainCount{Domain: p.Domain, Count: 1})
				}
			}

		case domain.EventSnooze:
		default:
			continue
		}

		s.History = append(s.History, HistoryEntry{
			Timestamp: ev.Timestamp,
			Kind:      ev.Kind,
			Action:    p.Action,
			Count:     p.Count,
			Reason:    p.Reason,
			Domain:    p.Domain,
			Minutes:   p.Minutes,
		})
	}

	if s.Alerts > 0 {
		s.AverageOpen = int(math.Round(float64(openSum) / float64(s.Alerts)))
	}
	if s.Closed > 0 {
		s.DuplicateRate = int(math.Round(100 * float64(duplicates) / float64(s.Closed)))
	}

	// Stable: equal counts keep first-seen order.
	slices.SortStableFunc(s.TopDomains, func(a, b DomainCount) int {
		return b.Count - a.Count
	})
	if len(s.TopDomains) > maxTopDomains {
		s.TopDomains = s.TopDomains[:maxTopDomains]
	}
	return s
}
