package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// Store is the in-process backend used when Redis is disabled, and by tests.
// Every method is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	settings *domain.Settings
	runtime  domain.RuntimeState
	events   []domain.MetricEvent
	commands []domain.Command
	report   []byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) LoadSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return domain.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

func (s *Store) LoadRuntime(ctx context.Context) (domain.RuntimeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.runtime.Clone(), nil
}

// UpdateRuntime holds the write lock for the whole read-modify-write, which
// serializes writers outright.
func (s *Store) UpdateRuntime(ctx context.Context, fn func(rs *domain.RuntimeState) error) (domain.RuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.runtime.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, domain.ErrSkipUpdate) {
			return s.runtime.Clone(), nil
		}
		return domain.RuntimeState{}, err
	}
	next.Version = s.runtime.Version + 1
	s.runtime = next
	return next.Clone(), nil
}

func (s *Store) Append(ctx context.Context, ev domain.MetricEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the log ordered by timestamp; equal timestamps keep insertion order.
	i := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Timestamp.After(ev.Timestamp)
	})
	s.events = append(s.events, domain.MetricEvent{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = ev
	return nil
}

func (s *Store) Since(ctx context.Context, since time.Time) ([]domain.MetricEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MetricEvent, 0, len(s.events))
	for _, ev := range s.events {
		if !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *Store) TrimBefore(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, ev := range s.events {
		if ev.Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return removed, nil
}

func (s *Store) Push(ctx context.Context, cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cmd)
	return nil
}

func (s *Store) Drain(ctx context.Context, max int) ([]domain.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(max, len(s.commands))
	out := make([]domain.Command, n)
	copy(out, s.commands[:n])
	s.commands = s.commands[n:]
	return out, nil
}

func (s *Store) SaveReport(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = append([]byte(nil), data...)
	return nil
}

func (s *Store) LatestReport(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.report, nil
}
