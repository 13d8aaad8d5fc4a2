package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// maxCASAttempts bounds how often UpdateRuntime retries after losing a race.
const maxCASAttempts = 16

// Store keeps settings, runtime state, events and queued commands in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LoadSettings returns the stored settings laid over the defaults, so a
// partially written blob still yields a complete record.
func (s *Store) LoadSettings(ctx context.Context) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := s.client.Get(ctx, KeySettings).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to get settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return domain.DefaultSettings(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, nil
}

// SaveSettings validates and stores settings.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.client.Set(ctx, KeySettings, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// LoadRuntime returns the runtime state, empty when never written.
func (s *Store) LoadRuntime(ctx context.Context) (domain.RuntimeState, error) {
	return readRuntime(ctx, s.client)
}

// UpdateRuntime applies fn under WATCH so a concurrent writer forces a
// re-read instead of being overwritten.
func (s *Store) UpdateRuntime(ctx context.Context, fn func(rs *domain.RuntimeState) error) (domain.RuntimeState, error) {
	var out domain.RuntimeState

	txf := func(tx *redis.Tx) error {
		current, err := readRuntime(ctx, tx)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			if errors.Is(err, domain.ErrSkipUpdate) {
				out = current
				return nil
			}
			return err
		}
		next.Version = current.Version + 1

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal runtime state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, KeyRuntime, data, 0)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, KeyRuntime)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.RuntimeState{}, err
	}
	return domain.RuntimeState{}, fmt.Errorf("runtime state update lost %d races in a row", maxCASAttempts)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readRuntime(ctx context.Context, g getter) (domain.RuntimeState, error) {
	var rs domain.RuntimeState

	data, err := g.Get(ctx, KeyRuntime).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return rs, nil
		}
		return rs, fmt.Errorf("failed to get runtime state: %w", err)
	}
	if err := json.Unmarshal(data, &rs); err != nil {
		return domain.RuntimeState{}, fmt.Errorf("failed to unmarshal runtime state: %w", err)
	}
	return rs, nil
}
