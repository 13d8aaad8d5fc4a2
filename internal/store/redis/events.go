package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// Append adds an event to the log, scored by its timestamp.
func (s *Store) Append(ctx context.Context, ev domain.MetricEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	z := redis.Z{Score: float64(ev.Timestamp.UnixMilli()), Member: data}
	if err := s.client.ZAdd(ctx, KeyEvents, z).Err(); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Since returns every event with a timestamp at or after since, oldest first.
// Entries that fail to decode are skipped.
func (s *Store) Since(ctx context.Context, since time.Time) ([]domain.MetricEvent, error) {
	raw, err := s.client.ZRangeByScore(ctx, KeyEvents, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := make([]domain.MetricEvent, 0, len(raw))
	for _, member := range raw {
		var ev domain.MetricEvent
		if err := json.Unmarshal([]byte(member), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// TrimBefore deletes events strictly older than before and returns how many
// were removed.
func (s *Store) TrimBefore(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.client.ZRemRangeByScore(ctx, KeyEvents, "-inf", "("+strconv.FormatInt(before.UnixMilli(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim events: %w", err)
	}
	return n, nil
}
