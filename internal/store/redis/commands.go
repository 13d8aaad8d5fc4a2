package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// Push appends a command for the extension.
func (s *Store) Push(ctx context.Context, cmd domain.Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	if err := s.client.RPush(ctx, KeyCommands, data).Err(); err != nil {
		return fmt.Errorf("failed to push command: %w", err)
	}
	return nil
}

// Drain pops up to max commands in FIFO order. Undecodable items are
// dropped so they cannot block the queue.
func (s *Store) Drain(ctx context.Context, max int) ([]domain.Command, error) {
	raw, err := s.client.LPopCount(ctx, KeyCommands, max).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Command{}, nil
		}
		return nil, fmt.Errorf("failed to drain commands: %w", err)
	}

	cmds := make([]domain.Command, 0, len(raw))
	for _, item := range raw {
		var cmd domain.Command
		if err := json.Unmarshal([]byte(item), &cmd); err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
