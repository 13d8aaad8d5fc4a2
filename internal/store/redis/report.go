package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SaveReport stores the latest rendered report.
func (s *Store) SaveReport(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, KeyReportLatest, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LatestReport returns nil when no report was produced yet.
func (s *Store) LatestReport(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, KeyReportLatest).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return data, nil
}
