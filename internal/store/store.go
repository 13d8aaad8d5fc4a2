package store

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// Backend is everything the daemon persists. The Redis and memory packages
// both implement it.
type Backend interface {
	domain.StateStore
	domain.EventLog
	domain.CommandQueue

	Ping(ctx context.Context) error
	TrimBefore(ctx context.Context, before time.Time) (int64, error)
	SaveReport(ctx context.Context, data []byte) error
	LatestReport(ctx context.Context) ([]byte, error)
}
