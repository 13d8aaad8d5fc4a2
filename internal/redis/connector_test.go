package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), testOptions(mr.Addr()), logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("ping after connect failed: %v", err)
	}
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := New(context.Background(), testOptions(addr), logger.Nop())
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("connect budget not honored, took %v", elapsed)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := testOptions("localhost:0")
	opts.PingTimeout = 0

	if _, err := New(context.Background(), opts, logger.Nop()); err == nil {
		t.Error("expected validation error for zero PingTimeout")
	}
}
