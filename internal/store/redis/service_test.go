package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/store"
	redisstore "github.com/MrSnakeDoc/tabguard/internal/store/redis"
	"github.com/MrSnakeDoc/tabguard/internal/store/storetest"
)

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewStore(client), mr
}

func TestRedisBackend(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		s, _ := newTestStore(t)
		return s
	})
}

func TestLoadSettingsMergesPartialBlob(t *testing.T) {
	s, mr := newTestStore(t)
	if err := mr.Set(redisstore.KeySettings, `{"threshold_count":12}`); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	got, err := s.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	want := domain.DefaultSettings()
	want.ThresholdCount = 12
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}
}

func TestLoadRuntimeCorruptBlob(t *testing.T) {
	s, mr := newTestStore(t)
	if err := mr.Set(redisstore.KeyRuntime, `not json`); err != nil {
		t.Fatalf("seed runtime: %v", err)
	}

	if _, err := s.LoadRuntime(context.Background()); err == nil {
		t.Error("LoadRuntime() should fail on corrupt blob")
	}
}

func TestSinceSkipsUndecodableMembers(t *testing.T) {
	s, mr := newTestStore(t)
	if _, err := mr.ZAdd(redisstore.KeyEvents, 1, "garbage"); err != nil {
		t.Fatalf("seed events: %v", err)
	}

	events, err := s.Since(context.Background(), domain.MetricEvent{}.Timestamp)
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Since() returned %d events, want 0", len(events))
	}
}

func TestDrainSkipsUndecodableItems(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Push(ctx, domain.Command{ID: "c1", Kind: domain.CommandRemove}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := mr.RPush(redisstore.KeyCommands, "garbage"); err != nil {
		t.Fatalf("seed commands: %v", err)
	}
	if err := s.Push(ctx, domain.Command{ID: "c2", Kind: domain.CommandRemove}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	cmds, err := s.Drain(ctx, 10)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(cmds) != 2 || cmds[0].ID != "c1" || cmds[1].ID != "c2" {
		t.Errorf("Drain() = %+v, want c1 then c2", cmds)
	}
	if rest, _ := s.Drain(ctx, 10); len(rest) != 0 {
		t.Errorf("queue still holds %d commands", len(rest))
	}
}
