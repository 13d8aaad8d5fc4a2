package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabguard/internal/actions"
	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/config"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/index"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/metrics"
	"github.com/MrSnakeDoc/tabguard/internal/monitor"
	"github.com/MrSnakeDoc/tabguard/internal/redis"
	"github.com/MrSnakeDoc/tabguard/internal/scheduler"
	"github.com/MrSnakeDoc/tabguard/internal/store"
	"github.com/MrSnakeDoc/tabguard/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/tabguard/internal/store/redis"
	"github.com/MrSnakeDoc/tabguard/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       store.Backend
	redisClient *goredis.Client
	index       *index.MemoryIndex
	monitor     *monitor.Monitor
	engine      *actions.Engine
	bridge      *alert.Bridge
	reloader    *scheduler.SettingsReloader
	collector   *scheduler.UndoCollector
	reporter    *scheduler.WeeklyReporter
}

// OpenBackend connects the configured store. The Redis client is nil for
// the memory backend.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, *goredis.Client, error) {
	if cfg.StoreBackend == config.StoreMemory {
		log.Warn("using in-memory store, state is lost on restart")
		return memory.NewStore(), nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), client, nil
}

// New wires every component. It fails fast when the store is unreachable.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	backend, redisClient, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	clock := domain.RealClock{}
	ids := domain.UUIDGenerator{}

	memIndex := index.NewMemoryIndex(backend, ids, clock)
	mon := monitor.New(memIndex, backend, clock, loggerClient.With(logger.String("component", "monitor")), cfg.DebounceWindow)
	engine := actions.New(memIndex, memIndex, backend, backend, clock, ids, loggerClient.With(logger.String("component", "actions")))
	board := alert.NewBoard()
	bridge := alert.NewBridge(board, engine, loggerClient.With(logger.String("component", "alert")))
	aggregator := metrics.New(backend, clock, loggerClient)

	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewSettingsReloader(
		cfg.SettingsFile,
		backend,
		loggerClient,
		cfg.SettingsReloadInterval,
		reloadTrigger,
		reevaluate{mon},
		engine,
	)

	collector := scheduler.NewUndoCollector(
		engine,
		backend,
		clock,
		loggerClient,
		cfg.UndoGCInterval,
		cfg.EventRetention,
	)

	reporter := scheduler.NewWeeklyReporter(
		aggregator,
		backend,
		engine,
		loggerClient,
		cfg.ReportInterval,
	)

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRs,
		AllowedOrigins:   cfg.AllowedOrigins,
		TrustProxy:       cfg.TrustProxy,
		ActionRateBurst:  cfg.ActionRateBurst,
		ActionRatePerMin: cfg.ActionRatePerMin,
		CommandDrainMax:  cfg.CommandDrainMax,
		Store:            backend,
		Index:            memIndex,
		Monitor:          mon,
		Engine:           engine,
		Board:            board,
		Bridge:           bridge,
		Metrics:          aggregator,
		ReloadTrigger:    reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		store:       backend,
		redisClient: redisClient,
		index:       memIndex,
		monitor:     mon,
		engine:      engine,
		bridge:      bridge,
		reloader:    reloader,
		collector:   collector,
		reporter:    reporter,
	}, nil
}

// Run starts everything and blocks until ctx is cancelled or the HTTP server
// fails, then shuts down in reverse order.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting tabguard v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("tabguard %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	// Stopped in reverse order, before the store connection is closed.
	stops, err := a.start(ctx)
	defer func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
		a.Close()
	}()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ tabguard stopped cleanly")
	return nil
}

// start brings up everything but the HTTP server. The returned stops are
// valid even when err is set.
func (a *App) start(ctx context.Context) (stops []func(), err error) {
	// Seeds the store from the settings file before anyone reads it.
	if err := a.reloader.Start(ctx); err != nil {
		return stops, fmt.Errorf("failed to start settings reloader: %w", err)
	}
	stops = append(stops, a.reloader.Stop)
	a.logger.Info("settings reloader started",
		logger.String("file", a.cfg.SettingsFile),
		logger.Duration("interval", a.cfg.SettingsReloadInterval))

	if err := a.monitor.Start(ctx); err != nil {
		return stops, fmt.Errorf("failed to start monitor: %w", err)
	}
	stops = append(stops, a.monitor.Stop)

	// Tab changes and snooze expiry both trigger a debounced evaluation.
	// Attached before the engine starts, which may end a stale snooze.
	stops = append(stops,
		a.index.Subscribe(func(index.Change) { a.monitor.Notify() }),
		a.engine.OnSnoozeEnd(func(time.Time) { a.monitor.Notify() }),
		a.bridge.Attach(ctx, a.monitor),
	)

	if err := a.engine.Start(ctx); err != nil {
		return stops, fmt.Errorf("failed to start action engine: %w", err)
	}
	stops = append(stops, a.engine.Stop)

	if err := a.collector.Start(ctx); err != nil {
		return stops, fmt.Errorf("failed to start undo collector: %w", err)
	}
	stops = append(stops, a.collector.Stop)
	a.logger.Info("undo collector started",
		logger.Duration("interval", a.cfg.UndoGCInterval),
		logger.Duration("event_retention", a.cfg.EventRetention))

	if err := a.reporter.Start(ctx); err != nil {
		return stops, fmt.Errorf("failed to start weekly reporter: %w", err)
	}
	stops = append(stops, a.reporter.Stop)
	return stops, nil
}

// Close releases the store connection. Run calls it on the way out.
func (a *App) Close() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
	a.redisClient = nil
}

// reevaluate refreshes the monitor's settings and re-checks the threshold,
// since a new threshold can flip the state without any tab change.
type reevaluate struct{ m *monitor.Monitor }

func (r reevaluate) RefreshSettings(ctx context.Context) error {
	if err := r.m.RefreshSettings(ctx); err != nil {
		return err
	}
	r.m.Notify()
	return nil
}
