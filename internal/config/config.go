package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7420"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreBackend string // "redis" | "memory"

	SettingsFile           string        // optional YAML or TOML file seeding user settings
	SettingsReloadInterval time.Duration // how often the settings file is re-read
	DebounceWindow         time.Duration // delay after the last tab change before evaluating
	UndoGCInterval         time.Duration // how often expired undo entries are pruned
	EventRetention         time.Duration // events older than this are trimmed from the log
	ReportInterval         time.Duration // weekly report cadence
	CommandDrainMax        int           // max commands returned per drain

	AllowedOrigins []string // CORS origins allowed to call the API (the extension origin)
	AllowedHosts   []string // Host headers accepted, empty = any
	AllowedCIDRs   []string // client IPs/CIDRs accepted, empty = any
	TrustProxy     bool     // resolve client IPs from X-Forwarded-For and friends

	ActionRateBurst  int // actions a client may fire back to back
	ActionRatePerMin int // steady action rate per client

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, doubles each attempt
	RedisMaxWait        time.Duration // cap on the wait between retries
	RedisPingTimeout    time.Duration
	RedisWarnThreshold  int // warn for this many attempts, then escalate to error
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:      getenv("TABGUARD_LISTEN_ADDR", "127.0.0.1:7420"),
		ShutdownTimeout: mustDuration("TABGUARD_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("TABGUARD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TABGUARD_PRETTY_LOG", true),

		StoreBackend: strings.ToLower(getenv("TABGUARD_STORE", StoreRedis)),

		SettingsFile:           getenv("TABGUARD_SETTINGS_FILE", ""),
		SettingsReloadInterval: mustDuration("TABGUARD_SETTINGS_RELOAD_INTERVAL", 5*time.Minute),
		DebounceWindow:         mustDuration("TABGUARD_DEBOUNCE", 500*time.Millisecond),
		UndoGCInterval:         mustDuration("TABGUARD_UNDO_GC_INTERVAL", 30*time.Second),
		EventRetention:         mustDuration("TABGUARD_EVENT_RETENTION", 30*24*time.Hour),
		ReportInterval:         mustDuration("TABGUARD_REPORT_INTERVAL", 7*24*time.Hour),
		CommandDrainMax:        getenvInt("TABGUARD_COMMAND_DRAIN_MAX", 100),

		AllowedOrigins: splitAndTrim(getenv("TABGUARD_ALLOWED_ORIGINS", "")),
		AllowedHosts:   splitAndTrim(getenv("TABGUARD_ALLOWED_HOSTS", "localhost,127.0.0.1,::1")),
		AllowedCIDRs:   splitAndTrim(getenv("TABGUARD_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:     mustBool("TABGUARD_TRUST_PROXY", false),

		ActionRateBurst:  getenvInt("TABGUARD_ACTION_RATE_BURST", 10),
		ActionRatePerMin: getenvInt("TABGUARD_ACTION_RATE_PER_MIN", 60),

		RedisAddr:           getenv("TABGUARD_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("TABGUARD_REDIS_USERNAME", ""),
		RedisPassword:       getenv("TABGUARD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("TABGUARD_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	if cfg.LogLevel == "debug" {
		redacted := *cfg
		if redacted.RedisPassword != "" {
			redacted.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", redacted)
	}

	return cfg
}

// Validate rejects combinations the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("TABGUARD_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, c.StoreBackend)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("TABGUARD_DEBOUNCE must be > 0, got %v", c.DebounceWindow)
	}
	if c.UndoGCInterval <= 0 {
		return fmt.Errorf("TABGUARD_UNDO_GC_INTERVAL must be > 0, got %v", c.UndoGCInterval)
	}
	if c.ActionRateBurst <= 0 || c.ActionRatePerMin <= 0 {
		return fmt.Errorf("TABGUARD_ACTION_RATE_BURST and TABGUARD_ACTION_RATE_PER_MIN must be > 0")
	}
	if c.CommandDrainMax <= 0 {
		return fmt.Errorf("TABGUARD_COMMAND_DRAIN_MAX must be > 0, got %d", c.CommandDrainMax)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
