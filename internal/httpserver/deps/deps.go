package deps

import (
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/actions"
	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/index"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/metrics"
	"github.com/MrSnakeDoc/tabguard/internal/monitor"
	"github.com/MrSnakeDoc/tabguard/internal/store"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time    // for testing, defaults to time.Now
	AllowedHosts     []string            // Host headers allowed to access the server
	AllowedCIDRS     []string            // IPs allowed to access the API
	AllowedOrigins   []string            // CORS origins (the extension)
	TrustProxy       bool                // resolve client IPs from proxy headers
	ActionRateBurst  int                 // per-client burst on action endpoints
	ActionRatePerMin int                 // per-client refill on action endpoints
	CommandDrainMax  int                 // max commands returned by one drain
	Store            store.Backend       // settings, runtime state, events, commands
	Index            *index.MemoryIndex  // mirror of the browser tabs
	Monitor          *monitor.Monitor    // threshold monitor
	Engine           *actions.Engine     // action engine
	Board            *alert.Board        // alert currently on display
	Bridge           *alert.Bridge       // alert button clicks
	Metrics          *metrics.Aggregator // 7-day summary
	ReloadTrigger    chan struct{}       // Channel to trigger a forced settings reload
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
