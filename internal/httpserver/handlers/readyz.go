package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

type readyzResponse struct {
	Ready     bool   `json:"ready"`
	Store     string `json:"store"`
	Resources int    `json:"resources"`
	LastSync  string `json:"last_sync"`
	Snoozed   bool   `json:"snooze_pending"`
}

// Readyz reports whether the store answers and whether the extension has
// synced its tabs yet.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		resp := readyzResponse{
			Ready:     true,
			Store:     "ok",
			Resources: d.Index.Count(),
			LastSync:  "never",
			Snoozed:   d.Engine.SnoozePending(),
		}
		if last := d.Index.GetLastSync(); !last.IsZero() {
			resp.LastSync = last.Format(time.RFC3339)
		}

		status := http.StatusOK
		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("store not ready", logger.Error(err))
			resp.Ready = false
			resp.Store = err.Error()
			status = http.StatusServiceUnavailable
		}
		writeJSON(d, w, status, resp)
	}
}
