package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

var errNoReport = errors.New("no weekly report yet")

func MetricsSummary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Metrics.Summarize(r.Context())
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(d, w, http.StatusOK, s)
	}
}

// LatestReport serves the last weekly report as stored, 404 when none was
// produced yet.
func LatestReport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Store.LatestReport(r.Context())
		if err != nil {
			fail(d, w, r, err)
			return
		}
		if data == nil {
			writeError(d, w, http.StatusNotFound, errNoReport)
			return
		}
		writeJSON(d, w, http.StatusOK, json.RawMessage(data))
		d.Logger.Debug("report served", logger.Int("bytes", len(data)))
	}
}
