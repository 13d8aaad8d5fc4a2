package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/handlers"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	r.With(local(d)...).Get("/api/metrics/summary", handlers.MetricsSummary(d))
	r.With(local(d)...).Get("/api/metrics/report", handlers.LatestReport(d))
}
