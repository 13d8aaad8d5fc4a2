package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/handlers"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(local(d)...)
		r.Get("/api/resources", handlers.ListResources(d))
		r.Put("/api/resources", handlers.ReplaceResources(d))
		r.Post("/api/resources/events", handlers.ApplyResourceEvents(d))
		r.Get("/api/commands", handlers.DrainCommands(d))
	})
}
