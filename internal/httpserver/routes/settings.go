package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/handlers"
)

func init() { Register(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(local(d)...)
		r.Get("/api/settings", handlers.GetSettings(d))
		r.Patch("/api/settings", handlers.PatchSettings(d))
		r.Post("/api/settings/reload", handlers.ReloadSettings(d))
	})
}
