package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/handlers"
)

func init() { Register(registerActions) }

func registerActions(r chi.Router, d deps.Deps) {
	limit := actionLimit(d)

	r.Group(func(r chi.Router) {
		r.Use(local(d)...)
		r.Post("/api/actions/{kind}/preview", handlers.PreviewAction(d))
		r.With(limit).Post("/api/actions/{kind}", handlers.ExecuteAction(d))

		r.Get("/api/undo", handlers.UndoStack(d))
		r.With(limit).Post("/api/undo/{id}", handlers.Undo(d))

		r.Get("/api/alert", handlers.AlertState(d))
		r.With(limit).Post("/api/alert/{id}/buttons/{index}", handlers.ClickAlertButton(d))
	})
}
