package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
)

type undoStackResponse struct {
	Entries []domain.UndoEntry `json:"entries"`
}

// UndoStack lists the undo entries that have not expired, oldest first.
func UndoStack(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := d.Engine.UndoStack(r.Context())
		if err != nil {
			fail(d, w, r, err)
			return
		}
		if entries == nil {
			entries = []domain.UndoEntry{}
		}
		writeJSON(d, w, http.StatusOK, undoStackResponse{Entries: entries})
	}
}

func Undo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Engine.Undo(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(d, w, http.StatusOK, res)
	}
}
