package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/actions"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
)

// PreviewAction describes what an action would do. It never fails on the
// action itself: unknown kinds and unreadable tabs come back as a zero
// preview with a description.
func PreviewAction(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p actions.Params
		if err := decode(r, &p); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		a, _ := actions.ParseAction(chi.URLParam(r, "kind"), p)
		writeJSON(d, w, http.StatusOK, d.Engine.Preview(r.Context(), a))
	}
}

// ExecuteAction runs an action against the mirrored tabs.
func ExecuteAction(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p actions.Params
		if err := decode(r, &p); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		a, err := actions.ParseAction(chi.URLParam(r, "kind"), p)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		res, err := d.Engine.Execute(r.Context(), a)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(d, w, http.StatusOK, res)
	}
}
