package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
)

// AlertState returns the alert on display and the badge text.
func AlertState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(d, w, http.StatusOK, d.Board.State())
	}
}

// ClickAlertButton runs the action behind an alert button.
func ClickAlertButton(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "index")
		button, err := strconv.Atoi(raw)
		if err != nil {
			fail(d, w, r, fmt.Errorf("%w: %q", alert.ErrUnknownButton, raw))
			return
		}
		res, err := d.Bridge.Click(r.Context(), chi.URLParam(r, "id"), button)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(d, w, http.StatusOK, res)
	}
}
