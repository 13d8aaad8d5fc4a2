package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// GetSettings returns the stored settings.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Store.LoadSettings(r.Context())
		if err != nil {
			fail(d, w, r, fmt.Errorf("load settings: %w", err))
			return
		}
		writeJSON(d, w, http.StatusOK, s)
	}
}

// PatchSettings merges the fields present in the body over the stored
// settings, persists the result and refreshes the component caches.
func PatchSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, err := d.Store.LoadSettings(ctx)
		if err != nil {
			fail(d, w, r, fmt.Errorf("load settings: %w", err))
			return
		}
		if err := decode(r, &s); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		if err := s.Validate(); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		if err := d.Store.SaveSettings(ctx, s); err != nil {
			fail(d, w, r, fmt.Errorf("save settings: %w", err))
			return
		}

		if err := errors.Join(d.Monitor.RefreshSettings(ctx), d.Engine.RefreshSettings(ctx)); err != nil {
			fail(d, w, r, fmt.Errorf("refresh settings: %w", err))
			return
		}
		d.Monitor.Notify()

		d.Logger.Info("settings updated",
			logger.Int("threshold", s.ThresholdCount),
			logger.Int("cooldown_minutes", s.CooldownMinutes),
			logger.String("locale", s.Locale))
		writeJSON(d, w, http.StatusOK, s)
	}
}

// ReloadSettings forces the settings file to be applied again.
func ReloadSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual settings reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(d, w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "reload triggered"})
		default:
			d.Logger.Warn("settings reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(d, w, http.StatusTooManyRequests, reloadResponse{Message: "reload already in progress, please wait"})
		}
	}
}
