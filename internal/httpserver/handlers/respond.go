package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(d deps.Deps, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(d deps.Deps, w http.ResponseWriter, status int, err error) {
	writeJSON(d, w, status, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, domain.ErrInvalidParams),
		errors.Is(err, alert.ErrUnknownButton):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUndoNotFound), errors.Is(err, alert.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMutation):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrEnumeration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(d deps.Deps, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeError(d, w, status, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
