package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/index"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

type replaceRequest struct {
	Resources []domain.Resource `json:"resources"`
}

type eventsRequest struct {
	Changes []index.Change `json:"changes"`
}

type resourcesResponse struct {
	Count      int               `json:"count"`
	Containers int               `json:"containers"`
	Resources  []domain.Resource `json:"resources,omitempty"`
}

// ReplaceResources swaps the whole mirror with the tabs sent by the extension.
func ReplaceResources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req replaceRequest
		if err := decode(r, &req); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		for i, res := range req.Resources {
			if res.ID == "" {
				writeError(d, w, http.StatusBadRequest, fmt.Errorf("resources[%d]: missing id", i))
				return
			}
		}

		d.Index.Replace(req.Resources)
		d.Logger.Debug("resources replaced", logger.Int("count", len(req.Resources)))
		writeJSON(d, w, http.StatusOK, resourcesResponse{
			Count:      d.Index.Count(),
			Containers: d.Index.ContainerCount(),
		})
	}
}

// ApplyResourceEvents applies incremental changes in order. Every change is
// validated before any is applied.
func ApplyResourceEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventsRequest
		if err := decode(r, &req); err != nil {
			writeError(d, w, http.StatusBadRequest, err)
			return
		}
		for i, c := range req.Changes {
			if err := c.Validate(); err != nil {
				writeError(d, w, http.StatusBadRequest, fmt.Errorf("changes[%d]: %w", i, err))
				return
			}
		}
		for _, c := range req.Changes {
			if err := d.Index.Apply(c); err != nil {
				writeError(d, w, http.StatusBadRequest, err)
				return
			}
		}
		writeJSON(d, w, http.StatusOK, resourcesResponse{
			Count:      d.Index.Count(),
			Containers: d.Index.ContainerCount(),
		})
	}
}

// ListResources returns the mirror, optionally filtered by ?container=.
func ListResources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := domain.ResourceFilter{ContainerID: r.URL.Query().Get("container")}
		list, err := d.Index.List(r.Context(), filter)
		if err != nil {
			fail(d, w, r, fmt.Errorf("%w: %w", domain.ErrEnumeration, err))
			return
		}
		writeJSON(d, w, http.StatusOK, resourcesResponse{
			Count:      len(list),
			Containers: d.Index.ContainerCount(),
			Resources:  list,
		})
	}
}
