package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
)

type commandsResponse struct {
	Commands []domain.Command `json:"commands"`
}

// DrainCommands hands the queued browser mutations to the extension. Drained
// commands are gone from the queue. ?max= lowers the configured limit.
func DrainCommands(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := d.CommandDrainMax
		if raw := r.URL.Query().Get("max"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(d, w, http.StatusBadRequest, fmt.Errorf("invalid max %q", raw))
				return
			}
			limit = min(n, limit)
		}

		cmds, err := d.Store.Drain(r.Context(), limit)
		if err != nil {
			fail(d, w, r, fmt.Errorf("drain commands: %w", err))
			return
		}
		if cmds == nil {
			cmds = []domain.Command{}
		}
		if len(cmds) > 0 {
			d.Logger.Debug("commands drained", logger.Int("count", len(cmds)))
		}
		writeJSON(d, w, http.StatusOK, commandsResponse{Commands: cmds})
	}
}
