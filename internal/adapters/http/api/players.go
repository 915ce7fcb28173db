package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
	"github.com/okian/courtprior/pkg/logger"
)

// PlayersDependencies defines the interface for player lookups.
type PlayersDependencies interface {
	Player(ctx context.Context, playerID string) ([]model.PlayerZonePosterior, error)
	Search(ctx context.Context, query string) []summary.Profile
}

// PlayersHandler serves player search and per-player rows.
type PlayersHandler struct {
	deps PlayersDependencies
	log  logger.Logger
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies, log logger.Logger) *PlayersHandler {
	return &PlayersHandler{deps: deps, log: log}
}

// HandleSearch handles GET /players?name=Q. Matching is a case-insensitive
// substring match on the player name.
func (h *PlayersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_players"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	profiles := h.deps.Search(r.Context(), name)
	if profiles == nil {
		profiles = []summary.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGetPlayer handles GET /players/{player_id}.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/players/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeStoreError(r.Context(), w, h.log, op, err)
		return
	}
	profiles := summary.Profiles(rows)
	if len(profiles) == 0 {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, profiles[0])
}
