package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/pkg/logger"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, zone model.Zone, playerID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
	log  logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, log logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, log: log}
}

// HandleGetRank handles GET /rank/{player_id}?zone=Z requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	id := strings.TrimPrefix(r.URL.Path, "/rank/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	zone, err := parseZone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	entry, err := h.deps.Rank(r.Context(), zone, id)
	if err != nil {
		writeStoreError(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
