package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/pkg/logger"
)

const defaultLeaderboardLimit = 10

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, zone model.Zone, n int, minAttempts int64) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
	log      logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
		log:      log,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?zone=Z&limit=N&min_attempts=M.
// limit defaults to 10 and min_attempts to 0.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	zone, err := parseZone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	n := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	var minAttempts int64
	if minStr := r.URL.Query().Get("min_attempts"); minStr != "" {
		minAttempts, err = strconv.ParseInt(minStr, 10, 64)
		if err != nil || minAttempts < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}

	entries, err := h.deps.TopN(r.Context(), zone, n, minAttempts)
	if err != nil {
		writeStoreError(r.Context(), w, h.log, op, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
