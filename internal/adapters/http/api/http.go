// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/courtprior/internal/adapters/repository"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
	"github.com/okian/courtprior/pkg/logger"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TopN(ctx context.Context, zone model.Zone, n int, minAttempts int64) ([]Entry, error)
	Rank(ctx context.Context, zone model.Zone, playerID string) (Entry, error)
	Player(ctx context.Context, playerID string) ([]model.PlayerZonePosterior, error)
	Search(ctx context.Context, query string) []summary.Profile
	Rows(ctx context.Context) []model.PlayerZonePosterior
	Priors(ctx context.Context) []model.PositionZonePrior
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	tablesHandler      *TablesHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler

	maxLimit int
	limiter  *rate.Limiter
	log      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.tablesHandler = NewTablesHandler(deps)
	s.playersHandler = NewPlayersHandler(deps, s.log)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit, s.log)
	s.rankHandler = NewRankHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	s.log.Debug(ctx, "registering routes", logger.Int("max_limit", s.maxLimit), logger.Bool("rate_limited", s.limiter != nil))

	// /healthz serves metrics and is never rate limited.
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.limit(s.statsHandler.HandleStats), "stats"))
	mux.HandleFunc("/priors", MetricsMiddleware(s.limit(s.tablesHandler.HandlePriors), "priors"))
	mux.HandleFunc("/posteriors", MetricsMiddleware(s.limit(s.tablesHandler.HandlePosteriors), "posteriors"))
	mux.HandleFunc("/players", MetricsMiddleware(s.limit(s.playersHandler.HandleSearch), "players"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.limit(s.playersHandler.HandleGetPlayer), "player"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.limit(s.leaderboardHandler.HandleGetLeaderboard), "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.limit(s.rankHandler.HandleGetRank), "rank"))
}

func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return RateLimitMiddleware(next, s.limiter)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError translates repository errors into HTTP statuses.
func writeStoreError(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, repository.ErrUnknownZone):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	default:
		log.Error(ctx, "store read failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// parseZone resolves the zone query parameter. Aliases and any letter case
// are accepted.
func parseZone(r *http.Request) (model.Zone, error) {
	raw := r.URL.Query().Get("zone")
	if raw == "" {
		return "", NewKind("zone", ErrMissingZone)
	}
	zone, ok := model.ParseZone(raw)
	if !ok {
		return "", Wrap("zone", repository.ErrUnknownZone)
	}
	return zone, nil
}
