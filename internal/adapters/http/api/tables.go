package api

import (
	"context"
	"net/http"

	"github.com/okian/courtprior/internal/domain/model"
)

// TablesDependencies exposes the latest run's tables.
type TablesDependencies interface {
	Rows(ctx context.Context) []model.PlayerZonePosterior
	Priors(ctx context.Context) []model.PositionZonePrior
}

// TablesHandler serves the prior and posterior tables.
type TablesHandler struct {
	deps TablesDependencies
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(deps TablesDependencies) *TablesHandler {
	return &TablesHandler{deps: deps}
}

// HandlePriors handles GET /priors.
func (h *TablesHandler) HandlePriors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	priors := h.deps.Priors(r.Context())
	if priors == nil {
		priors = []model.PositionZonePrior{}
	}
	writeJSON(w, http.StatusOK, priors)
}

// HandlePosteriors handles GET /posteriors with optional zone and position
// filters.
func (h *TablesHandler) HandlePosteriors(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_posteriors"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	var zone model.Zone
	if raw := q.Get("zone"); raw != "" {
		z, ok := model.ParseZone(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		zone = z
	}
	var pos model.Position
	if raw := q.Get("position"); raw != "" {
		p, ok := model.ParsePosition(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		pos = p
	}

	rows := h.deps.Rows(r.Context())
	out := make([]model.PlayerZonePosterior, 0, len(rows))
	for _, row := range rows {
		if zone != "" && row.Zone != zone {
			continue
		}
		if pos != "" && row.Position != pos {
			continue
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}
