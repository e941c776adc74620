package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/skilldrift/internal/domain/model"
	"github.com/okian/skilldrift/internal/history"
)

// CurveDependencies defines the interface for learning-curve reads.
type CurveDependencies interface {
	Curve(ctx context.Context, competitorID string) (model.Curve, error)
}

// CurvesHandler handles learning-curve requests.
type CurvesHandler struct {
	deps CurveDependencies
}

// NewCurvesHandler creates a new curves handler.
func NewCurvesHandler(deps CurveDependencies) *CurvesHandler {
	return &CurvesHandler{deps: deps}
}

// curvePointResponse mirrors one checkpoint on the wire.
type curvePointResponse struct {
	Time       float64 `json:"time"`
	Mu         float64 `json:"mu"`
	Sigma      float64 `json:"sigma"`
	Rating     float64 `json:"rating"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

type curveResponse struct {
	CompetitorID string               `json:"competitor_id"`
	Points       []curvePointResponse `json:"points"`
}

// HandleGetCurve handles GET /curves/{competitor_id} requests.
func (h *CurvesHandler) HandleGetCurve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/curves/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	curve, err := h.deps.Curve(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrUnknownCompetitor):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, history.ErrEngineNotRun):
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	points := make([]curvePointResponse, 0, len(curve))
	for _, p := range curve {
		points = append(points, curvePointResponse{
			Time:       p.Time,
			Mu:         p.Mu,
			Sigma:      p.Sigma,
			Rating:     p.ConservativeRating(),
			Degenerate: p.Degenerate,
		})
	}
	writeJSON(w, http.StatusOK, curveResponse{CompetitorID: id, Points: points})
}
