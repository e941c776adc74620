// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/skilldrift/internal/adapters/repository"
	"github.com/okian/skilldrift/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the engine and store implementations.
type Dependencies interface {
	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]repository.Entry, error)
	Rank(ctx context.Context, competitorID string) (repository.Entry, error)

	// Curve returns one competitor's full learning curve.
	Curve(ctx context.Context, competitorID string) (model.Curve, error)

	// Status reports the state of the most recent convergence run.
	Status(ctx context.Context) Status
}

// Status is the read shape returned by GET /status.
type Status struct {
	State       string  `json:"state"`
	Iterations  int     `json:"iterations"`
	Delta       float64 `json:"delta"`
	Matches     int     `json:"matches"`
	Competitors int     `json:"competitors"`
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statusHandler      *StatusHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	curvesHandler      *CurvesHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds the
// leaderboard page size.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statusHandler:      NewStatusHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		curvesHandler:      NewCurvesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleGetStatus, "status"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/curves/", MetricsMiddleware(s.curvesHandler.HandleGetCurve, "curves"))
}

// entryResponse mirrors a leaderboard row on the wire.
type entryResponse struct {
	Rank         int     `json:"rank"`
	CompetitorID string  `json:"competitor_id"`
	Rating       float64 `json:"rating"`
	Mu           float64 `json:"mu"`
	Sigma        float64 `json:"sigma"`
	LastActive   float64 `json:"last_active"`
}

func toEntryResponse(e repository.Entry) entryResponse {
	return entryResponse{
		Rank:         e.Rank,
		CompetitorID: e.CompetitorID,
		Rating:       e.Rating,
		Mu:           e.Mu,
		Sigma:        e.Sigma,
		LastActive:   e.LastActive,
	}
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
