package handlers

import (
	"encoding/json"
	"net/http"

	"scamshield/internal/domain/services"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	assessor   *services.MessageAssessor
	reconciler *services.ReconciliationEngine
	repos      *repository.Repositories
	logger     *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(assessor *services.MessageAssessor, reconciler *services.ReconciliationEngine, repos *repository.Repositories, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		assessor:   assessor,
		reconciler: reconciler,
		repos:      repos,
		logger:     log.WithComponent("stats-handler"),
	}
}

// StatsResponse aggregates service and database statistics
type StatsResponse struct {
	Assessments services.AssessorStats      `json:"assessments"`
	Reconciler  services.ReconcilerStats    `json:"reconciler"`
	Reputation  *repository.ReputationStats `json:"reputation,omitempty"`
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{
		Assessments: h.assessor.Stats(),
		Reconciler:  h.reconciler.Stats(),
	}

	if h.repos != nil {
		stats, err := h.repos.Reputation.GetStats(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to load reputation stats")
		} else {
			response.Reputation = stats
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
