package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/pkg/logger"
)

// ReputationHandler handles reputation lookup endpoints
type ReputationHandler struct {
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewReputationHandler creates a new reputation handler
func NewReputationHandler(repos *repository.Repositories, log *logger.Logger) *ReputationHandler {
	return &ReputationHandler{
		repos:  repos,
		logger: log.WithComponent("reputation-handler"),
	}
}

// Get handles GET /api/v1/reputation/{type}/{identifier}
func (h *ReputationHandler) Get(w http.ResponseWriter, r *http.Request) {
	record := h.lookup(w, r)
	if record == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// ListReports handles GET /api/v1/reputation/{type}/{identifier}/reports -
// the individual report instances behind a record, newest first
func (h *ReputationHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	record := h.lookup(w, r)
	if record == nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := h.repos.Reports.ListByRecord(r.Context(), record.ID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("report listing failed")
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}

	reporters, err := h.repos.Reports.CountDistinctReporters(r.Context(), record.ID)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to count distinct reporters")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"record_id":          record.ID,
		"distinct_reporters": reporters,
		"reports":            reports,
	})
}

// lookup resolves the record from the URL, writing the error response and
// returning nil when there is nothing to serve
func (h *ReputationHandler) lookup(w http.ResponseWriter, r *http.Request) *models.ReputationRecord {
	identifierType := models.ParseIdentifierType(chi.URLParam(r, "type"))
	identifier := chi.URLParam(r, "identifier")

	if identifier == "" {
		http.Error(w, "Identifier is required", http.StatusBadRequest)
		return nil
	}

	record, err := h.repos.Reputation.GetByTypeAndIdentifier(r.Context(), identifierType, identifier)
	if err != nil {
		h.logger.Error().Err(err).Msg("reputation lookup failed")
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return nil
	}

	if record == nil {
		http.Error(w, "Record not found", http.StatusNotFound)
		return nil
	}

	return record
}
