package handlers

import (
	"encoding/json"
	"net/http"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services"
	"scamshield/pkg/logger"
)

// ReportsHandler handles scam report submission endpoints
type ReportsHandler struct {
	reconciler *services.ReconciliationEngine
	logger     *logger.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reconciler *services.ReconciliationEngine, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{
		reconciler: reconciler,
		logger:     log.WithComponent("reports-handler"),
	}
}

// ReportRequest is the request body for submitting a scam report
type ReportRequest struct {
	Type        string `json:"type"`
	Identifier  string `json:"identifier"`
	Description string `json:"description,omitempty"`
	ReporterID  string `json:"reporter_id"`
}

// Submit handles POST /api/v1/reports - registers a report and runs the
// inline verification check
func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Identifier == "" {
		http.Error(w, "Identifier is required", http.StatusBadRequest)
		return
	}
	if req.ReporterID == "" {
		http.Error(w, "Reporter ID is required", http.StatusBadRequest)
		return
	}

	identifierType := models.ParseIdentifierType(req.Type)

	record, err := h.reconciler.ReportAndCheckVerification(
		r.Context(), identifierType, req.Identifier, req.Description, req.ReporterID,
	)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to process report")
		http.Error(w, "Failed to process report", http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("identifier_type", string(record.Type)).
		Str("identifier", record.Identifier).
		Int("report_count", record.ReportCount).
		Str("status", string(record.Status)).
		Msg("report processed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}
