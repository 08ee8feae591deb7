package handlers

import (
	"encoding/json"
	"net/http"

	"scamshield/internal/domain/services"
	"scamshield/pkg/logger"
)

const maxMessageLength = 64 * 1024

// AssessHandler handles message risk assessment endpoints
type AssessHandler struct {
	assessor *services.MessageAssessor
	logger   *logger.Logger
}

// NewAssessHandler creates a new assess handler
func NewAssessHandler(assessor *services.MessageAssessor, log *logger.Logger) *AssessHandler {
	return &AssessHandler{
		assessor: assessor,
		logger:   log.WithComponent("assess-handler"),
	}
}

// AssessRequest is the request body for message assessment
type AssessRequest struct {
	Text          string `json:"text"`
	SourceContext string `json:"source_context,omitempty"`
}

// Assess handles POST /api/v1/assess - runs the full scoring pipeline on a message
func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Text == "" {
		http.Error(w, "Message text is required", http.StatusBadRequest)
		return
	}
	if len(req.Text) > maxMessageLength {
		http.Error(w, "Message text too large", http.StatusRequestEntityTooLarge)
		return
	}

	assessment := h.assessor.AssessMessage(r.Context(), req.Text)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assessment)
}
