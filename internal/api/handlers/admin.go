package handlers

import (
	"encoding/json"
	"net/http"

	"scamshield/internal/domain/services"
	"scamshield/pkg/logger"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	reconciler *services.ReconciliationEngine
	logger     *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reconciler *services.ReconciliationEngine, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		reconciler: reconciler,
		logger:     log.WithComponent("admin-handler"),
	}
}

// TriggerReconcile handles POST /api/v1/admin/reconcile - runs a sweep now
func (h *AdminHandler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.TriggerSweep(r.Context()); err != nil {
		if err == services.ErrSweepAlreadyRunning {
			http.Error(w, `{"error":"sweep already running"}`, http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("manual sweep failed")
		http.Error(w, "Sweep failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
}
