package handlers

import (
	"scamshield/internal/domain/services"
	"scamshield/internal/infrastructure/cache"
	"scamshield/internal/infrastructure/database"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health     *HealthHandler
	Assess     *AssessHandler
	Reports    *ReportsHandler
	Reputation *ReputationHandler
	Admin      *AdminHandler
	Stats      *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Assessor   *services.MessageAssessor
	Reconciler *services.ReconciliationEngine
	Repos      *repository.Repositories
	DB         *database.PostgresDB
	Cache      *cache.RedisCache
	Logger     *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(deps.DB, deps.Cache, deps.Logger),
		Assess:     NewAssessHandler(deps.Assessor, deps.Logger),
		Reports:    NewReportsHandler(deps.Reconciler, deps.Logger),
		Reputation: NewReputationHandler(deps.Repos, deps.Logger),
		Admin:      NewAdminHandler(deps.Reconciler, deps.Logger),
		Stats:      NewStatsHandler(deps.Assessor, deps.Reconciler, deps.Repos, deps.Logger),
	}
}
