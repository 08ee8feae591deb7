package repository

import (
	"scamshield/internal/infrastructure/database"
)

// Repositories bundles all repositories for dependency injection
type Repositories struct {
	Reputation *ReputationRepository
	Reports    *ReportRepository
}

// New creates all repositories against a shared database handle
func New(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Reputation: NewReputationRepository(db),
		Reports:    NewReportRepository(db),
	}
}
