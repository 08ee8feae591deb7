package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

// ReportRepository handles per-reporter report instance persistence
type ReportRepository struct {
	db *database.PostgresDB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.PostgresDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListByRecord retrieves the report instances behind a reputation record,
// newest first
func (r *ReportRepository) ListByRecord(ctx context.Context, recordID uuid.UUID, limit int) ([]*models.ReportInstance, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, record_id, reporter_id, description, created_at
		FROM report_instances
		WHERE record_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Pool().Query(ctx, query, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report instances: %w", err)
	}
	defer rows.Close()

	var reports []*models.ReportInstance
	for rows.Next() {
		rep := &models.ReportInstance{}
		if err := rows.Scan(&rep.ID, &rep.RecordID, &rep.ReporterID, &rep.Description, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report instance: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// CountDistinctReporters returns how many distinct reporters reported a record
func (r *ReportRepository) CountDistinctReporters(ctx context.Context, recordID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(DISTINCT reporter_id) FROM report_instances WHERE record_id = $1`,
		recordID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reporters: %w", err)
	}
	return count, nil
}
