package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

const recordColumns = `
	id, type, identifier, status, report_count, is_auto_verified,
	description, reported_by, verified_by, last_reported_at,
	auto_verified_at, created_at, updated_at`

// ReputationRepository handles reputation record persistence
type ReputationRepository struct {
	db *database.PostgresDB
}

// NewReputationRepository creates a new reputation repository
func NewReputationRepository(db *database.PostgresDB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// GetVerified retrieves a record only if it has VERIFIED status.
// Returns (nil, nil) when no verified record exists for the identifier.
func (r *ReputationRepository) GetVerified(ctx context.Context, identifierType models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM reputation_records
		WHERE type = $1 AND identifier = $2 AND status = 'verified'`

	return scanRecord(r.db.Pool().QueryRow(ctx, query, identifierType, models.CanonicalIdentifier(identifier)))
}

// GetByTypeAndIdentifier retrieves a record regardless of status.
// Returns (nil, nil) when absent.
func (r *ReputationRepository) GetByTypeAndIdentifier(ctx context.Context, identifierType models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM reputation_records
		WHERE type = $1 AND identifier = $2`

	return scanRecord(r.db.Pool().QueryRow(ctx, query, identifierType, models.CanonicalIdentifier(identifier)))
}

// ListPending retrieves PENDING records ordered by report volume, most
// reported first, so sweeps promote the hottest identifiers early
func (r *ReputationRepository) ListPending(ctx context.Context, limit int) ([]*models.ReputationRecord, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT ` + recordColumns + `
		FROM reputation_records
		WHERE status = 'pending'
		ORDER BY report_count DESC, last_reported_at DESC
		LIMIT $1`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	defer rows.Close()

	var records []*models.ReputationRecord
	for rows.Next() {
		rec, err := scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpsertReport registers a report against an identifier. The first report
// creates a PENDING record with report_count 1; later reports from new
// reporters increment report_count and refresh last_reported_at. A repeat
// report from the same reporter is a no-op and returns the current record.
func (r *ReputationRepository) UpsertReport(ctx context.Context, identifierType models.IdentifierType, identifier, description, reporterID string) (*models.ReputationRecord, error) {
	canonical := models.CanonicalIdentifier(identifier)
	now := time.Now()

	var record *models.ReputationRecord

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// Ensure the record row exists; touching updated_at on conflict lets
		// RETURNING yield the existing row
		insertRecord := `
			INSERT INTO reputation_records (
				id, type, identifier, status, report_count, is_auto_verified,
				description, reported_by, last_reported_at, created_at, updated_at
			) VALUES ($1, $2, $3, 'pending', 0, false, $4, $5, $6, $6, $6)
			ON CONFLICT (type, identifier) DO UPDATE SET updated_at = $6
			RETURNING ` + recordColumns

		rec, err := scanRecord(tx.QueryRow(ctx, insertRecord,
			uuid.New(), identifierType, canonical, description, reporterID, now,
		))
		if err != nil {
			return fmt.Errorf("failed to upsert reputation record: %w", err)
		}

		// One count per distinct reporter per record
		insertInstance := `
			INSERT INTO report_instances (id, record_id, reporter_id, description, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (record_id, reporter_id) DO NOTHING`

		tag, err := tx.Exec(ctx, insertInstance, uuid.New(), rec.ID, reporterID, description, now)
		if err != nil {
			return fmt.Errorf("failed to insert report instance: %w", err)
		}

		if tag.RowsAffected() == 0 {
			// Duplicate reporter, nothing to count
			record = rec
			return nil
		}

		bump := `
			UPDATE reputation_records SET
				report_count = report_count + 1,
				description = CASE
					WHEN $2 = '' THEN description
					WHEN description = '' THEN $2
					ELSE description || '; ' || $2
				END,
				last_reported_at = $3,
				updated_at = $3
			WHERE id = $1
			RETURNING ` + recordColumns

		rec, err = scanRecord(tx.QueryRow(ctx, bump, rec.ID, description, now))
		if err != nil {
			return fmt.Errorf("failed to increment report count: %w", err)
		}

		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Promote flips a PENDING record to VERIFIED. The status guard in the WHERE
// clause makes concurrent promotions race-safe: exactly one caller observes
// promoted=true, the rest see false.
func (r *ReputationRepository) Promote(ctx context.Context, recordID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE reputation_records SET
			status = 'verified',
			is_auto_verified = true,
			auto_verified_at = $2,
			updated_at = $2
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.db.Pool().Exec(ctx, query, recordID, now)
	if err != nil {
		return false, fmt.Errorf("failed to promote record: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetStats returns aggregate reputation counts
func (r *ReputationRepository) GetStats(ctx context.Context) (*ReputationStats, error) {
	stats := &ReputationStats{}

	err := r.db.Pool().QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'verified'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE is_auto_verified)
		FROM reputation_records
	`).Scan(&stats.TotalRecords, &stats.VerifiedRecords, &stats.PendingRecords, &stats.AutoVerifiedRecords)

	if err != nil {
		return nil, fmt.Errorf("failed to get reputation stats: %w", err)
	}

	return stats, nil
}

// ReputationStats holds aggregate reputation record statistics
type ReputationStats struct {
	TotalRecords        int64 `json:"total_records"`
	VerifiedRecords     int64 `json:"verified_records"`
	PendingRecords      int64 `json:"pending_records"`
	AutoVerifiedRecords int64 `json:"auto_verified_records"`
}

// Helper functions

func scanRecord(row pgx.Row) (*models.ReputationRecord, error) {
	rec := &models.ReputationRecord{}

	err := row.Scan(
		&rec.ID, &rec.Type, &rec.Identifier, &rec.Status, &rec.ReportCount,
		&rec.IsAutoVerified, &rec.Description, &rec.ReportedBy, &rec.VerifiedBy,
		&rec.LastReportedAt, &rec.AutoVerifiedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan reputation record: %w", err)
	}

	return rec, nil
}

func scanRecordFromRows(rows pgx.Rows) (*models.ReputationRecord, error) {
	rec := &models.ReputationRecord{}

	err := rows.Scan(
		&rec.ID, &rec.Type, &rec.Identifier, &rec.Status, &rec.ReportCount,
		&rec.IsAutoVerified, &rec.Description, &rec.ReportedBy, &rec.VerifiedBy,
		&rec.LastReportedAt, &rec.AutoVerifiedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reputation record row: %w", err)
	}

	return rec, nil
}
