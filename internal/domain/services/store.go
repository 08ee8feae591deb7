package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
)

// ReputationStore is the persistence surface the scoring pipeline and the
// reconciliation engine depend on. Lookups that find nothing return
// (nil, nil).
type ReputationStore interface {
	GetVerified(ctx context.Context, identifierType models.IdentifierType, identifier string) (*models.ReputationRecord, error)
	GetByTypeAndIdentifier(ctx context.Context, identifierType models.IdentifierType, identifier string) (*models.ReputationRecord, error)
	ListPending(ctx context.Context, limit int) ([]*models.ReputationRecord, error)
	UpsertReport(ctx context.Context, identifierType models.IdentifierType, identifier, description, reporterID string) (*models.ReputationRecord, error)
	Promote(ctx context.Context, recordID uuid.UUID, now time.Time) (bool, error)
}

// IntentClient classifies message text remotely. Implementations live in
// the ai package; the classifier service treats any error as a signal to
// fall back to rule-based analysis.
type IntentClient interface {
	Classify(ctx context.Context, text string) (*models.IntentResult, error)
}

// URLScanClient checks a batch of URLs against an external reputation source
type URLScanClient interface {
	ScanURLs(ctx context.Context, urls []string) (*models.UrlScanSummary, error)
}
