package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services"
	"scamshield/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// emptyStore is a ReputationStore with no verified records and no failures
type emptyStore struct {
	mu      sync.Mutex
	records map[string]*models.ReputationRecord
}

func newEmptyStore() *emptyStore {
	return &emptyStore{records: make(map[string]*models.ReputationRecord)}
}

func (s *emptyStore) GetVerified(ctx context.Context, t models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	return nil, nil
}

func (s *emptyStore) GetByTypeAndIdentifier(ctx context.Context, t models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[string(t)+"|"+models.CanonicalIdentifier(identifier)], nil
}

func (s *emptyStore) ListPending(ctx context.Context, limit int) ([]*models.ReputationRecord, error) {
	return nil, nil
}

func (s *emptyStore) UpsertReport(ctx context.Context, t models.IdentifierType, identifier, description, reporterID string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(t) + "|" + models.CanonicalIdentifier(identifier)
	rec, ok := s.records[key]
	if !ok {
		rec = &models.ReputationRecord{
			ID:         uuid.New(),
			Type:       t,
			Identifier: models.CanonicalIdentifier(identifier),
			Status:     models.RecordStatusPending,
		}
		s.records[key] = rec
	}
	rec.ReportCount++
	rec.LastReportedAt = time.Now()
	return rec, nil
}

func (s *emptyStore) Promote(ctx context.Context, recordID uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

type safeScanClient struct{}

func (safeScanClient) ScanURLs(ctx context.Context, urls []string) (*models.UrlScanSummary, error) {
	return &models.UrlScanSummary{TotalUrls: len(urls), SafeUrls: len(urls)}, nil
}

func newTestAssessHandler() *AssessHandler {
	log := testLogger()
	assessor := services.NewMessageAssessor(
		services.NewSignalExtractor(log),
		services.NewOwnReputationChecker(newEmptyStore(), 2, log),
		services.NewUrlReputationChecker(safeScanClient{}, nil, time.Second, time.Minute, log),
		services.NewIntentClassifier(nil, config.IntentConfig{}, log),
		services.NewScoreCombiner(config.RiskConfig{}),
		5*time.Second,
		log,
	)
	return NewAssessHandler(assessor, log)
}

func TestAssessHandler_Assess(t *testing.T) {
	h := newTestAssessHandler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid message",
			body:       `{"text":"hello, lunch tomorrow?"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty text",
			body:       `{"text":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "oversized message",
			body:       `{"text":"` + strings.Repeat("a", 64*1024+1) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			h.Assess(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var assessment models.RiskAssessment
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&assessment))
				assert.Equal(t, models.RiskLevelLow, assessment.RiskLevel)
				assert.False(t, assessment.IsScam)
			}
		})
	}
}

func TestReportsHandler_Submit(t *testing.T) {
	log := testLogger()
	reconciler := services.NewReconciliationEngine(
		newEmptyStore(), nil,
		models.AutoVerificationPolicy{Enabled: true, EmailThreshold: 3},
		time.Minute, 100, log,
	)
	h := NewReportsHandler(reconciler, log)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid report",
			body:       `{"type":"email","identifier":"scam@evil.test","reporter_id":"user-1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing identifier",
			body:       `{"type":"email","reporter_id":"user-1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing reporter",
			body:       `{"type":"email","identifier":"scam@evil.test"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			h.Submit(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				var record models.ReputationRecord
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
				assert.Equal(t, models.IdentifierTypeEmail, record.Type)
				assert.Equal(t, "scam@evil.test", record.Identifier)
				assert.Equal(t, 1, record.ReportCount)
			}
		})
	}
}
