package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func storeKey(t models.IdentifierType, identifier string) string {
	return string(t) + "|" + models.CanonicalIdentifier(identifier)
}

// fakeStore is an in-memory ReputationStore with the same dedup and
// promotion semantics as the Postgres repository.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]*models.ReputationRecord
	reporters map[uuid.UUID]map[string]struct{}
	failOn    map[string]error
	panicOn   map[string]struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   make(map[string]*models.ReputationRecord),
		reporters: make(map[uuid.UUID]map[string]struct{}),
		failOn:    make(map[string]error),
		panicOn:   make(map[string]struct{}),
	}
}

func (s *fakeStore) addVerified(t models.IdentifierType, identifier string, reportCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &models.ReputationRecord{
		ID:          uuid.New(),
		Type:        t,
		Identifier:  models.CanonicalIdentifier(identifier),
		Status:      models.RecordStatusVerified,
		ReportCount: reportCount,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.records[storeKey(t, identifier)] = rec
	s.reporters[rec.ID] = make(map[string]struct{})
}

func cloneRecord(rec *models.ReputationRecord) *models.ReputationRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	return &c
}

func (s *fakeStore) GetVerified(ctx context.Context, t models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(t, identifier)
	if _, ok := s.panicOn[key]; ok {
		panic("reputation store fault: " + key)
	}
	if err, ok := s.failOn[key]; ok {
		return nil, err
	}
	rec, ok := s.records[key]
	if !ok || rec.Status != models.RecordStatusVerified {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (s *fakeStore) GetByTypeAndIdentifier(ctx context.Context, t models.IdentifierType, identifier string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.records[storeKey(t, identifier)]), nil
}

func (s *fakeStore) ListPending(ctx context.Context, limit int) ([]*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ReputationRecord
	for _, rec := range s.records {
		if rec.Status == models.RecordStatusPending {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportCount > out[j].ReportCount })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) UpsertReport(ctx context.Context, t models.IdentifierType, identifier, description, reporterID string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(t, identifier)
	now := time.Now()

	rec, ok := s.records[key]
	if !ok {
		rec = &models.ReputationRecord{
			ID:         uuid.New(),
			Type:       t,
			Identifier: models.CanonicalIdentifier(identifier),
			Status:     models.RecordStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.records[key] = rec
		s.reporters[rec.ID] = make(map[string]struct{})
	}

	if _, seen := s.reporters[rec.ID][reporterID]; !seen {
		s.reporters[rec.ID][reporterID] = struct{}{}
		rec.ReportCount++
		rec.LastReportedAt = now
		rec.UpdatedAt = now
	}

	return cloneRecord(rec), nil
}

func (s *fakeStore) Promote(ctx context.Context, recordID uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == recordID {
			if rec.Status != models.RecordStatusPending {
				return false, nil
			}
			rec.Status = models.RecordStatusVerified
			rec.IsAutoVerified = true
			rec.AutoVerifiedAt = &now
			rec.UpdatedAt = now
			return true, nil
		}
	}
	return false, nil
}

type fakeIntentClient struct {
	result   *models.IntentResult
	err      error
	panicMsg string

	mu    sync.Mutex
	calls int
}

func (c *fakeIntentClient) Classify(ctx context.Context, text string) (*models.IntentResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type fakeURLScanClient struct {
	summary *models.UrlScanSummary
	err     error

	mu      sync.Mutex
	calls   int
	gotURLs []string
}

func (c *fakeURLScanClient) ScanURLs(ctx context.Context, urls []string) (*models.UrlScanSummary, error) {
	c.mu.Lock()
	c.calls++
	c.gotURLs = append([]string(nil), urls...)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.summary, nil
}
