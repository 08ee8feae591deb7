package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"scamshield/internal/domain/models"
)

func signalsWith(phones, emails []string) *models.ExtractedSignals {
	signals := models.NewExtractedSignals()
	for _, p := range phones {
		signals.AddPhone(p)
	}
	for _, e := range emails {
		signals.AddEmail(e)
	}
	return signals
}

func TestOwnReputationChecker_Check(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeStore)
		phones    []string
		emails    []string
		wantScore float64
		wantHits  int
	}{
		{
			name:      "no signals",
			setup:     func(s *fakeStore) {},
			wantScore: 0,
		},
		{
			name: "single verified hit",
			setup: func(s *fakeStore) {
				s.addVerified(models.IdentifierTypePhone, "+15551234567", 7)
			},
			phones:    []string{"+15551234567"},
			wantScore: 1.0,
			wantHits:  1,
		},
		{
			name: "hit fraction over checked identifiers",
			setup: func(s *fakeStore) {
				s.addVerified(models.IdentifierTypeEmail, "scam@evil.test", 4)
			},
			phones:    []string{"+15551234567"},
			emails:    []string{"scam@evil.test", "clean@ok.test"},
			wantScore: 1.0 / 3.0,
			wantHits:  1,
		},
		{
			name: "pending records do not count",
			setup: func(s *fakeStore) {
				rec, _ := s.UpsertReport(context.Background(), models.IdentifierTypePhone, "+15551234567", "", "r1")
				_ = rec
			},
			phones:    []string{"+15551234567"},
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tt.setup(store)
			c := NewOwnReputationChecker(store, 2, testLogger())

			got := c.Check(context.Background(), signalsWith(tt.phones, tt.emails))

			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Len(t, got.Reasons, tt.wantHits)
		})
	}
}

func TestOwnReputationChecker_FailedLookupsExcluded(t *testing.T) {
	store := newFakeStore()
	store.addVerified(models.IdentifierTypePhone, "+15551234567", 5)
	store.failOn[storeKey(models.IdentifierTypeEmail, "broken@lookup.test")] = fmt.Errorf("connection reset")

	c := NewOwnReputationChecker(store, 2, testLogger())

	// The failed lookup drops out of both numerator and denominator:
	// 1 hit / 1 checked, not 1 / 2
	got := c.Check(context.Background(), signalsWith(
		[]string{"+15551234567"},
		[]string{"broken@lookup.test"},
	))

	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.Len(t, got.Reasons, 1)
	assert.Contains(t, got.Reasons[0], "+15551234567")
	assert.Contains(t, got.Reasons[0], "5 reports")
}

func TestOwnReputationChecker_PanickingLookupExcluded(t *testing.T) {
	store := newFakeStore()
	store.addVerified(models.IdentifierTypePhone, "+15551234567", 5)
	store.panicOn[storeKey(models.IdentifierTypeEmail, "broken@lookup.test")] = struct{}{}

	c := NewOwnReputationChecker(store, 2, testLogger())

	// A panicking store is contained inside its lookup goroutine and scored
	// exactly like a failed lookup
	got := c.Check(context.Background(), signalsWith(
		[]string{"+15551234567"},
		[]string{"broken@lookup.test"},
	))

	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.Len(t, got.Reasons, 1)
	assert.Contains(t, got.Reasons[0], "+15551234567")
}

func TestOwnReputationChecker_AllLookupsFailed(t *testing.T) {
	store := newFakeStore()
	store.failOn[storeKey(models.IdentifierTypePhone, "+15551234567")] = fmt.Errorf("db down")

	c := NewOwnReputationChecker(store, 2, testLogger())

	got := c.Check(context.Background(), signalsWith([]string{"+15551234567"}, nil))

	assert.Equal(t, 0.0, got.Score)
	assert.Empty(t, got.Reasons)
}
