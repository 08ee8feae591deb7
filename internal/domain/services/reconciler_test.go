package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/domain/models"
)

func testPolicy() models.AutoVerificationPolicy {
	return models.AutoVerificationPolicy{
		Enabled:              true,
		PhoneThreshold:       5,
		EmailThreshold:       3,
		WebsiteThreshold:     3,
		SocialMediaThreshold: 5,
		OtherThreshold:       10,
	}
}

func newTestEngine(store ReputationStore, policy models.AutoVerificationPolicy) *ReconciliationEngine {
	return NewReconciliationEngine(store, nil, policy, time.Minute, 100, testLogger())
}

func TestReconciliationEngine_InlinePromotionAtThreshold(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, testPolicy())
	ctx := context.Background()

	// Four distinct reporters leave the record pending
	for i := 1; i <= 4; i++ {
		record, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypePhone, "+15551234567", "fake refund call", fmt.Sprintf("reporter-%d", i))
		require.NoError(t, err)
		assert.Equal(t, models.RecordStatusPending, record.Status)
		assert.Equal(t, i, record.ReportCount)
	}

	// The fifth crosses the phone threshold and promotes immediately
	record, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypePhone, "+15551234567", "fake refund call", "reporter-5")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusVerified, record.Status)
	assert.True(t, record.IsAutoVerified)
	assert.Equal(t, 5, record.ReportCount)
	require.NotNil(t, record.AutoVerifiedAt)

	stats := engine.Stats()
	assert.Equal(t, int64(5), stats.ReportsProcessed)
	assert.Equal(t, int64(1), stats.RecordsPromoted)
}

func TestReconciliationEngine_DuplicateReporterDoesNotCount(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, testPolicy())
	ctx := context.Background()

	first, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypeEmail, "scam@evil.test", "phishing", "reporter-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ReportCount)

	second, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypeEmail, "scam@evil.test", "phishing again", "reporter-1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.ReportCount)
	assert.Equal(t, models.RecordStatusPending, second.Status)
}

func TestReconciliationEngine_SweepPromotesEligibleRecords(t *testing.T) {
	store := newFakeStore()

	// Disable inline promotion while seeding so the sweep does the work
	seeder := newTestEngine(store, models.AutoVerificationPolicy{Enabled: false})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := seeder.ReportAndCheckVerification(ctx, models.IdentifierTypeEmail, "scam@evil.test", "", fmt.Sprintf("reporter-%d", i))
		require.NoError(t, err)
	}
	_, err := seeder.ReportAndCheckVerification(ctx, models.IdentifierTypePhone, "+15551234567", "", "reporter-1")
	require.NoError(t, err)

	engine := newTestEngine(store, testPolicy())
	require.NoError(t, engine.TriggerSweep(ctx))

	email, err := store.GetByTypeAndIdentifier(ctx, models.IdentifierTypeEmail, "scam@evil.test")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusVerified, email.Status)
	assert.True(t, email.IsAutoVerified)

	// One report is far below the phone threshold
	phone, err := store.GetByTypeAndIdentifier(ctx, models.IdentifierTypePhone, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, phone.Status)

	stats := engine.Stats()
	assert.Equal(t, int64(1), stats.SweepsRun)
	assert.Equal(t, int64(1), stats.RecordsPromoted)
}

func TestReconciliationEngine_SweepIsIdempotent(t *testing.T) {
	store := newFakeStore()
	seeder := newTestEngine(store, models.AutoVerificationPolicy{Enabled: false})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := seeder.ReportAndCheckVerification(ctx, models.IdentifierTypeWebsite, "https://evil.test", "", fmt.Sprintf("reporter-%d", i))
		require.NoError(t, err)
	}

	engine := newTestEngine(store, testPolicy())
	require.NoError(t, engine.TriggerSweep(ctx))
	require.NoError(t, engine.TriggerSweep(ctx))

	stats := engine.Stats()
	assert.Equal(t, int64(2), stats.SweepsRun)
	assert.Equal(t, int64(1), stats.RecordsPromoted)
}

func TestReconciliationEngine_NonPendingNeverTouched(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	rec, err := store.UpsertReport(ctx, models.IdentifierTypeEmail, "disputed@evil.test", "", "reporter-1")
	require.NoError(t, err)

	// An analyst marked the record; reconciliation must leave it alone even
	// though the count is far past the threshold
	store.mu.Lock()
	stored := store.records[storeKey(models.IdentifierTypeEmail, "disputed@evil.test")]
	stored.Status = models.RecordStatusInvestigating
	stored.ReportCount = 50
	store.mu.Unlock()

	engine := newTestEngine(store, testPolicy())
	require.NoError(t, engine.TriggerSweep(ctx))

	after, err := store.GetByTypeAndIdentifier(ctx, models.IdentifierTypeEmail, "disputed@evil.test")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusInvestigating, after.Status)
	assert.False(t, after.IsAutoVerified)
	assert.Equal(t, rec.ID, after.ID)
}

func TestReconciliationEngine_ZeroThresholdDisablesPromotion(t *testing.T) {
	store := newFakeStore()
	policy := testPolicy()
	policy.PhoneThreshold = 0
	engine := newTestEngine(store, policy)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		record, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypePhone, "+15551234567", "", fmt.Sprintf("reporter-%d", i))
		require.NoError(t, err)
		assert.Equal(t, models.RecordStatusPending, record.Status)
	}
}

func TestReconciliationEngine_IdentifierCanonicalized(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, testPolicy())
	ctx := context.Background()

	_, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypeEmail, "  Scam@Evil.Test ", "", "reporter-1")
	require.NoError(t, err)
	record, err := engine.ReportAndCheckVerification(ctx, models.IdentifierTypeEmail, "scam@evil.test", "", "reporter-2")
	require.NoError(t, err)

	assert.Equal(t, "scam@evil.test", record.Identifier)
	assert.Equal(t, 2, record.ReportCount)
}
