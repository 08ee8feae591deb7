package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/cache"
	"scamshield/pkg/logger"
)

const (
	sweepLockKey = "sweep"
	sweepLockTTL = 10 * time.Minute
)

// ErrSweepAlreadyRunning is returned when a manual sweep is requested while
// another sweep holds the lock
var ErrSweepAlreadyRunning = fmt.Errorf("reconciliation sweep already running")

// PromotionEvent is published on Redis when a record is auto-verified
type PromotionEvent struct {
	RecordID    string                `json:"record_id"`
	Type        models.IdentifierType `json:"type"`
	Identifier  string                `json:"identifier"`
	ReportCount int                   `json:"report_count"`
	PromotedAt  time.Time             `json:"promoted_at"`
}

// ReconciliationEngine promotes PENDING reputation records to VERIFIED when
// their report counts cross the per-type thresholds. It owns exactly one
// record transition; FALSE_POSITIVE and INVESTIGATING records are never
// touched. Promotion runs from a timer sweep and inline after each report.
type ReconciliationEngine struct {
	store     ReputationStore
	cache     *cache.RedisCache
	policy    models.AutoVerificationPolicy
	interval  time.Duration
	batchSize int
	logger    *logger.Logger

	sweepMu sync.Mutex
	stopCh  chan struct{}
	stopped sync.Once

	mu    sync.RWMutex
	stats ReconcilerStats
}

// ReconcilerStats tracks reconciliation activity since process start
type ReconcilerStats struct {
	SweepsRun        int64     `json:"sweeps_run"`
	SweepsSkipped    int64     `json:"sweeps_skipped"`
	RecordsPromoted  int64     `json:"records_promoted"`
	ReportsProcessed int64     `json:"reports_processed"`
	LastSweepAt      time.Time `json:"last_sweep_at"`
}

// NewReconciliationEngine creates a new reconciliation engine. The Redis
// cache may be nil; locking then falls back to the local mutex only.
func NewReconciliationEngine(store ReputationStore, redis *cache.RedisCache, policy models.AutoVerificationPolicy, interval time.Duration, batchSize int, log *logger.Logger) *ReconciliationEngine {
	if interval == 0 {
		interval = 30 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ReconciliationEngine{
		store:     store,
		cache:     redis,
		policy:    policy,
		interval:  interval,
		batchSize: batchSize,
		logger:    log.WithComponent("reconciler"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs the sweep timer until Stop is called or the context ends.
// Blocks; run in a goroutine.
func (e *ReconciliationEngine) Start(ctx context.Context) {
	if !e.policy.Enabled {
		e.logger.Info().Msg("auto-verification disabled, reconciler idle")
		return
	}

	e.logger.Info().Dur("interval", e.interval).Msg("starting reconciliation loop")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if err := e.runSweep(ctx); err != nil && err != ErrSweepAlreadyRunning {
				e.logger.Error().Err(err).Msg("reconciliation sweep failed")
			}
		}
	}
}

// Stop terminates the sweep timer
func (e *ReconciliationEngine) Stop() {
	e.stopped.Do(func() { close(e.stopCh) })
}

// TriggerSweep runs one sweep immediately, with the same single-flight
// guarantees as the timer path
func (e *ReconciliationEngine) TriggerSweep(ctx context.Context) error {
	return e.runSweep(ctx)
}

// runSweep executes one reconciliation pass. A local TryLock keeps the sweep
// non-reentrant within the process; the Redis lock keeps it single-flight
// across processes.
func (e *ReconciliationEngine) runSweep(ctx context.Context) error {
	if !e.sweepMu.TryLock() {
		e.recordSkip()
		return ErrSweepAlreadyRunning
	}
	defer e.sweepMu.Unlock()

	if e.cache != nil {
		acquired, err := e.cache.AcquireLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !acquired {
			e.recordSkip()
			return ErrSweepAlreadyRunning
		}
		defer func() {
			if err := e.cache.ReleaseLock(context.WithoutCancel(ctx), sweepLockKey); err != nil {
				e.logger.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	start := time.Now()

	records, err := e.store.ListPending(ctx, e.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending records: %w", err)
	}

	promoted := 0
	for _, record := range records {
		ok, err := e.checkPromotion(ctx, record)
		if err != nil {
			e.logger.Error().
				Err(err).
				Str("record_id", record.ID.String()).
				Msg("promotion check failed, continuing sweep")
			continue
		}
		if ok {
			promoted++
		}
	}

	e.mu.Lock()
	e.stats.SweepsRun++
	e.stats.RecordsPromoted += int64(promoted)
	e.stats.LastSweepAt = time.Now()
	e.mu.Unlock()

	e.logger.Info().
		Int("pending_checked", len(records)).
		Int("promoted", promoted).
		Dur("duration", time.Since(start)).
		Msg("reconciliation sweep completed")

	return nil
}

// ReportAndCheckVerification registers a report and immediately checks
// whether the record now crosses its promotion threshold, so a report that
// tips the count is verified without waiting for the next sweep
func (e *ReconciliationEngine) ReportAndCheckVerification(ctx context.Context, identifierType models.IdentifierType, identifier, description, reporterID string) (*models.ReputationRecord, error) {
	record, err := e.store.UpsertReport(ctx, identifierType, identifier, description, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to register report: %w", err)
	}

	e.mu.Lock()
	e.stats.ReportsProcessed++
	e.mu.Unlock()

	if e.policy.Enabled && record.Status == models.RecordStatusPending {
		promoted, err := e.checkPromotion(ctx, record)
		if err != nil {
			// The report itself succeeded; promotion retries on the next sweep
			e.logger.Error().
				Err(err).
				Str("record_id", record.ID.String()).
				Msg("inline promotion check failed")
		} else if promoted {
			if refreshed, err := e.store.GetByTypeAndIdentifier(ctx, record.Type, record.Identifier); err == nil && refreshed != nil {
				record = refreshed
			}
			e.mu.Lock()
			e.stats.RecordsPromoted++
			e.mu.Unlock()
		}
	}

	return record, nil
}

// checkPromotion promotes a record when its report count meets the per-type
// threshold. The store's conditional update makes concurrent calls safe:
// only one caller observes true for a given record.
func (e *ReconciliationEngine) checkPromotion(ctx context.Context, record *models.ReputationRecord) (bool, error) {
	if record.Status != models.RecordStatusPending {
		return false, nil
	}

	threshold := e.policy.ThresholdFor(record.Type)
	if threshold <= 0 || record.ReportCount < threshold {
		return false, nil
	}

	now := time.Now()
	promoted, err := e.store.Promote(ctx, record.ID, now)
	if err != nil {
		return false, err
	}
	if !promoted {
		return false, nil
	}

	e.logger.Info().
		Str("record_id", record.ID.String()).
		Str("identifier_type", string(record.Type)).
		Str("identifier", record.Identifier).
		Int("report_count", record.ReportCount).
		Msg("record auto-verified")

	e.publishPromotion(ctx, record, now)

	return true, nil
}

func (e *ReconciliationEngine) publishPromotion(ctx context.Context, record *models.ReputationRecord, promotedAt time.Time) {
	if e.cache == nil {
		return
	}

	event := PromotionEvent{
		RecordID:    record.ID.String(),
		Type:        record.Type,
		Identifier:  record.Identifier,
		ReportCount: record.ReportCount,
		PromotedAt:  promotedAt,
	}

	if err := e.cache.PublishJSON(ctx, cache.ChannelReputationVerified, event); err != nil {
		e.logger.Warn().Err(err).Msg("failed to publish promotion event")
	}
}

func (e *ReconciliationEngine) recordSkip() {
	e.mu.Lock()
	e.stats.SweepsSkipped++
	e.mu.Unlock()
}

// Stats returns a snapshot of the running counters
func (e *ReconciliationEngine) Stats() ReconcilerStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}
