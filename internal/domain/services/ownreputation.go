package services

import (
	"context"
	"fmt"
	"sync"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// OwnReputationChecker scores extracted signals against the local database
// of verified scam identifiers
type OwnReputationChecker struct {
	store       ReputationStore
	concurrency int
	logger      *logger.Logger
}

// NewOwnReputationChecker creates a new own-database reputation checker
func NewOwnReputationChecker(store ReputationStore, concurrency int, log *logger.Logger) *OwnReputationChecker {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &OwnReputationChecker{
		store:       store,
		concurrency: concurrency,
		logger:      log.WithComponent("own-reputation"),
	}
}

type identifierLookup struct {
	identifierType models.IdentifierType
	identifier     string
}

// Check looks up every extracted phone and email against verified records.
// The score is the fraction of successfully checked identifiers that hit a
// verified record. Failed lookups are logged and excluded from both sides
// of the fraction, so a partial outage skews toward the data we do have.
func (c *OwnReputationChecker) Check(ctx context.Context, signals *models.ExtractedSignals) models.CheckResult {
	var lookups []identifierLookup
	for _, phone := range signals.PhoneNumbers() {
		lookups = append(lookups, identifierLookup{models.IdentifierTypePhone, phone})
	}
	for _, email := range signals.Emails() {
		lookups = append(lookups, identifierLookup{models.IdentifierTypeEmail, email})
	}

	if len(lookups) == 0 {
		return models.CheckResult{Score: 0, Reasons: []string{}}
	}

	type lookupOutcome struct {
		lookup identifierLookup
		record *models.ReputationRecord
		err    error
	}

	outcomes := make([]lookupOutcome, len(lookups))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.concurrency)

	for i, l := range lookups {
		wg.Add(1)
		go func(i int, l identifierLookup) {
			defer wg.Done()
			// A panicking store takes down only this lookup, which then
			// follows the failed-lookup path like any other error
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = lookupOutcome{lookup: l, err: fmt.Errorf("lookup panicked: %v", r)}
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			record, err := c.store.GetVerified(ctx, l.identifierType, l.identifier)
			outcomes[i] = lookupOutcome{lookup: l, record: record, err: err}
		}(i, l)
	}
	wg.Wait()

	checked := 0
	hits := 0
	reasons := []string{}

	// Outcomes keep lookup order so reasons are deterministic
	for _, out := range outcomes {
		if out.err != nil {
			c.logger.WithIdentifier(string(out.lookup.identifierType), out.lookup.identifier).
				Warn().
				Err(out.err).
				Msg("reputation lookup failed, excluding identifier")
			continue
		}
		checked++
		if out.record != nil {
			hits++
			reasons = append(reasons, fmt.Sprintf(
				"%s %s found in scam database (%d reports)",
				out.lookup.identifierType, out.lookup.identifier, out.record.ReportCount,
			))
		}
	}

	if checked == 0 {
		return models.CheckResult{Score: 0, Reasons: reasons}
	}

	return models.CheckResult{
		Score:   float64(hits) / float64(checked),
		Reasons: reasons,
	}
}
