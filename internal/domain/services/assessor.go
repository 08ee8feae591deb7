package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

const analysisFailedReason = "Analysis failed - unable to determine risk"

// MessageAssessor orchestrates a full risk assessment: extract signals, fan
// out the reputation and intent checks, then combine. The caller always gets
// a complete RiskAssessment; any internal failure degrades to a canonical
// low-risk verdict rather than an error.
type MessageAssessor struct {
	extractor  *SignalExtractor
	ownChecker *OwnReputationChecker
	urlChecker *UrlReputationChecker
	classifier *IntentClassifier
	combiner   *ScoreCombiner
	timeout    time.Duration
	logger     *logger.Logger

	mu    sync.RWMutex
	stats AssessorStats
}

// AssessorStats tracks assessment volume since process start
type AssessorStats struct {
	TotalAssessments    int64     `json:"total_assessments"`
	ScamsDetected       int64     `json:"scams_detected"`
	DegradedAssessments int64     `json:"degraded_assessments"`
	LastAssessmentAt    time.Time `json:"last_assessment_at"`
}

// NewMessageAssessor creates a new message assessor
func NewMessageAssessor(
	extractor *SignalExtractor,
	ownChecker *OwnReputationChecker,
	urlChecker *UrlReputationChecker,
	classifier *IntentClassifier,
	combiner *ScoreCombiner,
	timeout time.Duration,
	log *logger.Logger,
) *MessageAssessor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &MessageAssessor{
		extractor:  extractor,
		ownChecker: ownChecker,
		urlChecker: urlChecker,
		classifier: classifier,
		combiner:   combiner,
		timeout:    timeout,
		logger:     log.WithComponent("message-assessor"),
	}
}

// AssessMessage runs the scoring pipeline on one message. The three checks
// run concurrently; each already applies its own internal deadline and
// fallback, and the whole pipeline runs under an outer deadline.
func (a *MessageAssessor) AssessMessage(ctx context.Context, text string) *models.RiskAssessment {
	assessment := a.assess(ctx, text)

	a.mu.Lock()
	a.stats.TotalAssessments++
	if assessment.IsScam {
		a.stats.ScamsDetected++
	}
	if assessment.Degraded {
		a.stats.DegradedAssessments++
	}
	a.stats.LastAssessmentAt = time.Now()
	a.mu.Unlock()

	return assessment
}

func (a *MessageAssessor) assess(ctx context.Context, text string) (assessment *models.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("assessment pipeline panicked")
			assessment = a.failedAssessment()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	signals := a.extractor.Extract(text)

	var (
		wg          sync.WaitGroup
		ownResult   models.CheckResult
		urlResult   models.CheckResult
		intentScore models.IntentScore

		panicMu  sync.Mutex
		panicVal any
	)

	// The recover above cannot see a panic raised on a spawned goroutine,
	// so each check captures its own and the parent re-raises after the join
	check := func(fn func()) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				panicMu.Lock()
				if panicVal == nil {
					panicVal = r
				}
				panicMu.Unlock()
			}
		}()
		fn()
	}

	wg.Add(3)
	go check(func() { ownResult = a.ownChecker.Check(ctx, signals) })
	go check(func() { urlResult = a.urlChecker.Check(ctx, signals.URLs()) })
	go check(func() { intentScore = a.classifier.Classify(ctx, text) })
	wg.Wait()

	if panicVal != nil {
		panic(panicVal)
	}

	assessment = a.combiner.Combine(ownResult, urlResult, intentScore, signals.HasURLs())

	a.logger.Info().
		Str("assessment_id", assessment.ID.String()).
		Float64("final_score", assessment.FinalScore).
		Str("risk_level", string(assessment.RiskLevel)).
		Bool("is_scam", assessment.IsScam).
		Msg("message assessed")

	return assessment
}

// failedAssessment is the canonical fail-open verdict: zero risk, flagged
// internally as degraded so operators can spot silent fallbacks
func (a *MessageAssessor) failedAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		ID:              uuid.New(),
		FinalScore:      0,
		RiskLevel:       models.RiskLevelLow,
		IsScam:          false,
		Confidence:      0,
		Reasons:         []string{analysisFailedReason},
		Recommendations: []string{"Treat this message with normal caution"},
		Degraded:        true,
		AssessedAt:      time.Now(),
	}
}

// Stats returns a snapshot of the running counters
func (a *MessageAssessor) Stats() AssessorStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}
