package services

import (
	"time"

	"github.com/google/uuid"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
)

// ScoreCombiner folds the individual check results into a final
// RiskAssessment. Pure computation: no I/O, no failure path.
type ScoreCombiner struct {
	dbWeight        float64
	intentWeight    float64
	highThreshold   float64
	mediumThreshold float64
	scamThreshold   float64
}

// NewScoreCombiner creates a new score combiner
func NewScoreCombiner(cfg config.RiskConfig) *ScoreCombiner {
	c := &ScoreCombiner{
		dbWeight:        cfg.DBWeight,
		intentWeight:    cfg.IntentWeight,
		highThreshold:   cfg.HighThreshold,
		mediumThreshold: cfg.MediumThreshold,
		scamThreshold:   cfg.ScamThreshold,
	}
	if c.dbWeight == 0 && c.intentWeight == 0 {
		c.dbWeight = 0.6
		c.intentWeight = 0.4
	}
	if c.highThreshold == 0 {
		c.highThreshold = 0.8
	}
	if c.mediumThreshold == 0 {
		c.mediumThreshold = 0.5
	}
	if c.scamThreshold == 0 {
		c.scamThreshold = 0.6
	}
	return c
}

// Combine merges the database checks and the intent score. The external DB
// score is zero when the message carried no links. Reasons keep the fixed
// order: own database, URL scan, then intent.
func (c *ScoreCombiner) Combine(own models.CheckResult, urlScan models.CheckResult, intent models.IntentScore, hasLinks bool) *models.RiskAssessment {
	combinedDB := (own.Score + urlScan.Score) / 2
	finalScore := combinedDB*c.dbWeight + intent.Score*c.intentWeight

	riskLevel := models.RiskLevelLow
	switch {
	case finalScore >= c.highThreshold:
		riskLevel = models.RiskLevelHigh
	case finalScore >= c.mediumThreshold:
		riskLevel = models.RiskLevelMedium
	}

	confidence := finalScore + 0.1
	if confidence > 1.0 {
		confidence = 1.0
	}

	reasons := make([]string, 0, len(own.Reasons)+len(urlScan.Reasons)+len(intent.Reasons))
	reasons = append(reasons, own.Reasons...)
	reasons = append(reasons, urlScan.Reasons...)
	reasons = append(reasons, intent.Reasons...)

	return &models.RiskAssessment{
		ID:              uuid.New(),
		FinalScore:      finalScore,
		RiskLevel:       riskLevel,
		IsScam:          finalScore >= c.scamThreshold,
		Confidence:      confidence,
		Reasons:         reasons,
		Recommendations: c.recommendations(riskLevel, hasLinks, own.Score, intent.Score),
		Breakdown: models.ScoreBreakdown{
			OwnDBScore:      own.Score,
			ExternalDBScore: urlScan.Score,
			CombinedDBScore: combinedDB,
			IntentScore:     intent.Score,
			HasLinks:        hasLinks,
		},
		AssessedAt: time.Now(),
	}
}

// recommendations builds ordered action guidance keyed by risk level and
// whether the message carried links, with supplementary lines for strong
// individual signals
func (c *ScoreCombiner) recommendations(level models.RiskLevel, hasLinks bool, ownScore, intentScore float64) []string {
	var recs []string

	switch level {
	case models.RiskLevelHigh:
		recs = append(recs, "Do not respond to this message")
		if hasLinks {
			recs = append(recs, "Do not click any links in this message")
		}
		recs = append(recs, "Block the sender and report them")
	case models.RiskLevelMedium:
		recs = append(recs, "Treat this message with caution")
		if hasLinks {
			recs = append(recs, "Avoid clicking links until you verify the sender")
		}
		recs = append(recs, "Verify the sender through an independent channel")
	default:
		recs = append(recs, "No strong risk signals detected")
		if hasLinks {
			recs = append(recs, "Check link destinations before clicking")
		}
	}

	if ownScore > 0 {
		recs = append(recs, "Identifier found in scam reputation database")
	}
	if intentScore > 0.5 {
		recs = append(recs, "Message content matches known scam patterns")
	}

	return recs
}
