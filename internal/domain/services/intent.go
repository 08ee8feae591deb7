package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// keywordFamily is one weighted group of scam-indicative keywords
type keywordFamily struct {
	name     string
	keywords []string
	weight   float64
	category models.IntentCategory
}

// IntentClassifier determines whether a message reads like a scam. The
// primary path is a remote AI classifier; when it is unavailable, slow, or
// not confident enough, a local keyword-weighted scorer takes over. The
// fallback never errors, so intent classification always yields a score.
type IntentClassifier struct {
	client        IntentClient
	timeout       time.Duration
	minConfidence float64
	families      []keywordFamily
	logger        *logger.Logger
}

// NewIntentClassifier creates a new intent classifier. The client may be nil,
// in which case only the rule-based path runs.
func NewIntentClassifier(client IntentClient, cfg config.IntentConfig, log *logger.Logger) *IntentClassifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	minConfidence := cfg.MinConfidence
	if minConfidence == 0 {
		minConfidence = 0.4
	}

	return &IntentClassifier{
		client:        client,
		timeout:       timeout,
		minConfidence: minConfidence,
		families: []keywordFamily{
			{name: "financial request", keywords: lowered(cfg.FinancialKeywords), weight: cfg.FinancialWeight, category: models.IntentCategoryFinancial},
			{name: "prize or lottery bait", keywords: lowered(cfg.GiftKeywords), weight: cfg.GiftWeight, category: models.IntentCategoryLottery},
			{name: "urgency pressure", keywords: lowered(cfg.UrgencyKeywords), weight: cfg.UrgencyWeight, category: models.IntentCategoryUnknown},
			{name: "personal information request", keywords: lowered(cfg.PersonalInfoKeywords), weight: cfg.PersonalInfoWeight, category: models.IntentCategoryPhishing},
		},
		logger: log.WithComponent("intent-classifier"),
	}
}

// Classify scores the message's intent. The remote verdict is accepted only
// above the confidence floor; everything else falls through to the
// rule-based scorer.
func (c *IntentClassifier) Classify(ctx context.Context, text string) models.IntentScore {
	if c.client != nil {
		classifyCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := c.client.Classify(classifyCtx, text)
		cancel()

		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("remote intent classification failed, using rule-based fallback")
		case result.Confidence <= c.minConfidence:
			c.logger.Debug().
				Float64("confidence", result.Confidence).
				Msg("remote intent confidence too low, using rule-based fallback")
		default:
			score := 0.2
			if result.IsScam {
				score = 0.8
			}
			return models.IntentScore{
				Score:      score,
				Category:   result.Category,
				Confidence: result.Confidence,
				Reasons:    []string{result.Reasoning},
			}
		}
	}

	return c.classifyRuleBased(text)
}

// classifyRuleBased accumulates matchCount*weight per keyword family,
// capped at 1.0. Purely local, never errors.
func (c *IntentClassifier) classifyRuleBased(text string) models.IntentScore {
	textLower := strings.ToLower(text)

	score := 0.0
	category := models.IntentCategoryLegitimate
	topContribution := 0.0
	reasons := []string{"rule-based analysis used"}

	for _, family := range c.families {
		matches := countMatches(textLower, family.keywords)
		if matches == 0 {
			continue
		}

		contribution := float64(matches) * family.weight
		score += contribution
		reasons = append(reasons, fmt.Sprintf("%d %s keyword(s) detected", matches, family.name))

		if contribution > topContribution && family.category != models.IntentCategoryUnknown {
			topContribution = contribution
			category = family.category
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	if score > 0 && category == models.IntentCategoryLegitimate {
		category = models.IntentCategoryUnknown
	}

	return models.IntentScore{
		Score:      score,
		Category:   category,
		Confidence: 0.5,
		Reasons:    reasons,
	}
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func lowered(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
