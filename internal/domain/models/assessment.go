package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ExtractedSignals holds the identifying signals pulled out of a message.
// All three collections have set semantics: duplicates are removed by value.
type ExtractedSignals struct {
	phones map[string]struct{}
	emails map[string]struct{}
	urls   map[string]struct{}
}

// NewExtractedSignals creates an empty signal set
func NewExtractedSignals() *ExtractedSignals {
	return &ExtractedSignals{
		phones: make(map[string]struct{}),
		emails: make(map[string]struct{}),
		urls:   make(map[string]struct{}),
	}
}

// AddPhone adds a phone number to the set
func (s *ExtractedSignals) AddPhone(phone string) { s.phones[phone] = struct{}{} }

// AddEmail adds an email address to the set
func (s *ExtractedSignals) AddEmail(email string) { s.emails[email] = struct{}{} }

// AddURL adds a URL to the set
func (s *ExtractedSignals) AddURL(url string) { s.urls[url] = struct{}{} }

// PhoneNumbers returns the extracted phone numbers, sorted for determinism
func (s *ExtractedSignals) PhoneNumbers() []string { return sortedKeys(s.phones) }

// Emails returns the extracted email addresses, sorted for determinism
func (s *ExtractedSignals) Emails() []string { return sortedKeys(s.emails) }

// URLs returns the extracted URLs, sorted for determinism
func (s *ExtractedSignals) URLs() []string { return sortedKeys(s.urls) }

// HasURLs reports whether any URL was extracted
func (s *ExtractedSignals) HasURLs() bool { return len(s.urls) > 0 }

// Empty reports whether no signal of any kind was extracted
func (s *ExtractedSignals) Empty() bool {
	return len(s.phones) == 0 && len(s.emails) == 0 && len(s.urls) == 0
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IntentCategory is a scam archetype assigned by intent classification
type IntentCategory string

const (
	IntentCategoryPhishing      IntentCategory = "phishing"
	IntentCategoryFinancial     IntentCategory = "financial_scam"
	IntentCategoryLottery       IntentCategory = "lottery_scam"
	IntentCategoryRomance       IntentCategory = "romance_scam"
	IntentCategoryTechSupport   IntentCategory = "tech_support_scam"
	IntentCategoryInvestment    IntentCategory = "investment_scam"
	IntentCategoryImpersonation IntentCategory = "impersonation"
	IntentCategoryLegitimate    IntentCategory = "legitimate"
	IntentCategoryUnknown       IntentCategory = "unknown"
)

// IntentResult is the verdict of the remote intent classifier
type IntentResult struct {
	Category   IntentCategory `json:"category"`
	Confidence float64        `json:"confidence"`
	IsScam     bool           `json:"is_scam"`
	Reasoning  string         `json:"reasoning"`
}

// UrlScanSummary aggregates the verdicts of an external URL scan
type UrlScanSummary struct {
	TotalUrls      int `json:"total_urls"`
	MaliciousUrls  int `json:"malicious_urls"`
	SuspiciousUrls int `json:"suspicious_urls"`
	SafeUrls       int `json:"safe_urls"`
}

// CheckResult is the normalized output of a reputation check
type CheckResult struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// IntentScore is the normalized output of intent classification,
// identical in shape for the remote and rule-based paths
type IntentScore struct {
	Score      float64        `json:"score"`
	Category   IntentCategory `json:"category"`
	Confidence float64        `json:"confidence"`
	Reasons    []string       `json:"reasons"`
}

// RiskLevel buckets a final score for human consumption
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ScoreBreakdown exposes the individual signal scores behind an assessment
type ScoreBreakdown struct {
	OwnDBScore      float64 `json:"own_db_score"`
	ExternalDBScore float64 `json:"external_db_score"`
	CombinedDBScore float64 `json:"combined_db_score"`
	IntentScore     float64 `json:"intent_score"`
	HasLinks        bool    `json:"has_links"`
}

// RiskAssessment is the final verdict for one message.
// Degraded marks assessments produced by the fail-open path so operators
// can detect silent fallbacks; callers still receive a complete verdict.
type RiskAssessment struct {
	ID              uuid.UUID      `json:"id"`
	FinalScore      float64        `json:"final_score"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	IsScam          bool           `json:"is_scam"`
	Confidence      float64        `json:"confidence"`
	Reasons         []string       `json:"reasons"`
	Recommendations []string       `json:"recommendations"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Degraded        bool           `json:"-"`
	AssessedAt      time.Time      `json:"assessed_at"`
}
