package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentifierType classifies what kind of identifier a reputation record tracks
type IdentifierType string

const (
	IdentifierTypePhone       IdentifierType = "phone"
	IdentifierTypeEmail       IdentifierType = "email"
	IdentifierTypeWebsite     IdentifierType = "website"
	IdentifierTypeSocialMedia IdentifierType = "social_media"
	IdentifierTypeOther       IdentifierType = "other"
)

// RecordStatus represents the lifecycle state of a reputation record
type RecordStatus string

const (
	RecordStatusPending       RecordStatus = "pending"
	RecordStatusVerified      RecordStatus = "verified"
	RecordStatusFalsePositive RecordStatus = "false_positive"
	RecordStatusInvestigating RecordStatus = "investigating"
)

// ReputationRecord is the aggregate, persisted judgment about one identifier.
// (type, identifier) is unique; report_count only increases; once verified
// the record is never re-scored by reconciliation.
type ReputationRecord struct {
	ID             uuid.UUID      `json:"id"`
	Type           IdentifierType `json:"type"`
	Identifier     string         `json:"identifier"`
	Status         RecordStatus   `json:"status"`
	ReportCount    int            `json:"report_count"`
	IsAutoVerified bool           `json:"is_auto_verified"`
	Description    string         `json:"description,omitempty"`
	ReportedBy     *string        `json:"reported_by,omitempty"`
	VerifiedBy     *string        `json:"verified_by,omitempty"`
	LastReportedAt time.Time      `json:"last_reported_at"`
	AutoVerifiedAt *time.Time     `json:"auto_verified_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ReportInstance records one (record, reporter) report. The uniqueness
// constraint on (record_id, reporter_id) prevents the same reporter
// inflating report_count twice for the same identifier.
type ReportInstance struct {
	ID          uuid.UUID `json:"id"`
	RecordID    uuid.UUID `json:"record_id"`
	ReporterID  string    `json:"reporter_id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CanonicalIdentifier lower-cases and trims an identifier so lookups and
// reports converge on a single key
func CanonicalIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// ParseIdentifierType maps a wire value to an IdentifierType, defaulting to other
func ParseIdentifierType(s string) IdentifierType {
	switch IdentifierType(strings.ToLower(s)) {
	case IdentifierTypePhone:
		return IdentifierTypePhone
	case IdentifierTypeEmail:
		return IdentifierTypeEmail
	case IdentifierTypeWebsite:
		return IdentifierTypeWebsite
	case IdentifierTypeSocialMedia:
		return IdentifierTypeSocialMedia
	default:
		return IdentifierTypeOther
	}
}

// AutoVerificationPolicy holds the per-type report-count thresholds used by
// the reconciliation engine. Loaded once at startup, read-only thereafter.
//
// UniqueReportersRequired and TimePeriodHours are parsed but not enforced by
// the count check; they are extension points for stricter policies.
type AutoVerificationPolicy struct {
	Enabled                 bool `json:"enabled"`
	PhoneThreshold          int  `json:"phone_threshold"`
	EmailThreshold          int  `json:"email_threshold"`
	WebsiteThreshold        int  `json:"website_threshold"`
	SocialMediaThreshold    int  `json:"social_media_threshold"`
	OtherThreshold          int  `json:"other_threshold"`
	UniqueReportersRequired int  `json:"unique_reporters_required,omitempty"`
	TimePeriodHours         int  `json:"time_period_hours,omitempty"`
}

// ThresholdFor returns the promotion threshold for an identifier type
func (p AutoVerificationPolicy) ThresholdFor(t IdentifierType) int {
	switch t {
	case IdentifierTypePhone:
		return p.PhoneThreshold
	case IdentifierTypeEmail:
		return p.EmailThreshold
	case IdentifierTypeWebsite:
		return p.WebsiteThreshold
	case IdentifierTypeSocialMedia:
		return p.SocialMediaThreshold
	default:
		return p.OtherThreshold
	}
}
