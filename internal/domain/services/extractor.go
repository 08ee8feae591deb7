package services

import (
	"net/url"
	"regexp"
	"strings"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// SignalExtractor pulls phone numbers, email addresses, and URLs out of
// free-form message text using regex patterns. Extraction is deterministic
// and performs no I/O.
type SignalExtractor struct {
	phonePatterns []*regexp.Regexp
	emailPattern  *regexp.Regexp
	urlPatterns   []*regexp.Regexp
	logger        *logger.Logger
}

// NewSignalExtractor creates a new signal extractor
func NewSignalExtractor(log *logger.Logger) *SignalExtractor {
	se := &SignalExtractor{
		logger: log.WithComponent("signal-extractor"),
	}

	se.compilePatterns()

	return se
}

func (se *SignalExtractor) compilePatterns() {
	// Phone numbers: international E.164-ish, regional formats with
	// separators, and numbers introduced by messenger context words
	se.phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{3,4}`),
		regexp.MustCompile(`\b\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b`),
		regexp.MustCompile(`(?i)(?:whatsapp|telegram|call|text|sms)(?:\s+(?:me|us|at|on|to))?\s*:?\s*(\+?\d[\d\s.-]{7,14}\d)`),
	}

	se.emailPattern = regexp.MustCompile(
		`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`,
	)

	// URLs: explicit scheme, www-prefixed, and bare domains with common TLDs
	se.urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhttps?://[^\s<>"'\)]+`),
		regexp.MustCompile(`(?i)\bwww\.[^\s<>"'\)]+`),
		regexp.MustCompile(`(?i)\b[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*\.(?:com|net|org|info|biz|io|co|xyz|top|online|site|club|shop|live|vip|link|click)(?:/[^\s<>"'\)]*)?`),
	}
}

// Extract pulls all identifying signals from text. Duplicate values are
// collapsed; URLs are normalized so bare domains carry an https:// prefix.
func (se *SignalExtractor) Extract(text string) *models.ExtractedSignals {
	signals := models.NewExtractedSignals()

	var phoneCandidates []string
	for _, pattern := range se.phonePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			value := match[0]
			// Context patterns capture the number itself in group 1
			if len(match) > 1 && match[1] != "" {
				value = match[1]
			}
			if phone := normalizePhone(value); phone != "" {
				phoneCandidates = append(phoneCandidates, phone)
			}
		}
	}
	for _, phone := range dedupePhones(phoneCandidates) {
		signals.AddPhone(phone)
	}

	for _, match := range se.emailPattern.FindAllString(text, -1) {
		signals.AddEmail(strings.ToLower(match))
	}

	// Patterns run specific to general; spans already claimed by an earlier
	// pattern are skipped so a bare-domain match never duplicates a full URL
	var claimed [][2]int
	for _, pattern := range se.urlPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if overlapsAny(claimed, loc[0], loc[1]) {
				continue
			}
			// A domain right after '@' is the host part of an email address
			if loc[0] > 0 && text[loc[0]-1] == '@' {
				continue
			}
			if u := normalizeURL(text[loc[0]:loc[1]]); u != "" {
				signals.AddURL(u)
				claimed = append(claimed, [2]int{loc[0], loc[1]})
			}
		}
	}

	se.logger.Debug().
		Int("phones", len(signals.PhoneNumbers())).
		Int("emails", len(signals.Emails())).
		Int("urls", len(signals.URLs())).
		Msg("signals extracted")

	return signals
}

// normalizePhone strips separators and rejects matches too short to be a
// dialable number
func normalizePhone(value string) string {
	var b strings.Builder
	for _, c := range value {
		if c == '+' || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	phone := b.String()

	digits := len(phone)
	if strings.HasPrefix(phone, "+") {
		digits--
	}
	if digits < 7 || digits > 15 {
		return ""
	}

	return phone
}

// normalizeURL trims trailing punctuation and prefixes scheme-less URLs
// with https:// so downstream lookups see a parseable URL. Scheme and host
// are lowercased; path and query are case-sensitive and kept as written.
func normalizeURL(value string) string {
	value = strings.TrimRight(value, ".,;:!?")
	if value == "" {
		return ""
	}

	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		value = "https://" + value
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return strings.ToLower(value)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return u.String()
}

// dedupePhones drops bare national matches whose digits duplicate the tail
// of an international match, so "+1 (555) 123-4567" yields one number
func dedupePhones(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, phone := range candidates {
		if !strings.HasPrefix(phone, "+") && hasInternationalSuperset(candidates, phone) {
			continue
		}
		out = append(out, phone)
	}
	return out
}

func hasInternationalSuperset(candidates []string, phone string) bool {
	for _, other := range candidates {
		if strings.HasPrefix(other, "+") && strings.HasSuffix(other, phone) {
			return true
		}
	}
	return false
}

func overlapsAny(claimed [][2]int, start, end int) bool {
	for _, span := range claimed {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}
