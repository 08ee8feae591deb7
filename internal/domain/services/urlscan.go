package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/cache"
	"scamshield/pkg/logger"
)

const urlScanUnavailableReason = "URL scanning unavailable"

// UrlReputationChecker scores the URLs in a message via an external scanning
// service, with Redis caching keyed by the URL set. The checker never fails
// an assessment: scan errors degrade to a mild default score.
type UrlReputationChecker struct {
	client   URLScanClient
	cache    *cache.RedisCache
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewUrlReputationChecker creates a new URL reputation checker. The cache
// may be nil, in which case every check hits the scanning service.
func NewUrlReputationChecker(client URLScanClient, redis *cache.RedisCache, timeout, cacheTTL time.Duration, log *logger.Logger) *UrlReputationChecker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	return &UrlReputationChecker{
		client:   client,
		cache:    redis,
		timeout:  timeout,
		cacheTTL: cacheTTL,
		logger:   log.WithComponent("url-reputation"),
	}
}

// Check scans the given URLs and maps the summary onto a risk score:
// any malicious URL dominates, suspicious URLs score moderately, a fully
// safe set scores zero. With no URLs there is nothing to do and the score
// is zero without calling the scanner.
func (c *UrlReputationChecker) Check(ctx context.Context, urls []string) models.CheckResult {
	if len(urls) == 0 {
		return models.CheckResult{Score: 0, Reasons: []string{}}
	}

	summary, err := c.scan(ctx, urls)
	if err != nil {
		c.logger.Warn().Err(err).Int("url_count", len(urls)).Msg("URL scan failed")
		return models.CheckResult{Score: 0.3, Reasons: []string{urlScanUnavailableReason}}
	}

	return summaryToResult(summary)
}

func (c *UrlReputationChecker) scan(ctx context.Context, urls []string) (*models.UrlScanSummary, error) {
	key := urlSetHash(urls)

	if c.cache != nil {
		var cached models.UrlScanSummary
		if err := c.cache.GetCachedURLScan(ctx, key, &cached); err == nil {
			c.logger.Debug().Str("key", key).Msg("URL scan cache hit")
			return &cached, nil
		}
	}

	scanCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	summary, err := c.client.ScanURLs(scanCtx, urls)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.CacheURLScan(ctx, key, summary, c.cacheTTL); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache URL scan result")
		}
	}

	return summary, nil
}

func summaryToResult(s *models.UrlScanSummary) models.CheckResult {
	switch {
	case s.MaliciousUrls > 0:
		return models.CheckResult{
			Score: 1.0,
			Reasons: []string{fmt.Sprintf(
				"%d of %d URLs flagged as malicious", s.MaliciousUrls, s.TotalUrls,
			)},
		}
	case s.SuspiciousUrls > 0:
		return models.CheckResult{
			Score: 0.6,
			Reasons: []string{fmt.Sprintf(
				"%d of %d URLs look suspicious", s.SuspiciousUrls, s.TotalUrls,
			)},
		}
	case s.SafeUrls == s.TotalUrls:
		return models.CheckResult{Score: 0, Reasons: []string{}}
	default:
		return models.CheckResult{
			Score:   0.3,
			Reasons: []string{"URL reputation inconclusive"},
		}
	}
}

// urlSetHash derives a stable cache key from a URL set. Callers pass sorted
// URLs, so identical sets hash identically.
func urlSetHash(urls []string) string {
	h := sha256.Sum256([]byte(strings.Join(urls, "\n")))
	return hex.EncodeToString(h[:])
}
