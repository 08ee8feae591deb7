package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scamshield/internal/domain/models"
)

func newURLChecker(client URLScanClient) *UrlReputationChecker {
	return NewUrlReputationChecker(client, nil, time.Second, time.Minute, testLogger())
}

func TestUrlReputationChecker_NoURLs(t *testing.T) {
	client := &fakeURLScanClient{}
	c := newURLChecker(client)

	got := c.Check(context.Background(), nil)

	assert.Equal(t, 0.0, got.Score)
	assert.Empty(t, got.Reasons)
	assert.Equal(t, 0, client.calls)
}

func TestUrlReputationChecker_ScoreMapping(t *testing.T) {
	tests := []struct {
		name       string
		summary    *models.UrlScanSummary
		wantScore  float64
		wantReason string
	}{
		{
			name:       "malicious dominates",
			summary:    &models.UrlScanSummary{TotalUrls: 3, MaliciousUrls: 1, SuspiciousUrls: 1, SafeUrls: 1},
			wantScore:  1.0,
			wantReason: "1 of 3 URLs flagged as malicious",
		},
		{
			name:       "suspicious scores moderately",
			summary:    &models.UrlScanSummary{TotalUrls: 2, SuspiciousUrls: 2},
			wantScore:  0.6,
			wantReason: "2 of 2 URLs look suspicious",
		},
		{
			name:      "all safe scores zero",
			summary:   &models.UrlScanSummary{TotalUrls: 2, SafeUrls: 2},
			wantScore: 0,
		},
		{
			name:       "unknown verdicts are inconclusive",
			summary:    &models.UrlScanSummary{TotalUrls: 2, SafeUrls: 1},
			wantScore:  0.3,
			wantReason: "URL reputation inconclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeURLScanClient{summary: tt.summary}
			c := newURLChecker(client)

			got := c.Check(context.Background(), []string{"https://a.example.com", "https://b.example.com"})

			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			if tt.wantReason == "" {
				assert.Empty(t, got.Reasons)
			} else {
				assert.Equal(t, []string{tt.wantReason}, got.Reasons)
			}
		})
	}
}

func TestUrlReputationChecker_ScanFailure(t *testing.T) {
	client := &fakeURLScanClient{err: fmt.Errorf("scanner down")}
	c := newURLChecker(client)

	got := c.Check(context.Background(), []string{"https://a.example.com"})

	assert.Equal(t, 0.3, got.Score)
	assert.Equal(t, []string{"URL scanning unavailable"}, got.Reasons)
}

func TestUrlReputationChecker_PassesURLsThrough(t *testing.T) {
	client := &fakeURLScanClient{summary: &models.UrlScanSummary{TotalUrls: 2, SafeUrls: 2}}
	c := newURLChecker(client)

	urls := []string{"https://a.example.com", "https://b.example.com"}
	c.Check(context.Background(), urls)

	assert.Equal(t, urls, client.gotURLs)
}
