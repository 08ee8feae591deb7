package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

const (
	claudeAPIURL = "https://api.anthropic.com/v1/messages"
	openAIAPIURL = "https://api.openai.com/v1/chat/completions"
)

// Client calls a large language model API to classify message intent
type Client struct {
	provider   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new intent classification client
func NewClient(cfg config.IntentConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	model := cfg.Model
	if model == "" {
		if cfg.Provider == "openai" {
			model = "gpt-4-turbo"
		} else {
			model = "claude-3-5-haiku-20241022"
		}
	}

	return &Client{
		provider: cfg.Provider,
		apiKey:   cfg.APIKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithComponent("intent-client"),
	}
}

const intentSystemPrompt = `You are an expert scam detection analyst. Classify the intent of the message you are given.

Respond in valid JSON with exactly this structure:
{
  "category": "phishing|financial_scam|lottery_scam|romance_scam|tech_support_scam|investment_scam|impersonation|legitimate|unknown",
  "confidence": 0.0-1.0,
  "is_scam": boolean,
  "reasoning": "one or two sentences explaining the verdict"
}

Guidelines:
1. Look for urgency tactics, emotional manipulation, and pressure to act
2. Identify requests for money, gift cards, cryptocurrency, or personal data
3. Recognize impersonation of trusted brands or authorities
4. A routine, benign message is "legitimate" with is_scam false
5. Be conservative with confidence when signals are weak`

// Classify sends the message text for intent classification
func (c *Client) Classify(ctx context.Context, text string) (*models.IntentResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("intent API key not configured")
	}

	userPrompt := fmt.Sprintf("Classify this message for scam intent:\n\n%s\n\nRespond in JSON.", text)

	var content string
	var err error

	switch c.provider {
	case "claude":
		content, err = c.callClaude(ctx, userPrompt)
	case "openai":
		content, err = c.callOpenAI(ctx, userPrompt)
	default:
		return nil, fmt.Errorf("unsupported intent provider: %s", c.provider)
	}
	if err != nil {
		return nil, err
	}

	result, err := parseIntentResponse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}

	c.logger.Debug().
		Str("category", string(result.Category)).
		Float64("confidence", result.Confidence).
		Bool("is_scam", result.IsScam).
		Msg("intent classified")

	return result, nil
}

func (c *Client) callClaude(ctx context.Context, userPrompt string) (string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"max_tokens":  1024,
		"temperature": 0.2,
		"system":      intentSystemPrompt,
		"messages": []map[string]any{
			{"role": "user", "content": userPrompt},
		},
	}

	body, err := c.post(ctx, claudeAPIURL, reqBody, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", err
	}

	var content string
	for _, part := range claudeResp.Content {
		if part.Type == "text" {
			content += part.Text
		}
	}
	return content, nil
}

func (c *Client) callOpenAI(ctx context.Context, userPrompt string) (string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"max_tokens":  1024,
		"temperature": 0.2,
		"messages": []map[string]any{
			{"role": "system", "content": intentSystemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	body, err := c.post(ctx, openAIAPIURL, reqBody, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", err
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return openAIResp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, reqBody any, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// parseIntentResponse extracts the JSON verdict from a model response that
// may wrap it in markdown fences or prose
func parseIntentResponse(content string) (*models.IntentResult, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return nil, fmt.Errorf("no JSON found in response")
	}
	content = content[startIdx : endIdx+1]

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		IsScam     bool    `json:"is_scam"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, err
	}

	category := models.IntentCategory(parsed.Category)
	if category == "" {
		category = models.IntentCategoryUnknown
	}

	return &models.IntentResult{
		Category:   category,
		Confidence: parsed.Confidence,
		IsScam:     parsed.IsScam,
		Reasoning:  parsed.Reasoning,
	}, nil
}
