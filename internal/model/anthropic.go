package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flynn-ai/jarvis/internal/errors"
)

const (
	anthropicVersion    = "2023-06-01"
	promptCachingBeta   = "prompt-caching-2024-07-31"
	maxResponseBody     = 4 << 20
	defaultMaxTokens    = 1024
	defaultAnthropicURL = "https://api.anthropic.com"
)

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // Default: https://api.anthropic.com
	Timeout time.Duration

	// HTTPClient overrides the transport, for tests
	HTTPClient *http.Client

	// Breaker overrides the circuit breaker settings
	Breaker *errors.CircuitBreakerConfig
}

// DefaultAnthropicConfig returns default configuration for Anthropic.
func DefaultAnthropicConfig(apiKey string) *AnthropicConfig {
	return &AnthropicConfig{
		APIKey:  apiKey,
		BaseURL: defaultAnthropicURL,
		Timeout: 30 * time.Second,
	}
}

// AnthropicClient implements Model using the Anthropic Messages API.
// Requests are guarded by a circuit breaker and never retried.
type AnthropicClient struct {
	cfg            *AnthropicConfig
	client         *http.Client
	circuitBreaker *errors.CircuitBreaker
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg *AnthropicConfig) *AnthropicClient {
	if cfg == nil {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	cbConfig := cfg.Breaker
	if cbConfig == nil {
		cbConfig = &errors.CircuitBreakerConfig{
			MaxFailures:      5,
			ResetTimeout:     60 * time.Second,
			HalfOpenAttempts: 1,
		}
	}

	return &AnthropicClient{
		cfg:            cfg,
		client:         httpClient,
		circuitBreaker: errors.NewCircuitBreaker("anthropic", cbConfig),
	}
}

// Generate sends a prompt to the Messages API and returns the first text block.
func (c *AnthropicClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if !c.IsAvailable() {
		return nil, errors.NewBuilder(errors.CodeModelUnavailable, "Anthropic API key not configured").
			System().
			WithSuggestion("Set ANTHROPIC_API_KEY or models.api_key in config.toml").
			Build()
	}

	var result *Response
	err := c.circuitBreaker.Execute(func() error {
		var err error
		result, err = c.send(ctx, req)
		return err
	})
	return result, err
}

func (c *AnthropicClient) send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	jsonBody, err := json.Marshal(buildMessagesRequest(req))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelInvalidResponse, "failed to marshal request", errors.CategoryPermanent)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelUnavailable, "failed to create HTTP request", errors.CategoryPermanent)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if req.CacheSystem && req.System != "" {
		httpReq.Header.Set("anthropic-beta", promptCachingBeta)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.CodeModelTimeout, "request cancelled or timed out", errors.CategoryTemporary)
		}
		return nil, errors.Wrap(err, errors.CodeModelUnavailable, "network request failed", errors.CategoryTemporary)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelUnavailable, "failed to read response body", errors.CategoryTemporary)
	}

	if err := statusError(resp, body); err != nil {
		return nil, err
	}

	var msg messagesResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, errors.NewBuilder(errors.CodeModelParseError, "failed to parse API response").
			Permanent().
			Wrap(err).
			WithContext("response_body", string(body)).
			Build()
	}

	text, ok := msg.firstText()
	if !ok {
		return nil, errors.New(errors.CodeModelInvalidResponse, "API response contained no text block", errors.CategoryPermanent)
	}

	return &Response{
		Text:  text,
		Model: msg.Model,
		Usage: Usage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
		},
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// statusError maps non-2xx responses to AppErrors.
func statusError(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 30 * time.Second
		if s, err := strconv.Atoi(resp.Header.Get("retry-after")); err == nil && s > 0 {
			retryAfter = time.Duration(s) * time.Second
		}
		return errors.RateLimit(errors.CodeModelRateLimit, "rate limited by Anthropic", retryAfter)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.NewBuilder(errors.CodeModelUnavailable, "invalid API key").
			User().
			WithSuggestion("Check your Anthropic API key").
			Build()
	case resp.StatusCode == http.StatusBadRequest:
		return errors.NewBuilder(errors.CodeModelInvalidResponse, "bad request - check model name and parameters").
			User().
			WithContext("response", string(body)).
			Build()
	default:
		return errors.Temporary(errors.CodeModelUnavailable, fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)))
	}
}

// IsAvailable checks if the client has credentials.
func (c *AnthropicClient) IsAvailable() bool {
	return c != nil && c.cfg != nil && c.cfg.APIKey != ""
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Status returns the provider status.
func (c *AnthropicClient) Status() *ModelStatus {
	status := &ModelStatus{
		Name:      c.Name(),
		Available: c.IsAvailable(),
	}
	if c != nil && c.circuitBreaker != nil {
		status.Breaker = c.circuitBreaker.State().String()
	}
	return status
}

// ============================================================
// Messages API Types
// ============================================================

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    any       `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

func buildMessagesRequest(req *Request) *messagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	out := &messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
	}

	if req.System != "" {
		if req.CacheSystem {
			out.System = []systemBlock{{
				Type:         "text",
				Text:         req.System,
				CacheControl: &cacheControl{Type: "ephemeral"},
			}}
		} else {
			out.System = req.System
		}
	}
	return out
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	} `json:"usage"`
}

func (m *messagesResponse) firstText() (string, bool) {
	for _, block := range m.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}
