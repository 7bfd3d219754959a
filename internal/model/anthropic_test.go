package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/errors"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultAnthropicConfig("sk-test")
	cfg.BaseURL = srv.URL
	cfg.HTTPClient = srv.Client()
	cfg.Breaker = &errors.CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour}
	return NewAnthropicClient(cfg)
}

const okBody = `{
  "id": "msg_1",
  "model": "claude-haiku-4-5-20251001",
  "content": [{"type": "text", "text": "Hello, Sir."}],
  "usage": {"input_tokens": 12, "output_tokens": 4, "cache_read_input_tokens": 900, "cache_creation_input_tokens": 0}
}`

func TestAnthropicGenerateWithPromptCaching(t *testing.T) {
	var got map[string]any
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "prompt-caching-2024-07-31", r.Header.Get("anthropic-beta"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(okBody))
	})

	resp, err := client.Generate(context.Background(), &Request{
		Model:       "claude-sonnet-4-5-20250929",
		System:      "You are Vilya.",
		Prompt:      "Design a cache",
		MaxTokens:   4000,
		CacheSystem: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello, Sir.", resp.Text)
	assert.Equal(t, 900, resp.Usage.CacheReadInputTokens)
	assert.Equal(t, "claude-sonnet-4-5-20250929", got["model"])
	assert.Equal(t, float64(4000), got["max_tokens"])

	system, ok := got["system"].([]any)
	require.True(t, ok, "system should be a block list")
	block := system[0].(map[string]any)
	assert.Equal(t, "You are Vilya.", block["text"])
	assert.Equal(t, map[string]any{"type": "ephemeral"}, block["cache_control"])
}

func TestAnthropicPlainSystemPrompt(t *testing.T) {
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("anthropic-beta"))
		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "be brief", got["system"])
		assert.Equal(t, float64(defaultMaxTokens), got["max_tokens"])
		w.Write([]byte(okBody))
	})

	_, err := client.Generate(context.Background(), &Request{Model: "m", System: "be brief", Prompt: "hi"})
	require.NoError(t, err)
}

func TestAnthropicStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		category errors.Category
	}{
		{"rate limited", http.StatusTooManyRequests, errors.CodeModelRateLimit, errors.CategoryRateLimit},
		{"unauthorized", http.StatusUnauthorized, errors.CodeModelUnavailable, errors.CategoryUser},
		{"bad request", http.StatusBadRequest, errors.CodeModelInvalidResponse, errors.CategoryUser},
		{"overloaded", 529, errors.CodeModelUnavailable, errors.CategoryTemporary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"type":"error"}`))
			})
			_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Equal(t, tt.category, errors.GetCategory(err))
		})
	}
}

func TestAnthropicNoTextBlock(t *testing.T) {
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": []}`))
	})
	_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
	assert.Equal(t, errors.CodeModelInvalidResponse, errors.GetCode(err))
}

func TestAnthropicBreakerOpensWithoutCallingProvider(t *testing.T) {
	calls := 0
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for range 2 {
		_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
		require.Error(t, err)
	}
	_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, errors.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "open", client.Status().Breaker)
}

func TestAnthropicCallerErrorsKeepBreakerClosed(t *testing.T) {
	calls := 0
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error"}`))
	})

	for range 5 {
		_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, errors.ErrCircuitOpen)
	}
	assert.Equal(t, 5, calls)
	assert.Equal(t, "closed", client.Status().Breaker)
}

func TestAnthropicWithoutKey(t *testing.T) {
	client := NewAnthropicClient(DefaultAnthropicConfig(""))
	assert.False(t, client.IsAvailable())

	_, err := client.Generate(context.Background(), &Request{Model: "m", Prompt: "p"})
	assert.Equal(t, errors.CodeModelUnavailable, errors.GetCode(err))
	assert.Equal(t, errors.CategorySystem, errors.GetCategory(err))
}
