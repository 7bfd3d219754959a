// Package protocol provides the wire types shared by the JARVIS brain
// service, the voice front-end and the CLI.
package protocol

import "time"

// CommandRequest is a natural language command sent to the brain.
type CommandRequest struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

// CommandResponse is the brain's answer to a command.
type CommandResponse struct {
	Success    bool        `json:"success"`
	Response   string      `json:"response"`
	Intent     string      `json:"intent,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Complexity float64     `json:"complexity,omitempty"`
	Usage      *UsageStats `json:"cost_stats,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Error      string      `json:"error,omitempty"`
}

// UsageStats reports completion API usage and estimated cost.
type UsageStats struct {
	TotalCalls               int64   `json:"total_calls"`
	FastCalls                int64   `json:"fast_calls"`
	AdvancedCalls            int64   `json:"advanced_calls"`
	CacheHits                int64   `json:"cache_hits"`
	CacheSize                int     `json:"cache_size"`
	EstimatedCostUSD         float64 `json:"estimated_cost_usd"`
	FastPercentage           float64 `json:"fast_percentage"`
	PromptCacheReadTokens    int64   `json:"prompt_cache_read_tokens"`
	PromptCacheCreatedTokens int64   `json:"prompt_cache_creation_tokens"`
}

// HistoryRecord is one processed command.
type HistoryRecord struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	User       string         `json:"user"`
	Context    map[string]any `json:"context,omitempty"`
	Intent     string         `json:"intent,omitempty"`
	Complexity float64        `json:"complexity,omitempty"`
	Assistant  string         `json:"assistant,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// HistoryResponse is returned by the conversation history endpoint.
type HistoryResponse struct {
	Success bool            `json:"success"`
	History []HistoryRecord `json:"history"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
}

// Ring describes a specialist agent.
type Ring struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
	Triggers     []string `json:"triggers"`
}

// RingsResponse lists the loaded specialists.
type RingsResponse struct {
	Success bool   `json:"success"`
	Rings   []Ring `json:"rings"`
	Count   int    `json:"count"`
}

// CostStatsResponse is returned by the usage endpoint.
type CostStatsResponse struct {
	Success   bool       `json:"success"`
	Stats     UsageStats `json:"stats"`
	Timestamp time.Time  `json:"timestamp"`
}

// StatusResponse describes the running brain.
type StatusResponse struct {
	Status             string        `json:"status"`
	User               string        `json:"user"`
	RingsLoaded        int           `json:"rings_loaded"`
	Rings              []string      `json:"rings"`
	ConversationLength int           `json:"conversation_history_length"`
	KnowledgeEndpoint  string        `json:"archon_mcp_url"`
	ModelAvailable     bool          `json:"model_available"`
	Breaker            string        `json:"breaker,omitempty"`
	Requests           *RequestStats `json:"requests,omitempty"`
	Timestamp          time.Time     `json:"timestamp"`
}

// RequestStats summarizes processed commands.
type RequestStats struct {
	Uptime       string  `json:"uptime"`
	RequestCount int64   `json:"request_count"`
	ErrorCount   int64   `json:"error_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	Goroutines   int     `json:"goroutines"`
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
}

// Health is returned by /health on both services. The voice service also
// reports whether speech is available and where the brain lives.
type Health struct {
	Status          string    `json:"status"`
	Service         string    `json:"service"`
	Version         string    `json:"version,omitempty"`
	Message         string    `json:"message,omitempty"`
	OpenAIAvailable *bool     `json:"openai_available,omitempty"`
	BrainURL        string    `json:"jarvis_url,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Message types on the websocket command channel.
const (
	MessageCommand  = "command"
	MessageProgress = "progress"
	MessageResponse = "response"
	MessageError    = "error"
)

// Message is a websocket frame. Commands carry Text and Context; progress
// frames carry Stage, Specialist and Text; responses carry Response.
// The server echoes the command ID on every frame it sends for it.
type Message struct {
	Type       string           `json:"type"`
	ID         string           `json:"id,omitempty"`
	Text       string           `json:"text,omitempty"`
	Context    map[string]any   `json:"context,omitempty"`
	Stage      string           `json:"stage,omitempty"`
	Specialist string           `json:"specialist,omitempty"`
	Response   *CommandResponse `json:"response,omitempty"`
	Error      string           `json:"error,omitempty"`
}
