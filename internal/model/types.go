package model

// Tier is the model class chosen for a request.
type Tier string

const (
	TierFast     Tier = "fast"     // cheap, low latency
	TierAdvanced Tier = "advanced" // capable, expensive
)

// Request represents a single completion request sent to a provider.
type Request struct {
	Model     string `json:"model"`
	System    string `json:"system,omitempty"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`

	// CacheSystem marks the system prompt as a provider-side cache block.
	CacheSystem bool `json:"cache_system,omitempty"`
}

// Response represents a provider completion.
type Response struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	Usage      Usage  `json:"usage"`
	DurationMs int64  `json:"duration_ms"`
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// ModelStatus represents the status of a provider.
type ModelStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Breaker   string `json:"breaker,omitempty"`
	Error     string `json:"error,omitempty"`
}
