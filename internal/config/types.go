// Package config provides configuration types for JARVIS.
package config

// Config represents the main JARVIS configuration.
type Config struct {
	User      UserConfig      `toml:"user"`
	Models    ModelConfig     `toml:"models"`
	Cache     CacheConfig     `toml:"cache"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Agents    AgentsConfig    `toml:"agents"`
	Server    ServerConfig    `toml:"server"`
	Voice     VoiceConfig     `toml:"voice"`
	Logging   LoggingConfig   `toml:"logging"`
}

// UserConfig contains user preferences.
type UserConfig struct {
	Name string `toml:"name"` // How JARVIS addresses the user
}

// ModelConfig configures the completion provider and tier selection.
type ModelConfig struct {
	Provider            string  `toml:"provider"` // anthropic
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	FastModel           string  `toml:"fast_model"`
	AdvancedModel       string  `toml:"advanced_model"`
	ComplexityThreshold float64 `toml:"complexity_threshold"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// KnowledgeConfig configures the knowledge search backend.
type KnowledgeConfig struct {
	Provider       string `toml:"provider"` // archon, sqlite, none
	MCPURL         string `toml:"mcp_url"`
	SearchTool     string `toml:"search_tool"`
	DatabasePath   string `toml:"database_path"`
	DashboardURL   string `toml:"dashboard_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AgentsConfig configures the specialist registry.
type AgentsConfig struct {
	SkillsDir    string `toml:"skills_dir"`
	LegacyDir    string `toml:"legacy_dir"`
	RegistryFile string `toml:"registry_file"` // Optional YAML with extra rings
}

// ServerConfig configures the brain HTTP service.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// VoiceConfig configures the voice front-end service.
type VoiceConfig struct {
	Port                int     `toml:"port"`
	OpenAIKey           string  `toml:"openai_api_key"`
	OpenAIBaseURL       string  `toml:"openai_base_url"`
	BrainURL            string  `toml:"brain_url"`
	STTModel            string  `toml:"stt_model"`
	TTSModel            string  `toml:"tts_model"`
	TTSVoice            string  `toml:"tts_voice"`
	TTSSpeed            float64 `toml:"tts_speed"`
	Language            string  `toml:"language"`
	BrainTimeoutSeconds int     `toml:"brain_timeout_seconds"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console, json
}

// KnowledgeProvider selects the knowledge search backend.
type KnowledgeProvider string

const (
	KnowledgeArchon KnowledgeProvider = "archon"
	KnowledgeSQLite KnowledgeProvider = "sqlite"
	KnowledgeNone   KnowledgeProvider = "none"
)
