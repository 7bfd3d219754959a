// Package config handles JARVIS configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".jarvis")

	return &Config{
		User: UserConfig{
			Name: "Sir",
		},
		Models: ModelConfig{
			Provider:            "anthropic",
			BaseURL:             "https://api.anthropic.com",
			FastModel:           "claude-haiku-4-5-20251001",
			AdvancedModel:       "claude-sonnet-4-5-20250929",
			ComplexityThreshold: 0.8,
			TimeoutSeconds:      30,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
		},
		Knowledge: KnowledgeConfig{
			Provider:       string(KnowledgeArchon),
			MCPURL:         "http://localhost:8051",
			SearchTool:     "rag_search_knowledge_base",
			DatabasePath:   filepath.Join(dataDir, "knowledge.db"),
			DashboardURL:   "http://localhost:3737",
			TimeoutSeconds: 30,
		},
		Agents: AgentsConfig{
			SkillsDir: filepath.Join(".claude", "skills"),
			LegacyDir: filepath.Join("bmad-integration", "agents"),
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8055,
			CORSOrigins: []string{"*"},
		},
		Voice: VoiceConfig{
			Port:                3738,
			BrainURL:            "http://localhost:8055",
			STTModel:            "whisper-1",
			TTSModel:            "tts-1",
			TTSVoice:            "onyx",
			TTSSpeed:            1.0,
			Language:            "en",
			BrainTimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns ~/.jarvis/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".jarvis", "config.toml")
}

// Load loads the configuration from the given path and applies
// environment overrides. A missing file yields defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewBuilder(errors.CodeConfigInvalid, "failed to parse config").
				User().
				Wrap(err).
				WithContext("path", configPath).
				Build()
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrap(err, errors.CodeConfigNotFound, "failed to read config", errors.CategorySystem)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(c)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Models.ComplexityThreshold < 0 || c.Models.ComplexityThreshold > 1 {
		return errors.NewBuilder(errors.CodeConfigInvalid, "complexity_threshold must be within [0,1]").
			User().
			WithContext("value", c.Models.ComplexityThreshold).
			Build()
	}
	switch KnowledgeProvider(c.Knowledge.Provider) {
	case KnowledgeArchon, KnowledgeSQLite, KnowledgeNone:
	default:
		return errors.NewBuilder(errors.CodeConfigInvalid, "unknown knowledge provider").
			User().
			WithContext("provider", c.Knowledge.Provider).
			WithSuggestion("Use one of: archon, sqlite, none").
			Build()
	}
	return nil
}

// applyEnv overlays the environment variables the services read at startup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("JARVIS_USER_NAME", &c.User.Name)
	str("ANTHROPIC_API_KEY", &c.Models.APIKey)
	str("JARVIS_DEFAULT_MODEL", &c.Models.FastModel)
	str("JARVIS_ADVANCED_MODEL", &c.Models.AdvancedModel)
	if v, ok := lookup("JARVIS_COMPLEXITY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Models.ComplexityThreshold = f
		}
	}
	if v, ok := lookup("JARVIS_ENABLE_CACHE"); ok {
		c.Cache.Enabled = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	str("ARCHON_MCP_URL", &c.Knowledge.MCPURL)
	str("ARCHON_DASHBOARD_URL", &c.Knowledge.DashboardURL)
	num("JARVIS_PORT", &c.Server.Port)
	str("OPENAI_API_KEY", &c.Voice.OpenAIKey)
	str("JARVIS_URL", &c.Voice.BrainURL)
	num("JARVIS_VOICE_PORT", &c.Voice.Port)
}

// expandPaths expands a leading ~ in path settings.
func (c *Config) expandPaths() {
	c.Knowledge.DatabasePath = expandHome(c.Knowledge.DatabasePath)
	c.Agents.SkillsDir = expandHome(c.Agents.SkillsDir)
	c.Agents.LegacyDir = expandHome(c.Agents.LegacyDir)
	c.Agents.RegistryFile = expandHome(c.Agents.RegistryFile)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}

// ModelTimeout returns the per-call provider timeout.
func (c *Config) ModelTimeout() time.Duration {
	return seconds(c.Models.TimeoutSeconds, 30)
}

// CacheTTL returns the response cache time-to-live.
func (c *Config) CacheTTL() time.Duration {
	return seconds(c.Cache.TTLSeconds, 3600)
}

// KnowledgeTimeout returns the knowledge search timeout.
func (c *Config) KnowledgeTimeout() time.Duration {
	return seconds(c.Knowledge.TimeoutSeconds, 30)
}

// BrainTimeout returns the voice service timeout for brain calls.
func (c *Config) BrainTimeout() time.Duration {
	return seconds(c.Voice.BrainTimeoutSeconds, 60)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
