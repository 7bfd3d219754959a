package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Sir", cfg.User.Name)
	assert.Equal(t, 0.8, cfg.Models.ComplexityThreshold)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Models.FastModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Models.AdvancedModel)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout())
	assert.Equal(t, 60*time.Second, cfg.BrainTimeout())
	assert.Equal(t, 8055, cfg.Server.Port)
	assert.Equal(t, 3738, cfg.Voice.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("JARVIS_USER_NAME", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "Sir", cfg.User.Name)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[user]
name = "Boss"

[models]
complexity_threshold = 0.6

[knowledge]
provider = "sqlite"
database_path = "~/kb.db"
`), 0644))
	t.Setenv("JARVIS_USER_NAME", "")
	t.Setenv("JARVIS_COMPLEXITY_THRESHOLD", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, "Boss", cfg.User.Name)
	assert.Equal(t, 0.6, cfg.Models.ComplexityThreshold)
	assert.Equal(t, filepath.Join(home, "kb.db"), cfg.Knowledge.DatabasePath)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Models.FastModel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[knowledge]\nprovider = \"redis\"\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0644))
	_, err = Load(path)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"JARVIS_USER_NAME":            "Tony",
		"ANTHROPIC_API_KEY":           "sk-ant",
		"JARVIS_COMPLEXITY_THRESHOLD": "0.5",
		"JARVIS_ENABLE_CACHE":         "false",
		"ARCHON_MCP_URL":              "http://archon:8051",
		"JARVIS_PORT":                 "9000",
		"JARVIS_VOICE_PORT":           "not-a-number",
		"OPENAI_API_KEY":              "sk-openai",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "Tony", cfg.User.Name)
	assert.Equal(t, "sk-ant", cfg.Models.APIKey)
	assert.Equal(t, 0.5, cfg.Models.ComplexityThreshold)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "http://archon:8051", cfg.Knowledge.MCPURL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3738, cfg.Voice.Port)
	assert.Equal(t, "sk-openai", cfg.Voice.OpenAIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.User.Name = "Pepper"
	require.NoError(t, cfg.Save(path))

	t.Setenv("JARVIS_USER_NAME", "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Pepper", loaded.User.Name)
}
