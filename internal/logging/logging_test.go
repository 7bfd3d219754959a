package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestJSONLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf), "gateway")

	log.Debug().Msg("hidden")
	log.Info().Str("tier", "fast").Msg("selected model")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "fast", entry["tier"])
	assert.Equal(t, "selected model", entry["message"])
}
