package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHATBOT_BASE_PROMPT", "")
	t.Setenv("CHAT_HISTORY_LIMIT", "0")
	t.Setenv("WORKER_CONCURRENCY", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultBasePrompt, cfg.ChatbotBasePrompt)
	assert.Equal(t, 50, cfg.ChatHistoryLimit)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.ChatPersistUserTurn)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-2.0-pro")
	t.Setenv("CHATBOT_LANGUAGE", "English")
	t.Setenv("CHAT_PERSIST_USER_TURN", "false")
	t.Setenv("CHAT_TEMPERATURE", "0.4")

	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.ChatSettings()
	assert.Equal(t, "gemini-2.0-pro", cfg.GeminiModel)
	assert.Equal(t, "English", s.Language)
	assert.False(t, s.PersistUserTurn)
	assert.InDelta(t, 0.4, s.Generation.Temperature, 1e-9)
	assert.Equal(t, 2048, s.Generation.MaxOutputTokens)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}
