package config

import (
	"testing"
	"time"

	"finance-qa-be/pkg/assistant/prompt"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("LLM_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("AI_TEMPERATURE", "")
	t.Setenv("ASSISTANT_DEFAULT_MODE", "")

	cfg := FromEnv()

	assert.Equal(t, "groq", cfg.Ai.LLMProvider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Ai.LLMModel)
	assert.Equal(t, 0.2, cfg.Ai.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Ai.RequestTimeout)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL())
	assert.Equal(t, "", cfg.APIKey())

	// an empty ASSISTANT_DEFAULT_MODE is not a mode
	assert.Equal(t, prompt.DefaultMode, cfg.Assistant.DefaultMode)
	assert.Len(t, cfg.Warnings(), 2)
}

func TestFromEnvMissingKeyOnlyWarns(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("ASSISTANT_DEFAULT_MODE", string(prompt.ModeInvesting101))

	cfg := FromEnv()
	assert.Equal(t, prompt.ModeInvesting101, cfg.Assistant.DefaultMode)
	assert.Equal(t, []string{`no API key set for LLM provider "groq"; completion calls will fail`}, cfg.Warnings())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LLM_MODEL", "claude-test")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("AI_REQUEST_TIMEOUT", "15s")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("ASSISTANT_DEFAULT_MODE", string(prompt.ModeCryptoBasics))

	cfg := FromEnv()

	assert.Equal(t, "anthropic", cfg.Ai.LLMProvider)
	assert.Equal(t, "sk-ant", cfg.APIKey())
	assert.Equal(t, "", cfg.BaseURL())
	assert.Equal(t, "claude-test", cfg.Ai.LLMModel)
	assert.Equal(t, 0.7, cfg.Ai.Temperature)
	assert.Equal(t, 15*time.Second, cfg.Ai.RequestTimeout)
	assert.Equal(t, "redis", cfg.App.SessionStore)
	assert.Equal(t, 30*time.Minute, cfg.App.SessionTTL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, prompt.ModeCryptoBasics, cfg.Assistant.DefaultMode)
	assert.Empty(t, cfg.Warnings())
}

func TestFromEnvClampsTemperature(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("AI_TEMPERATURE", "1.8")
	t.Setenv("ASSISTANT_DEFAULT_MODE", string(prompt.DefaultMode))

	cfg := FromEnv()
	assert.Equal(t, 0.2, cfg.Ai.Temperature)
	assert.Len(t, cfg.Warnings(), 1)
}
