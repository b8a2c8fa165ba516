package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"finance-qa-be/internal/config"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/assistant/turn"
	"finance-qa-be/pkg/llm/factory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Live round trip against the configured provider. Runs only with
// RUN_LIVE_LLM_TESTS=1 and a provider key (or a local Ollama).
func TestLiveProviderTurn(t *testing.T) {
	if os.Getenv("RUN_LIVE_LLM_TESTS") != "1" {
		t.Skip("set RUN_LIVE_LLM_TESTS=1 to call the real completion service")
	}

	cfg := config.FromEnv()
	if cfg.APIKey() == "" && cfg.Ai.LLMProvider != "ollama" {
		t.Skipf("no API key for provider %q", cfg.Ai.LLMProvider)
	}

	provider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.BaseURL(),
	})
	require.NoError(t, err)

	state, err := conversation.New(prompt.ModeInvesting101, "")
	require.NoError(t, err)

	controller := turn.NewController(state, provider,
		turn.WithModel(cfg.Ai.LLMModel),
		turn.WithTimeout(90*time.Second),
	)

	outcome, err := controller.HandleTurn(context.Background(), "What is dollar-cost averaging?", turn.Settings{
		Temperature:  0.2,
		IncludeNotes: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Reply)

	history := state.History()
	require.Len(t, history, 3)
	assert.Equal(t, conversation.RoleInstruction, history[0].Role)
	assert.Equal(t, conversation.RoleUser, history[1].Role)
	assert.Equal(t, conversation.RoleAssistant, history[2].Role)

	t.Logf("%s replied with %d characters", provider.Name(), len(outcome.Reply))
}
