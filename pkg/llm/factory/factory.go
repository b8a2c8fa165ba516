package factory

import (
	"fmt"

	"finance-qa-be/pkg/llm"
	"finance-qa-be/pkg/llm/anthropic"
	"finance-qa-be/pkg/llm/groq"
	"finance-qa-be/pkg/llm/huggingface"
	"finance-qa-be/pkg/llm/ollama"
)

// Settings selects and configures a completion backend.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case groq.ProviderName, "":
		return groq.NewGroqProvider(s.APIKey, s.BaseURL, s.Model), nil
	case anthropic.ProviderName:
		return anthropic.NewAnthropicProvider(s.APIKey, s.BaseURL, s.Model), nil
	case ollama.ProviderName:
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case huggingface.ProviderName:
		return huggingface.NewHuggingFaceProvider(s.APIKey, s.BaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case anthropic.ProviderName:
		return anthropic.DefaultModel
	case ollama.ProviderName:
		return "llama3"
	case huggingface.ProviderName:
		return "meta-llama/Llama-3.3-70B-Instruct"
	default:
		return groq.DefaultModel
	}
}
