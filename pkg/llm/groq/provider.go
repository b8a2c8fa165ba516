package groq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finance-qa-be/pkg/llm"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderName   = "groq"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

var ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

// GroqProvider talks to Groq's OpenAI-compatible endpoint through langchaingo.
// The client is built lazily so a missing key only fails the call, not startup.
type GroqProvider struct {
	apiKey  string
	baseURL string
	model   string

	once    sync.Once
	client  *openai.LLM
	initErr error
}

var _ llm.LLMProvider = &GroqProvider{}

func NewGroqProvider(apiKey, baseURL, model string) *GroqProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &GroqProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

func (p *GroqProvider) Name() string {
	return ProviderName
}

func (p *GroqProvider) init() (*openai.LLM, error) {
	p.once.Do(func() {
		if p.apiKey == "" {
			p.initErr = ErrMissingAPIKey
			return
		}
		p.client, p.initErr = openai.New(
			openai.WithToken(p.apiKey),
			openai.WithBaseURL(p.baseURL),
			openai.WithModel(p.model),
		)
	})
	return p.client, p.initErr
}

func (p *GroqProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	client, err := p.init()
	if err != nil {
		return "", fmt.Errorf("init groq client: %w", err)
	}

	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.2}, options...)

	messages := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		messages = append(messages, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithModel(opts.Model),
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from groq api")
	}

	return resp.Choices[0].Content, nil
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
