package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance-qa-be/pkg/llm"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const ProviderName = "anthropic"

var DefaultModel = string(sdk.ModelClaude4Sonnet20250514)

var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

type AnthropicProvider struct {
	apiKey string
	model  string
	client sdk.Client
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, baseURL, model string) *AnthropicProvider {
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		apiKey: apiKey,
		model:  model,
		client: sdk.NewClient(opts...),
	}
}

func (p *AnthropicProvider) Name() string {
	return ProviderName
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if p.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	opts := llm.Apply(llm.Options{Model: p.model, MaxTokens: 1024}, options...)
	system, messages := convertHistory(history)
	if len(messages) == 0 {
		return "", fmt.Errorf("anthropic request needs at least one user message")
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		Messages:    messages,
		Temperature: sdk.Float(opts.Temperature),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(sdk.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// convertHistory maps the log onto the Messages API. The API takes a single
// system prompt, so only the newest system message is kept.
func convertHistory(history []llm.Message) (string, []sdk.MessageParam) {
	var system string
	messages := make([]sdk.MessageParam, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			system = msg.Content
		case llm.RoleAssistant:
			messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}
	return system, messages
}
