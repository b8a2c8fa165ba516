package turn

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/safety"
	"finance-qa-be/pkg/llm"
)

// Settings are the per-session knobs a turn is sent with.
type Settings struct {
	Temperature  float64
	IncludeNotes bool
}

func (s Settings) Validate() error {
	if s.Temperature < 0 || s.Temperature > 1 {
		return &assistant.ValidationError{Field: "temperature", Reason: "must be between 0.0 and 1.0"}
	}
	return nil
}

// AdvisoryNotifier receives the risk banner side effect. Implementations must
// not block the turn.
type AdvisoryNotifier interface {
	Advisory(ctx context.Context, text string, flags []string)
}

// Outcome describes what a call to HandleTurn did.
type Outcome struct {
	Submitted   bool
	RiskFlagged bool
	RiskFlags   []string
	Reply       string

	// InstructionRefreshed is true when settings changed since the last
	// instruction turn and a new one was appended.
	InstructionRefreshed bool
}

// Controller runs one user turn at a time against a conversation.
type Controller struct {
	mu       sync.Mutex
	state    *conversation.State
	provider llm.LLMProvider
	notifier AdvisoryNotifier
	model    string
	timeout  time.Duration
}

type Option func(*Controller)

func WithNotifier(n AdvisoryNotifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(c *Controller) {
		c.model = model
	}
}

// WithTimeout bounds each completion call. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

func NewController(state *conversation.State, provider llm.LLMProvider, opts ...Option) *Controller {
	c := &Controller{
		state:    state,
		provider: provider,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() *conversation.State {
	return c.state
}

// HandleTurn processes one submission. Empty input is a no-op. On a
// completion failure the user turn stays in the log without an assistant
// reply and a *assistant.CompletionError is returned.
func (c *Controller) HandleTurn(ctx context.Context, rawInput string, settings Settings) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(rawInput) == "" {
		return &Outcome{}, nil
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{Submitted: true}

	if flags := safety.Matches(rawInput); len(flags) > 0 {
		out.RiskFlagged = true
		out.RiskFlags = flags
		if c.notifier != nil {
			c.notifier.Advisory(ctx, safety.Advisory, flags)
		}
	}

	refreshed, err := c.state.SyncInstruction(settings.IncludeNotes)
	if err != nil {
		return nil, err
	}
	out.InstructionRefreshed = refreshed

	if err := c.state.AppendUser(rawInput); err != nil {
		return nil, err
	}

	// a failed completion leaves the user turn in place and appends nothing else
	reply, err := c.complete(ctx, ToMessages(c.state.History()), settings)
	if err != nil {
		return nil, &assistant.CompletionError{Provider: c.provider.Name(), Err: err}
	}

	c.state.AppendAssistant(reply)
	out.Reply = reply

	return out, nil
}

func (c *Controller) complete(ctx context.Context, request []llm.Message, settings Settings) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []llm.Option{llm.WithTemperature(settings.Temperature)}
	if c.model != "" {
		opts = append(opts, llm.WithModel(c.model))
	}

	reply, err := c.provider.Chat(ctx, request, opts...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return reply, nil
}

// ToMessages maps conversation turns onto provider messages.
func ToMessages(turns []conversation.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: roleFor(t.Role), Content: t.Content})
	}
	return out
}

func roleFor(r conversation.Role) string {
	switch r {
	case conversation.RoleInstruction:
		return llm.RoleSystem
	case conversation.RoleAssistant:
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}
