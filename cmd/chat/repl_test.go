package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/assistant/safety"
	"finance-qa-be/pkg/assistant/turn"
	"finance-qa-be/pkg/llm"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error
	last  []llm.Message
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.last = history
	return p.reply, p.err
}

func newTestRepl(t *testing.T, input string) (*repl, *bytes.Buffer, *scriptedProvider) {
	t.Helper()
	color.NoColor = true

	state, err := conversation.New(prompt.DefaultMode, "")
	require.NoError(t, err)

	var out bytes.Buffer
	provider := &scriptedProvider{reply: "**Bonds** fall when rates rise."}
	r := &repl{
		controller: turn.NewController(state, provider, turn.WithNotifier(newBannerNotifier(&out))),
		settings:   turn.Settings{Temperature: 0.2, IncludeNotes: true},
		render:     func(s string) (string, error) { return s, nil },
		in:         strings.NewReader(input),
		out:        &out,
		log:        logger.NewNopLogger(),
	}
	return r, &out, provider
}

func TestReplSession(t *testing.T) {
	input := strings.Join([]string{
		"/mode 2",
		"/notes CPI 3.1% YoY",
		"What is dollar-cost averaging?",
		"/history",
		"/quit",
		"never reached",
	}, "\n")

	r, out, provider := newTestRepl(t, input)
	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, prompt.ModeInvesting101, r.controller.State().Mode())
	assert.Contains(t, out.String(), "**Bonds** fall when rates rise.")
	assert.Contains(t, out.String(), "you: What is dollar-cost averaging?")
	assert.NotContains(t, out.String(), "never reached")

	// notes edited before the turn reach the model through a fresh instruction
	require.NotEmpty(t, provider.last)
	assert.Contains(t, provider.last[len(provider.last)-2].Content, "CPI 3.1% YoY")
}

func TestReplStopsOnCancelWhileWaitingForInput(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()

	r, _, _ := newTestRepl(t, "")
	r.in = in

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("repl kept waiting for a line after cancel")
	}
}

func TestReplFailedTurnKeepsQuestion(t *testing.T) {
	r, out, provider := newTestRepl(t, "What is a bond?\n/history\n")
	provider.err = errors.New("429 rate limited")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, out.String(), "error:")
	assert.Contains(t, out.String(), "you: What is a bond?")
	assert.NotContains(t, out.String(), "assistant:")
	assert.Equal(t, 2, r.controller.State().Len())
}

func TestReplRiskBanner(t *testing.T) {
	r, out, _ := newTestRepl(t, "Is this a get rich quick scheme?\n")
	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), safety.Advisory)
}

func TestReplCommands(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
		check   func(t *testing.T, r *repl)
	}{
		{"temperature", "/temp 0.7", false, func(t *testing.T, r *repl) { assert.Equal(t, 0.7, r.settings.Temperature) }},
		{"temperature out of range", "/temp 3", true, func(t *testing.T, r *repl) { assert.Equal(t, 0.2, r.settings.Temperature) }},
		{"temperature not a number", "/temp warm", true, nil},
		{"toggle notes", "/toggle-notes", false, func(t *testing.T, r *repl) { assert.False(t, r.settings.IncludeNotes) }},
		{"unknown mode", "/mode Astrology", true, nil},
		{"mode out of range", "/mode 9", true, nil},
		{"unknown sample", "/sample moon", true, nil},
		{"unknown command", "/dance", true, nil},
		{"blank line", "   ", false, func(t *testing.T, r *repl) { assert.Equal(t, 1, r.controller.State().Len()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRepl(t, "")
			quit, err := r.handle(context.Background(), tt.line)
			assert.False(t, quit)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestReplSample(t *testing.T) {
	r, _, provider := newTestRepl(t, "")
	_, err := r.handle(context.Background(), "/sample scams-2025")
	require.NoError(t, err)

	sample, _ := prompt.LookupSample("scams-2025")
	assert.Equal(t, sample.Prompt, provider.last[len(provider.last)-1].Content)
}

func TestResolveMode(t *testing.T) {
	mode, err := resolveMode("6")
	require.NoError(t, err)
	assert.Equal(t, prompt.ModeCryptoBasics, mode)

	mode, err = resolveMode(string(prompt.ModeFraudScamWatch))
	require.NoError(t, err)
	assert.Equal(t, prompt.ModeFraudScamWatch, mode)

	_, err = resolveMode("0")
	assert.True(t, assistant.IsConfigError(err))
}

func TestReadNotesFile(t *testing.T) {
	dir := t.TempDir()

	md := filepath.Join(dir, "week.md")
	require.NoError(t, os.WriteFile(md, []byte("# Fed\nRates held"), 0o644))
	notes, err := readNotesFile(md)
	require.NoError(t, err)
	assert.Equal(t, "# Fed\nRates held", notes)

	pdf := filepath.Join(dir, "week.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	_, err = readNotesFile(pdf)
	assert.True(t, assistant.IsValidationError(err))

	bin := filepath.Join(dir, "bin.txt")
	require.NoError(t, os.WriteFile(bin, []byte{0xff, 0xfe}, 0o644))
	_, err = readNotesFile(bin)
	assert.True(t, assistant.IsValidationError(err))
}
