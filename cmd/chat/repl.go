package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/assistant/turn"

	"github.com/fatih/color"
)

const helpText = `Commands:
  /mode <name|1-6>   switch assistant mode
  /modes             list modes
  /notes <text>      replace market notes
  /clear-notes       remove market notes
  /toggle-notes      include or exclude notes from the instruction
  /temp <0.0-1.0>    set creativity
  /sample <key>      ask a sample question (rates-bonds, diversification, scams-2025)
  /history           print the conversation so far
  /help              show this help
  /quit              leave`

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
	errColor   = color.New(color.FgRed)
)

type repl struct {
	controller *turn.Controller
	settings   turn.Settings
	render     func(string) (string, error)
	in         io.Reader
	out        io.Writer
	log        logger.ILogger
}

func (r *repl) run(ctx context.Context) error {
	r.banner()

	stop := make(chan struct{})
	defer close(stop)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go r.readLines(lines, readErr, stop)

	for {
		fmt.Fprint(r.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(r.out)
			return err
		case line = <-lines:
		}

		quit, err := r.handle(ctx, line)
		if err != nil {
			errColor.Fprintln(r.out, "error:", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// readLines feeds input lines to run until the input ends or run returns.
// A read blocked on a terminal is abandoned rather than interrupted.
func (r *repl) readLines(lines chan<- string, readErr chan<- error, stop <-chan struct{}) {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-stop:
			return
		}
	}
	readErr <- scanner.Err()
}

func (r *repl) banner() {
	titleColor.Fprintln(r.out, "Finance Q&A Assistant: Education, not Advice")
	dimColor.Fprintln(r.out, prompt.Caption)
	dimColor.Fprintf(r.out, "Mode: %s | temperature %.1f | notes %s. Type /help for commands.\n",
		r.controller.State().Mode(), r.settings.Temperature, onOff(r.settings.IncludeNotes))
}

// handle processes one input line and reports whether the session should end.
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return false, r.ask(ctx, line)
	}

	command, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	state := r.controller.State()

	switch command {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(r.out, helpText)

	case "/modes":
		for i, m := range prompt.Modes() {
			marker := " "
			if m == state.Mode() {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %d. %s\n", marker, i+1, m)
		}

	case "/mode":
		mode, err := resolveMode(arg)
		if err != nil {
			return false, err
		}
		if err := state.SetMode(mode); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Mode set to %s\n", mode)

	case "/notes":
		state.SetNotes(arg)
		fmt.Fprintf(r.out, "Notes saved (%d characters)\n", utf8.RuneCountInString(arg))

	case "/clear-notes":
		state.ClearNotes()
		fmt.Fprintln(r.out, "Notes cleared")

	case "/toggle-notes":
		r.settings.IncludeNotes = !r.settings.IncludeNotes
		fmt.Fprintf(r.out, "Notes %s\n", onOff(r.settings.IncludeNotes))

	case "/temp":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return false, &assistant.ValidationError{Field: "temperature", Reason: "must be a number"}
		}
		next := r.settings
		next.Temperature = t
		if err := next.Validate(); err != nil {
			return false, err
		}
		r.settings = next
		fmt.Fprintf(r.out, "Temperature set to %.1f\n", t)

	case "/sample":
		sample, ok := prompt.LookupSample(arg)
		if !ok {
			return false, fmt.Errorf("unknown sample %q", arg)
		}
		fmt.Fprintf(r.out, "> %s\n", sample.Prompt)
		return false, r.ask(ctx, sample.Prompt)

	case "/history":
		r.printHistory(state.History())

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", command)
	}
	return false, nil
}

func (r *repl) ask(ctx context.Context, text string) error {
	outcome, err := r.controller.HandleTurn(ctx, text, r.settings)
	if err != nil {
		r.log.Error("ChatCLI", "Turn failed", map[string]interface{}{"error": err})
		return err
	}
	if !outcome.Submitted {
		return nil
	}

	r.log.Info("ChatCLI", "Turn completed", map[string]interface{}{
		"mode":        string(r.controller.State().Mode()),
		"risk_flags":  outcome.RiskFlags,
		"turns":       r.controller.State().Len(),
		"refreshed":   outcome.InstructionRefreshed,
		"temperature": r.settings.Temperature,
	})

	rendered, err := r.render(outcome.Reply)
	if err != nil {
		rendered = outcome.Reply
	}
	fmt.Fprintln(r.out, rendered)
	return nil
}

func (r *repl) printHistory(turns []conversation.Turn) {
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleInstruction:
			dimColor.Fprintln(r.out, "[instruction updated]")
		case conversation.RoleUser:
			fmt.Fprintf(r.out, "you: %s\n", t.Content)
		case conversation.RoleAssistant:
			fmt.Fprintf(r.out, "assistant: %s\n", t.Content)
		}
	}
}

// bannerNotifier prints the risk advisory above the reply.
type bannerNotifier struct {
	out   io.Writer
	color *color.Color
}

func newBannerNotifier(out io.Writer) *bannerNotifier {
	return &bannerNotifier{out: out, color: color.New(color.FgYellow, color.Bold)}
}

func (b *bannerNotifier) Advisory(ctx context.Context, text string, flags []string) {
	b.color.Fprintln(b.out, text)
}

func readNotesFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return "", &assistant.ValidationError{Field: "notes-file", Reason: "must be a .txt or .md file"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read notes file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", &assistant.ValidationError{Field: "notes-file", Reason: "must be UTF-8 text"}
	}
	return string(data), nil
}

func onOff(included bool) string {
	if included {
		return "included"
	}
	return "excluded"
}
