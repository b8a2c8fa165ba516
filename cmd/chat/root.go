package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"finance-qa-be/internal/config"
	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/assistant/turn"
	"finance-qa-be/pkg/llm/factory"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "finance-chat",
	Short: "Terminal client for the Finance Q&A assistant",
	Long:  `Chat with the education-only Finance Q&A assistant from your terminal. Nothing here is financial advice.`,
	RunE:  runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("mode", "m", "", "Assistant mode (name or 1-6); defaults to ASSISTANT_DEFAULT_MODE")
	rootCmd.Flags().Float64P("temperature", "t", -1, "Creativity between 0.0 and 1.0; defaults to AI_TEMPERATURE")
	rootCmd.Flags().String("notes-file", "", "Load market notes from a .txt or .md file")
	rootCmd.Flags().Bool("no-notes", false, "Start with notes excluded from the instruction")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	for _, warning := range cfg.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}

	mode := cfg.Assistant.DefaultMode
	if raw, _ := cmd.Flags().GetString("mode"); raw != "" {
		parsed, err := resolveMode(raw)
		if err != nil {
			return err
		}
		mode = parsed
	}

	settings := turn.Settings{Temperature: cfg.Ai.Temperature, IncludeNotes: true}
	if cmd.Flags().Changed("temperature") {
		settings.Temperature, _ = cmd.Flags().GetFloat64("temperature")
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if noNotes, _ := cmd.Flags().GetBool("no-notes"); noNotes {
		settings.IncludeNotes = false
	}

	var notes string
	if path, _ := cmd.Flags().GetString("notes-file"); path != "" {
		loaded, err := readNotesFile(path)
		if err != nil {
			return err
		}
		notes = loaded
	}

	provider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.BaseURL(),
	})
	if err != nil {
		return err
	}

	state, err := conversation.New(mode, notes)
	if err != nil {
		return err
	}

	chatLogger := logger.NewIsolatedLogger("logs/chat.log")
	defer chatLogger.Sync()

	out := cmd.OutOrStdout()
	controller := turn.NewController(state, provider,
		turn.WithNotifier(newBannerNotifier(out)),
		turn.WithModel(cfg.Ai.LLMModel),
		turn.WithTimeout(cfg.Ai.RequestTimeout),
	)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &repl{
		controller: controller,
		settings:   settings,
		render:     renderer.Render,
		in:         cmd.InOrStdin(),
		out:        out,
		log:        chatLogger,
	}
	return r.run(ctx)
}

// resolveMode accepts a mode name or its 1-based position in the mode list.
func resolveMode(raw string) (prompt.Mode, error) {
	if idx, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		modes := prompt.Modes()
		if idx >= 1 && idx <= len(modes) {
			return modes[idx-1], nil
		}
	}
	return prompt.ParseMode(raw)
}
