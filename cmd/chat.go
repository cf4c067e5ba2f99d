package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/agent"
	"github.com/teemow/calmate/internal/logging"
)

const (
	promptText   = "User prompt: "
	responseText = "Agent Response: "
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to your calendar (default)",
		Long: `Start an interactive session. Each line you type is answered by the
assistant, for example:

  what's on tomorrow?
  create Dentist on 2025-06-10 from 14:00 to 15:00
  move Standup on today to 11:00-11:15
  delete Lunch on friday
  next week

Type q, quit or exit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runChat(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, debugMode, errOut)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	ag := agent.NewIntentAgent(agent.NewServerToolCaller(a.mcp), logging.WithOperation(logger, "chat"))
	return chatLoop(ctx, ag, in, out, logger)
}

// isExit reports whether line ends the session.
func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

// chatLoop reads one line per turn until an exit word or end of input.
// The conversation history lives here and is handed to the agent on every
// turn.
func chatLoop(ctx context.Context, ag agent.Agent, in io.Reader, out io.Writer, logger *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	var history []agent.Message

	for {
		fmt.Fprint(out, promptText)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		if isExit(line) {
			return nil
		}

		reply, err := ag.Respond(ctx, line, history)
		if err != nil {
			logger.Error("agent failed", logging.Err(err))
			fmt.Fprintf(out, "%s❌ %v\n", responseText, err)
			continue
		}
		history = agent.Append(history, line, reply)
		fmt.Fprintf(out, "%s%s\n", responseText, reply.Text)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
