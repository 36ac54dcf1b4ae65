// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragterm/internal/session"
)

func newAskCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask [QUESTION...]",
		Short: "Ask one question and print the reply",
		Long: `Ask one question and print the reply.

The question is taken from the arguments, or from stdin when there are
none. The exit status is non-zero when the backend call fails.`,
		Example: `  ragterm ask "what is this project about?"
  echo "summarize chapter 2" | ragterm ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if question == "" && !currentTerminal().stdinTTY {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read question: %w", err)
				}
				question = string(data)
			}
			if strings.TrimSpace(question) == "" {
				return &UsageError{Message: "ask: a question is required"}
			}
			return a.ask(commandContext(cmd), question, raw, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without markdown rendering")
	return cmd
}

// ask runs one query through the session lifecycle and prints the outcome.
func (a *app) ask(ctx context.Context, question string, raw bool, out io.Writer) error {
	rec := &recordingBackend{Backend: a.client}
	ctrl := a.controller(rec)

	printer := newTranscriptPrinter(out, newMarkdownRenderer(a.cfg.UI.Markdown && !raw))
	printer.Skip(ctrl.State().Log)

	ctrl.Submit(ctx, question)
	printer.Flush(ctrl.State().Log)

	if rec.chatErr != nil {
		return &CommandError{Command: "ask", Reason: "backend request failed", Err: rec.chatErr}
	}
	return nil
}

// =============================================================================
// ERROR RECORDING
// =============================================================================

// recordingBackend keeps the last error of each call so one-shot commands
// can report it after the session has turned it into a notice.
type recordingBackend struct {
	session.Backend
	chatErr   error
	ingestErr error
}

func (r *recordingBackend) Chat(ctx context.Context, message string) (string, error) {
	reply, err := r.Backend.Chat(ctx, message)
	r.chatErr = err
	return reply, err
}

func (r *recordingBackend) Ingest(ctx context.Context, paths []string) (int, error) {
	chunks, err := r.Backend.Ingest(ctx, paths)
	r.ingestErr = err
	return chunks, err
}
