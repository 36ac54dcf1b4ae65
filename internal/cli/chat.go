// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragterm/internal/config"
	"github.com/jeranaias/ragterm/internal/files"
	"github.com/jeranaias/ragterm/internal/session"
)

// filesPrompt is shown when the upload token asks for documents.
const filesPrompt = "files> "

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode chat session",
		Long: `Start a line-mode chat session with input history.

Type a question to ask the agent, or /upload to index documents. At the
files> prompt enter paths, directories or globs separated by spaces; an
empty line cancels. Type exit or press Ctrl+D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runREPL(cmd)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of input after showing a prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line of input with the given prompt. Non-empty lines are
// added to the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

func (a *app) runREPL(cmd *cobra.Command) error {
	in := NewChatCLI()
	defer in.Close()
	return a.repl(commandContext(cmd), in, cmd.OutOrStdout())
}

// repl reads lines until EOF, abort or an exit command and feeds them to
// the session.
func (a *app) repl(ctx context.Context, in lineReader, out io.Writer) error {
	printer := newTranscriptPrinter(out, newMarkdownRenderer(a.cfg.UI.Markdown))

	ctrl := a.controller(a.client,
		session.WithFilePicker(a.filePrompt(in, out)),
		session.WithPendingHook(func(label string) {
			if a.cfg.UI.ShowStatus {
				fmt.Fprintln(out, RenderConditional(DimStyle, label))
			}
		}),
	)

	printer.Flush(ctrl.State().Log)
	prompt := RenderConditional(PromptStyle, a.cfg.UI.PromptString())

	for {
		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		if ctrl.Submit(ctx, line) {
			printer.Flush(ctrl.State().Log)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// filePrompt is the line-mode file-selection surface.
func (a *app) filePrompt(in lineReader, out io.Writer) session.FilePicker {
	filter := a.filter()
	return func(ctx context.Context) ([]string, error) {
		fmt.Fprintln(out, RenderConditional(DimStyle,
			"Enter files, directories or globs ("+filter.String()+"); empty line cancels."))

		line, err := in.Prompt(filesPrompt)
		if err != nil {
			return nil, err
		}
		patterns := strings.Fields(line)
		if len(patterns) == 0 {
			return nil, nil
		}

		sel, err := files.Expand(patterns, filter)
		if err != nil {
			fmt.Fprintln(out, RenderConditional(ErrorStyle, err.Error()))
			return nil, err
		}
		reportRejected(out, sel.Rejected)
		a.logger.Debug("files selected", zap.Int("files", len(sel.Files)), zap.Int("rejected", len(sel.Rejected)))
		return sel.Files, nil
	}
}

// reportRejected lists inputs that did not yield a document.
func reportRejected(out io.Writer, rejected []files.Rejection) {
	for _, r := range rejected {
		fmt.Fprintf(out, "%s %s: %s\n", RenderConditional(WarningStyle, "skipped"), r.Path, r.Reason)
	}
}
