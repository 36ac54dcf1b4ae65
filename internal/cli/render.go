// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/ragterm/internal/model"
	"github.com/jeranaias/ragterm/internal/session"
	"github.com/jeranaias/ragterm/internal/ui/chat"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// newMarkdownRenderer returns a glamour renderer for terminal output, or
// nil when markdown is disabled or unavailable.
func newMarkdownRenderer(enabled bool) *glamour.TermRenderer {
	if !enabled || !currentTerminal().colors {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(currentTerminal().width()-4),
	)
	if err != nil {
		return nil
	}
	return r
}

// =============================================================================
// TRANSCRIPT PRINTER
// =============================================================================

// transcriptPrinter writes log messages that have not been printed yet.
// User lines are skipped because the terminal already shows them.
type transcriptPrinter struct {
	out      io.Writer
	markdown *glamour.TermRenderer
	printed  int
}

func newTranscriptPrinter(out io.Writer, markdown *glamour.TermRenderer) *transcriptPrinter {
	return &transcriptPrinter{out: out, markdown: markdown}
}

// Skip marks every message currently in log as printed.
func (p *transcriptPrinter) Skip(log model.Log) {
	p.printed = log.Len()
}

// Flush prints the messages appended since the last call. A placeholder
// still waiting for its reply stops the flush so it is printed once settled.
func (p *transcriptPrinter) Flush(log model.Log) {
	for p.printed < log.Len() {
		msg := log.At(p.printed)
		if msg.IsPlaceholder() {
			return
		}
		p.printed++
		if msg.Role == model.RoleUser {
			continue
		}
		fmt.Fprintln(p.out, p.render(msg))
	}
}

func (p *transcriptPrinter) render(msg model.Message) string {
	switch msg.Role {
	case model.RoleAgent:
		return renderReply(msg.Content, p.markdown)
	case model.RoleSystem:
		if session.IsErrorNotice(msg.Content) {
			return RenderConditional(ErrorStyle, msg.Content)
		}
		return RenderConditional(WarningStyle, msg.Content)
	default:
		return msg.Content
	}
}

// renderReply renders an agent reply with highlighted citations.
func renderReply(content string, markdown *glamour.TermRenderer) string {
	render := func(text string) string { return text }
	if markdown != nil {
		render = func(text string) string {
			out, err := markdown.Render(text)
			if err != nil {
				return text
			}
			return strings.Trim(out, "\n")
		}
	}
	return chat.RenderReply(content, render, func(cite string) string {
		return RenderConditional(CitationStyle, cite)
	})
}
