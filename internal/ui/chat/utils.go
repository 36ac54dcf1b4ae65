// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// CITATIONS
// =============================================================================

// citationPattern matches source references such as
// "[Source: guide.pdf, Chunk: 3]".
var citationPattern = regexp.MustCompile(`\[Source:.*?, Chunk:.*?\]`)

// Segment is a piece of reply text, either plain or a citation.
type Segment struct {
	Text     string
	Citation bool
}

// SplitCitations splits text into plain and citation segments in order.
// Concatenating the segment texts yields the input.
func SplitCitations(text string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range citationPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Text: text[last:loc[0]]})
		}
		segs = append(segs, Segment{Text: text[loc[0]:loc[1]], Citation: true})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Text: text[last:]})
	}
	return segs
}

// RenderReply renders an agent reply through render and styles every
// citation span with badge. Each citation is swapped for a marker word
// while render runs, so markdown styling and wrapping cannot split it.
func RenderReply(content string, render, badge func(string) string) string {
	var (
		masked strings.Builder
		pairs  []string
	)
	for _, seg := range SplitCitations(content) {
		if !seg.Citation {
			masked.WriteString(seg.Text)
			continue
		}
		marker := citationMarker(len(pairs) / 2)
		masked.WriteString(marker)
		pairs = append(pairs, marker, badge(seg.Text))
	}

	out := render(masked.String())
	if len(pairs) == 0 {
		return out
	}
	return strings.NewReplacer(pairs...).Replace(out)
}

// citationMarker returns a single word that neither markdown nor word
// wrapping alters.
func citationMarker(i int) string {
	return fmt.Sprintf("ragtermcite%04d", i)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// newMarkdownRenderer builds a glamour renderer wrapping at width.
// It returns nil if glamour cannot be initialized.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders content with r, returning it unchanged on failure.
func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// FORMATTING UTILITIES
// =============================================================================

// wrapText wraps text at maxWidth columns.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(maxWidth).Render(text)
}
