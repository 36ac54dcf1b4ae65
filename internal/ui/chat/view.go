// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragterm/internal/model"
	"github.com/jeranaias/ragterm/internal/session"
	"github.com/jeranaias/ragterm/internal/ui/styles"
	"github.com/jeranaias/ragterm/internal/util"
)

// =============================================================================
// MAIN LAYOUT
// =============================================================================

// renderChat renders the full chat layout:
// header, transcript (or picker), status line, input, help.
func (m Model) renderChat() string {
	if !m.ready {
		return "Initializing..."
	}

	body := m.viewport.View()
	if m.pickerOpen {
		body = m.renderPicker()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusLine(),
		m.renderInput(),
		m.renderHelp(),
	)
}

// renderHeader renders the title and backend indicator.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Agentic RAG CLI")

	var status string
	switch m.backendStatus {
	case backendOnline:
		status = m.theme.HeaderOnline.Render(styles.StatusIndicators.Online + " online")
	case backendOffline:
		status = m.theme.HeaderOffline.Render(styles.StatusIndicators.Offline + " offline")
	default:
		status = m.theme.HeaderUnknown.Render(styles.StatusIndicators.Unknown + " connecting")
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + status)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// renderMessages renders the whole transcript.
func (m *Model) renderMessages() string {
	messages := m.state.Log.Messages()
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if rendered := m.renderMessage(msg); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n")
}

// renderMessage renders a single message based on its role.
func (m *Model) renderMessage(msg model.Message) string {
	switch msg.Role {
	case model.RoleUser:
		return m.renderUserMessage(msg)
	case model.RoleAgent:
		return m.renderAgentMessage(msg)
	case model.RoleSystem:
		return m.renderSystemMessage(msg)
	default:
		return msg.Content
	}
}

func (m *Model) renderUserMessage(msg model.Message) string {
	prompt := m.theme.Prompt.Render(m.opts.Prompt)
	lines := strings.Split(msg.Content, "\n")
	indent := strings.Repeat(" ", util.StringWidth(m.opts.Prompt))
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return prompt + m.theme.UserText.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderAgentMessage(msg model.Message) string {
	if msg.IsPlaceholder() {
		return m.renderPending()
	}

	render := func(text string) string { return wrapText(text, m.viewport.Width-4) }
	if m.markdown != nil {
		render = func(text string) string { return renderMarkdown(m.markdown, text) }
	}
	content := RenderReply(msg.Content, render, func(cite string) string {
		return m.theme.Citation.Render(cite)
	})

	if msg.IsStreaming {
		content += m.theme.Cursor.Render(styles.TypingCursor)
	}
	return m.theme.AgentText.Render(content)
}

// renderPending renders the placeholder of an outstanding request.
func (m *Model) renderPending() string {
	line := m.spinner.View()
	if label, ok := m.state.Status(); ok && m.opts.ShowStatus {
		line += " " + m.theme.StatusLabel.Render(label)
	}
	return m.theme.AgentText.Render(line)
}

func (m *Model) renderSystemMessage(msg model.Message) string {
	style := m.theme.SystemText
	if session.IsErrorNotice(msg.Content) {
		style = m.theme.ErrorText
	}
	return style.Render(wrapText(msg.Content, m.viewport.Width-2))
}

// =============================================================================
// STATUS, INPUT AND HELP
// =============================================================================

// renderStatusLine shows pending work below the transcript.
func (m Model) renderStatusLine() string {
	var parts []string
	if m.state.IsProcessing {
		parts = append(parts, m.theme.StatusLabel.Render("waiting for agent"))
	}
	if n := m.state.UploadsInFlight; n > 0 {
		parts = append(parts, m.theme.StatusLabel.Render(fmt.Sprintf("%d upload(s) in flight", n)))
	}
	line := strings.Join(parts, m.theme.Hint.Render(" | "))
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(line)
}

// renderInput renders the input area, dimmed while a reply is pending.
func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.state.IsProcessing || m.pickerOpen {
		style = m.theme.InputBlurred
	}
	return style.Width(m.width).Render(m.input.View())
}

// renderHelp renders the short help line for the current mode.
func (m Model) renderHelp() string {
	bindings := m.keyMap.ShortHelp()
	if m.pickerOpen {
		bindings = m.keyMap.PickerHelp()
	}

	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.Hint.Render(h.Desc))
	}
	return strings.Join(items, m.theme.Hint.Render("  "))
}

// =============================================================================
// FILE PICKER
// =============================================================================

// renderPicker renders the picker with the files picked so far.
func (m Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Select documents (" + m.opts.Filter.String() + ")"))
	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())

	if len(m.picked) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.PickerSelected.Render(pickedSummary(m.picked, m.width-6)))
	}

	return m.theme.PickerBox.Width(max(m.width-2, 10)).Render(b.String())
}

// pickedSummary lists the picked file names on one line of at most width
// columns.
func pickedSummary(paths []string, width int) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return util.TruncateWidth(fmt.Sprintf("Picked %d: %s", len(paths), strings.Join(names, ", ")), max(width, 10))
}
