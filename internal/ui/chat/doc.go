// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for ragterm.

The model drives the session state machine from the Bubble Tea event loop:
key presses become session transitions, and the effects they return become
commands whose results come back as messages.

# Files

  - model.go: Model, Options, Update and the key/message handlers
  - update.go: tea.Cmd constructors for backend calls
  - messages.go: Bubble Tea message types
  - keys.go: key bindings and help text
  - view.go: header, transcript, status line, input and picker rendering
  - utils.go: citation splitting, markdown and wrapping helpers

# Usage

	m := chat.New(client, theme, chat.Options{Prompt: "me@agentic-rag:~$ "})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

# Keys

	Enter          Submit input (or toggle a file in the picker)
	Alt+Enter/C-j  Insert a newline
	PgUp/PgDn      Scroll the transcript
	Ctrl+S         Upload the picked files
	Esc            Close the picker without uploading
	Ctrl+C         Quit
*/
package chat
