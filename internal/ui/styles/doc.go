// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ragterm TUI.

# Colors (colors.go)

All colors are Lip Gloss AdaptiveColor values so they follow the terminal
background:

  - Emerald: prompt, online indicator
  - Cyan: agent label, citation badges
  - Amber: system notices, pending status
  - Rose: error notices, offline indicator

# Theme (theme.go)

NewTheme builds every lipgloss.Style the chat view uses. The mode argument
("auto", "dark", "light") can override termenv background detection.

	theme := styles.NewTheme(cfg.UI.Theme)
	fmt.Println(theme.Prompt.Render("user@agentic-rag:~$ "))

# Animations (animations.go)

Spinner frame sets and the streaming cursor.
*/
package styles
