// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header        lipgloss.Style
	HeaderTitle   lipgloss.Style
	HeaderOnline  lipgloss.Style
	HeaderOffline lipgloss.Style
	HeaderUnknown lipgloss.Style

	// Transcript
	Prompt     lipgloss.Style
	UserText   lipgloss.Style
	AgentLabel lipgloss.Style
	AgentText  lipgloss.Style
	SystemText lipgloss.Style
	ErrorText  lipgloss.Style
	Citation   lipgloss.Style
	Cursor     lipgloss.Style
	Timestamp  lipgloss.Style

	// Status line
	Spinner     lipgloss.Style
	StatusLabel lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputBlurred   lipgloss.Style
	Hint           lipgloss.Style
	ShortcutKey    lipgloss.Style

	// File picker overlay
	PickerBox      lipgloss.Style
	PickerTitle    lipgloss.Style
	PickerSelected lipgloss.Style
}

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// NewTheme creates a new theme with all styles configured. mode "dark" or
// "light" overrides background detection; anything else detects it.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case ModeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.HeaderOnline = lipgloss.NewStyle().Foreground(Emerald)
	t.HeaderOffline = lipgloss.NewStyle().Foreground(Rose)
	t.HeaderUnknown = lipgloss.NewStyle().Foreground(TextMuted)

	// Transcript
	t.Prompt = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.AgentLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.AgentText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.SystemText = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Citation = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(CyanDeep).
		Padding(0, 1)

	t.Cursor = lipgloss.NewStyle().
		Foreground(Emerald).
		Blink(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status line
	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusLabel = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputBlurred = t.InputContainer.
		BorderForeground(TextMuted).
		Faint(true)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	// File picker
	t.PickerBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)

	t.PickerTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.PickerSelected = lipgloss.NewStyle().
		Foreground(Emerald)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
