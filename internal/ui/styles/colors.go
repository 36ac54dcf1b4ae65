// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
// The palette follows a terminal look: slate surfaces, an emerald prompt,
// amber system notices and cyan source badges.

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Emerald - Prompt, online indicator, success notices
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Cyan - Agent label, citations
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// CyanDeep - Citation badge background
var CyanDeep = lipgloss.AdaptiveColor{Light: "#CFFAFE", Dark: "#164E63"}

// Amber - System notices, pending status
var Amber = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// Rose - Error notices, offline indicator
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#0F172A"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#E2E8F0"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#94A3B8"}

// TextMuted - Hints, timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains text indicators that do not rely on color.
type StatusIndicatorSet struct {
	Online  string
	Offline string
	Unknown string
	Pending string
}

// StatusIndicators are ASCII-only for maximum terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Online:  "[*]",
	Offline: "[X]",
	Unknown: "[?]",
	Pending: "[ ]",
}
