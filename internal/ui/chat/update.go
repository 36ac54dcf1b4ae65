// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragterm/internal/session"
)

// probeTimeout bounds the startup reachability check.
const probeTimeout = 5 * time.Second

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

// ChatCmd runs the call requested by a SendChat effect. Per-call timeouts
// are applied by the backend client.
func ChatCmd(b session.Backend, eff session.SendChat) tea.Cmd {
	return func() tea.Msg {
		return ChatSettledMsg{Result: session.ExecuteChat(context.Background(), b, eff)}
	}
}

// UploadCmd runs the transfer requested by a SendUpload effect.
func UploadCmd(b session.Backend, eff session.SendUpload) tea.Cmd {
	return func() tea.Msg {
		return UploadSettledMsg{Result: session.ExecuteUpload(context.Background(), b, eff)}
	}
}

// CheckBackendCmd probes the backend once.
func CheckBackendCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		if b == nil {
			return BackendStatusMsg{Online: false}
		}

		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		err := b.CheckReachable(ctx)
		return BackendStatusMsg{
			Online: err == nil,
			Error:  err,
		}
	}
}
