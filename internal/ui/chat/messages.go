// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ragterm/internal/session"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// ChatSettledMsg carries the outcome of one chat call.
type ChatSettledMsg struct {
	Result session.ChatResult
}

// UploadSettledMsg carries the outcome of one ingest transfer.
type UploadSettledMsg struct {
	Result session.UploadResult
}

// BackendStatusMsg reports whether the backend answered a probe.
type BackendStatusMsg struct {
	Online bool
	Error  error
}

// =============================================================================
// BACKEND STATUS
// =============================================================================

// backendState is what the header shows about the backend.
type backendState int

const (
	backendUnknown backendState = iota
	backendOnline
	backendOffline
)
