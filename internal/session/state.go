// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation and request-lifecycle state machine.
package session

import (
	"github.com/jeranaias/ragterm/internal/model"
)

// =============================================================================
// USER-VISIBLE TEXT
// =============================================================================

const (
	// WelcomeID is the fixed id of the seeded welcome message.
	WelcomeID = "init"

	WelcomeText = "Welcome to Agentic RAG CLI. Type `/upload` to index a document(s), or ask a question."

	// ChatErrorText replaces the placeholder for every kind of chat failure.
	ChatErrorText = "System Error: Could not reach the AI agent."

	uploadStartFormat   = "Uploading %d file(s) to the RAG pipeline..."
	uploadSuccessFormat = "Success: Processed %d file(s). %d total chunks indexed."

	// UploadErrorText is appended for every kind of ingest failure.
	UploadErrorText = "System Error: Failed to index files. Ensure backend is running."

	// UploadBusyText is appended when exclusive uploads are enabled and an
	// upload is already in flight.
	UploadBusyText = "Upload already in progress. Wait for it to finish."
)

// IsErrorNotice reports whether a system message reports a failure.
func IsErrorNotice(content string) bool {
	switch content {
	case ChatErrorText, UploadErrorText, UploadBusyText:
		return true
	}
	return false
}

// =============================================================================
// STATE
// =============================================================================

// State is the complete client-side session state.
//
// State is a value. Every transition in this package takes a State and
// returns a new one, leaving the argument untouched, so a driver can keep
// older values for comparison and tests need no rendering surface.
type State struct {
	// Log is the transcript, the single source of truth for rendering.
	Log model.Log

	// IsProcessing is true while a chat request is outstanding.
	IsProcessing bool

	// PendingID is the id of the placeholder for the outstanding chat request.
	PendingID string

	// PendingQuery is the query text of the outstanding chat request.
	PendingQuery string

	// Selection is the content of the file-selection surface.
	Selection []string

	// UploadsInFlight counts ingest transfers that have not settled.
	UploadsInFlight int

	// ExclusiveUploads rejects a new upload while another one is in flight.
	ExclusiveUploads bool
}

// New returns the initial state: an idle session whose log holds only the
// welcome message.
func New() State {
	welcome := model.NewSystemMessage(WelcomeText)
	welcome.ID = WelcomeID
	return State{Log: model.NewLog(welcome)}
}

// IsIdle reports whether a new chat query would be accepted.
func (s State) IsIdle() bool {
	return !s.IsProcessing
}

// Status returns the label to show while the pending placeholder has no
// content. ok is false when there is nothing to show.
func (s State) Status() (label string, ok bool) {
	if !s.IsProcessing {
		return "", false
	}
	msg, found := s.Log.Find(s.PendingID)
	if !found || !msg.IsPlaceholder() {
		return "", false
	}
	return StatusFor(s.PendingQuery), true
}

// =============================================================================
// EFFECTS
// =============================================================================

// Effect is a side effect requested by a transition. Drivers execute
// effects and feed the outcome back through the matching Settle function.
type Effect interface {
	effect()
}

// OpenFilePicker asks the driver to show the file-selection surface.
type OpenFilePicker struct{}

// SendChat asks the driver to issue one chat call.
type SendChat struct {
	PlaceholderID string
	Query         string
}

// SendUpload asks the driver to issue one ingest transfer carrying every
// file, in order.
type SendUpload struct {
	Files []string
}

func (OpenFilePicker) effect() {}
func (SendChat) effect() {}
func (SendUpload) effect() {}
