// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/ragterm/internal/model"
)

// =============================================================================
// CHAT REQUEST LIFECYCLE
// =============================================================================

// ChatResult is the settled outcome of one chat call.
type ChatResult struct {
	PlaceholderID string
	Reply         string
	Err           error
}

// BeginChat moves an idle session to pending: it appends the placeholder,
// records its id and returns the call to make.
//
// Callers must only begin a chat from an idle state; Submit enforces this.
func BeginChat(s State, query string) (State, SendChat) {
	placeholder := model.NewPlaceholder()

	s.Log = s.Log.Append(placeholder)
	s.IsProcessing = true
	s.PendingID = placeholder.ID
	s.PendingQuery = query

	return s, SendChat{PlaceholderID: placeholder.ID, Query: query}
}

// SettleChat applies the outcome of a chat call and returns the session to
// idle. The placeholder receives either the reply or ChatErrorText; the
// pending request is cleared on both paths.
func SettleChat(s State, r ChatResult) State {
	content := r.Reply
	if r.Err != nil {
		content = ChatErrorText
	}
	s.Log = s.Log.Resolve(r.PlaceholderID, content)

	s.IsProcessing = false
	s.PendingID = ""
	s.PendingQuery = ""
	return s
}
