// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the transcript.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAgent:
		return "Agent"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry.
//
// A message is immutable once created, except through Log.ReplaceByID, which
// may rewrite Content and IsStreaming. ID and Role never change.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// IsStreaming is true only for an agent placeholder whose final
	// content has not arrived yet.
	IsStreaming bool `json:"is_streaming,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewPlaceholder creates an empty, streaming agent message that stands in
// for a reply that has not arrived yet.
func NewPlaceholder() Message {
	msg := NewMessage(RoleAgent, "")
	msg.IsStreaming = true
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsPlaceholder returns true for a streaming agent message with no content.
func (m Message) IsPlaceholder() bool {
	return m.Role == RoleAgent && m.IsStreaming && m.Content == ""
}

// Preview returns the content truncated to maxWidth terminal cells.
func (m Message) Preview(maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(m.Content, maxWidth, "...")
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
