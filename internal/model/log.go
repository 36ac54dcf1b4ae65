// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "slices"

// =============================================================================
// LOG TYPE
// =============================================================================

// Log is the ordered transcript of a session.
//
// Log is a value type with copy-on-write semantics: Append and ReplaceByID
// return a new Log and never modify the receiver, so older values can be kept
// and compared safely. Order is the only ordering signal; there is no
// secondary sort and no deletion.
type Log struct {
	messages []Message
}

// Update is the result of a replace-by-id updater.
type Update struct {
	Content     string
	IsStreaming bool
}

// NewLog creates a log holding the given messages in order.
func NewLog(seed ...Message) Log {
	return Log{messages: slices.Clone(seed)}
}

// Append returns a log with msg added at the end.
func (l Log) Append(msg Message) Log {
	return Log{messages: append(slices.Clip(l.messages), msg)}
}

// ReplaceByID returns a log in which the message with the given id has its
// content and streaming flag replaced by the result of update. Every other
// field and every other message is left untouched.
//
// An unknown id is a silent no-op: the message may already have been
// replaced.
func (l Log) ReplaceByID(id string, update func(Message) Update) Log {
	idx := l.indexOf(id)
	if idx < 0 {
		return l
	}

	out := slices.Clone(l.messages)
	u := update(out[idx])
	out[idx].Content = u.Content
	out[idx].IsStreaming = u.IsStreaming
	return Log{messages: out}
}

// Resolve replaces the content of the message with the given id and marks it
// as no longer streaming.
func (l Log) Resolve(id, content string) Log {
	return l.ReplaceByID(id, func(Message) Update {
		return Update{Content: content, IsStreaming: false}
	})
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Len returns the number of messages.
func (l Log) Len() int {
	return len(l.messages)
}

// At returns the message at index i. It panics if i is out of range.
func (l Log) At(i int) Message {
	return l.messages[i]
}

// Messages returns a copy of all messages in order.
func (l Log) Messages() []Message {
	return slices.Clone(l.messages)
}

// Find returns the message with the given id.
func (l Log) Find(id string) (Message, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return Message{}, false
	}
	return l.messages[idx], true
}

// Contains reports whether a message with the given id exists.
func (l Log) Contains(id string) bool {
	return l.indexOf(id) >= 0
}

// Last returns the most recent message.
func (l Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// LastUser returns the most recent user message.
func (l Log) LastUser() (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == RoleUser {
			return l.messages[i], true
		}
	}
	return Message{}, false
}

// StreamingCount returns how many messages are flagged as streaming.
// A well-formed session never has more than one.
func (l Log) StreamingCount() int {
	n := 0
	for _, msg := range l.messages {
		if msg.IsStreaming {
			n++
		}
	}
	return n
}

func (l Log) indexOf(id string) int {
	return slices.IndexFunc(l.messages, func(m Message) bool {
		return m.ID == id
	})
}
