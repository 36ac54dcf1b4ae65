// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAgent, "Agent"},
		{RoleSystem, "System"},
		{Role("tool"), "tool"},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := tc.role.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAgent, RoleSystem} {
		if !r.IsValid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("assistant").IsValid() {
		t.Error("assistant should not be a valid role")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		msg := NewUserMessage("hi")
		if !strings.HasPrefix(msg.ID, "msg_") {
			t.Fatalf("ID %q missing msg_ prefix", msg.ID)
		}
		if seen[msg.ID] {
			t.Fatalf("duplicate ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestNewPlaceholder(t *testing.T) {
	msg := NewPlaceholder()

	if msg.Role != RoleAgent {
		t.Errorf("Role = %q, want agent", msg.Role)
	}
	if msg.Content != "" {
		t.Errorf("Content = %q, want empty", msg.Content)
	}
	if !msg.IsStreaming {
		t.Error("placeholder should be streaming")
	}
	if !msg.IsPlaceholder() {
		t.Error("IsPlaceholder() = false for a fresh placeholder")
	}

	msg.Content = "partial"
	if msg.IsPlaceholder() {
		t.Error("IsPlaceholder() = true for a message with content")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewSystemMessage("Uploading 3 file(s) to the RAG pipeline...")

	if got := msg.Preview(200); got != msg.Content {
		t.Errorf("Preview(200) = %q, want full content", got)
	}
	if got := msg.Preview(12); got != "Uploading..." {
		t.Errorf("Preview(12) = %q", got)
	}
	if got := msg.Preview(0); got != "" {
		t.Errorf("Preview(0) = %q, want empty", got)
	}
}

// =============================================================================
// LOG TESTS
// =============================================================================

var ignoreTimestamp = cmpopts.IgnoreFields(Message{}, "Timestamp")

func TestLog_AppendPreservesOrder(t *testing.T) {
	a := NewSystemMessage("a")
	b := NewUserMessage("b")
	c := NewPlaceholder()

	log := NewLog(a).Append(b).Append(c)

	if diff := cmp.Diff([]Message{a, b, c}, log.Messages(), ignoreTimestamp); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
}

func TestLog_AppendDoesNotAliasPreviousValue(t *testing.T) {
	base := NewLog(NewSystemMessage("seed"))
	left := base.Append(NewUserMessage("left"))
	right := base.Append(NewUserMessage("right"))

	if base.Len() != 1 {
		t.Fatalf("base.Len() = %d, want 1", base.Len())
	}
	if left.At(1).Content != "left" {
		t.Errorf("left.At(1) = %q, want left", left.At(1).Content)
	}
	if right.At(1).Content != "right" {
		t.Errorf("right.At(1) = %q, want right", right.At(1).Content)
	}
}

func TestLog_ReplaceByID(t *testing.T) {
	user := NewUserMessage("question")
	placeholder := NewPlaceholder()
	before := NewLog(user, placeholder)

	after := before.ReplaceByID(placeholder.ID, func(old Message) Update {
		return Update{Content: "answer", IsStreaming: false}
	})

	got, ok := after.Find(placeholder.ID)
	if !ok {
		t.Fatal("placeholder missing after replace")
	}
	if got.Content != "answer" || got.IsStreaming {
		t.Errorf("replaced message = %+v", got)
	}
	if got.Role != RoleAgent || !got.Timestamp.Equal(placeholder.Timestamp) {
		t.Error("replace changed fields other than content and streaming")
	}
	if after.At(0) != user {
		t.Error("replace touched an unrelated message")
	}

	// The previous value is untouched.
	old, _ := before.Find(placeholder.ID)
	if !old.IsPlaceholder() {
		t.Error("ReplaceByID mutated the receiver")
	}
}

func TestLog_ReplaceByIDUnknownIsNoop(t *testing.T) {
	log := NewLog(NewSystemMessage("seed"), NewPlaceholder())
	called := false

	got := log.ReplaceByID("msg_missing", func(Message) Update {
		called = true
		return Update{Content: "x"}
	})

	if called {
		t.Error("updater called for an unknown id")
	}
	if diff := cmp.Diff(log.Messages(), got.Messages()); diff != "" {
		t.Errorf("log changed (-want +got):\n%s", diff)
	}
}

func TestLog_ResolveTwiceIsIdempotentOnShape(t *testing.T) {
	placeholder := NewPlaceholder()
	log := NewLog(placeholder).Resolve(placeholder.ID, "first").Resolve(placeholder.ID, "second")

	if log.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", log.Len())
	}
	if log.At(0).IsStreaming {
		t.Error("message still streaming after resolve")
	}
}

func TestLog_Queries(t *testing.T) {
	var empty Log
	if _, ok := empty.Last(); ok {
		t.Error("Last() on empty log returned ok")
	}
	if _, ok := empty.LastUser(); ok {
		t.Error("LastUser() on empty log returned ok")
	}

	q1 := NewUserMessage("one")
	q2 := NewUserMessage("two")
	placeholder := NewPlaceholder()
	log := NewLog(NewSystemMessage("seed"), q1, NewSystemMessage("note"), q2, placeholder)

	if last, _ := log.Last(); last.ID != placeholder.ID {
		t.Errorf("Last() = %q, want placeholder", last.ID)
	}
	if user, _ := log.LastUser(); user.ID != q2.ID {
		t.Errorf("LastUser() = %q, want %q", user.Content, q2.Content)
	}
	if n := log.StreamingCount(); n != 1 {
		t.Errorf("StreamingCount() = %d, want 1", n)
	}
	if !log.Contains(q1.ID) || log.Contains("nope") {
		t.Error("Contains() wrong")
	}
}

func TestLog_MessagesReturnsCopy(t *testing.T) {
	log := NewLog(NewUserMessage("original"))
	msgs := log.Messages()
	msgs[0].Content = "mutated"

	if log.At(0).Content != "original" {
		t.Error("Messages() exposed the internal slice")
	}
}
