// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation and request-lifecycle state machine.
//
// Every mutation is a pure transition over a State value:
//
//   - Submit: classify raw input into the upload token or a chat query
//   - BeginChat / SettleChat: the placeholder protocol around one chat call
//   - SelectFiles / BeginUpload / SettleUpload: the batch upload pipeline
//   - StatusFor: the label shown while a placeholder is empty
//
// Transitions return an Effect describing the side effect a driver must
// perform (open the file picker, send a chat, send an upload). The outcome
// is fed back through SettleChat or SettleUpload.
//
// # Usage
//
// Drive a session synchronously:
//
//	ctrl := session.NewController(client, session.WithFilePicker(pick))
//	ctrl.Submit(ctx, "what is this project about?")
//	for _, msg := range ctrl.State().Log.Messages() {
//	    fmt.Println(msg.Role, msg.Content)
//	}
package session
