// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the transcript.
//
// # Key Types
//
//   - Message: Single transcript entry with id, role, content and streaming flag
//   - Role: Message role enumeration (user, agent, system)
//   - Log: Ordered, append/replace-only sequence of messages
//
// # Usage
//
// Build a log and resolve a placeholder:
//
//	log := model.NewLog(model.NewSystemMessage("Welcome"))
//	placeholder := model.NewPlaceholder()
//	log = log.Append(placeholder)
//	log = log.Resolve(placeholder.ID, "Hello!")
package model
