// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and string helpers shared by the CLI and
// the TUI: crash-safe file writes and terminal-width aware truncation.
package util
