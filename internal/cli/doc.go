// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the ragterm command tree.
//
// # Commands
//
//   - ragterm: full-screen chat (line-mode REPL without a terminal or with --plain)
//   - chat: line-mode REPL with persistent input history
//   - ask: one question, one printed reply
//   - ingest: batch upload of files, directories and globs; --watch keeps uploading
//   - config: show, init, path, get and set
//   - version: build information
//
// Every command loads the configuration in PersistentPreRunE, applies
// --backend, and builds the file logger and backend client. All session
// behavior goes through internal/session, so the REPL and the one-shot
// commands produce the same notices as the full-screen view.
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
