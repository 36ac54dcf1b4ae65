// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files selects documents for upload.
//
// A Filter restricts selection to the indexable document types. Expand
// resolves command-line paths, directories and doublestar globs into an
// ordered, duplicate-free file list. Watcher follows a directory and
// reports newly written documents in debounced, rate-limited batches.
package files
