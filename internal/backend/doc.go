// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the RAG backend.
//
// The backend exposes two calls: a JSON chat endpoint that answers one
// query with one full reply, and a multipart ingest endpoint that indexes a
// batch of documents and reports how many chunks it produced.
//
// # Key Types
//
//   - Client: one-shot HTTP calls with optional per-call timeouts
//   - ClientError: categorized failure (request, transport, timeout, status, malformed)
//   - ChatRequest / ChatResponse / IngestResponse: wire bodies
//
// # Usage
//
//	client := backend.NewClient(&backend.ClientConfig{
//	    BaseURL:     "http://127.0.0.1:8000",
//	    ChatTimeout: 2 * time.Minute,
//	}, logger)
//
//	reply, err := client.Chat(ctx, "summarize the uploaded document")
//	if errors.Is(err, backend.ErrTimeout) {
//	    // ...
//	}
//
//	chunks, err := client.Ingest(ctx, []string{"a.pdf", "notes.md"})
package backend
