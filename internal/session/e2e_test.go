// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragterm/internal/backend"
	"github.com/jeranaias/ragterm/internal/session"
)

// ragServer is a minimal stand-in for the RAG backend.
func ragServer(t *testing.T, chat, ingest http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", chat)
	mux.HandleFunc("/api/ingest", ingest)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestEndToEnd_ChatAndUpload(t *testing.T) {
	server := ragServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"reply":"It indexes documents. [Source: readme.md, Chunk: 0]"}`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"total_chunks":9}`)
		},
	)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("# a"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o600))

	client := backend.NewClient(&backend.ClientConfig{BaseURL: server.URL}, nil)
	ctrl := session.NewController(client, session.WithFilePicker(func(context.Context) ([]string, error) {
		return []string{a, b}, nil
	}))

	ctx := context.Background()
	require.True(t, ctrl.Submit(ctx, "/upload"))
	require.True(t, ctrl.Submit(ctx, "what is this project about?"))

	var contents []string
	for _, msg := range ctrl.State().Log.Messages() {
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{
		session.WelcomeText,
		"Uploading 2 file(s) to the RAG pipeline...",
		"Success: Processed 2 file(s). 9 total chunks indexed.",
		"what is this project about?",
		"It indexes documents. [Source: readme.md, Chunk: 0]",
	}, contents)
	assert.True(t, ctrl.State().IsIdle())
}

func TestEndToEnd_BackendErrors(t *testing.T) {
	server := ragServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		},
	)

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	ctrl := session.NewController(backend.NewClient(&backend.ClientConfig{BaseURL: server.URL}, nil))
	ctx := context.Background()

	ctrl.Submit(ctx, "hello")
	last, _ := ctrl.State().Log.Last()
	assert.Equal(t, session.ChatErrorText, last.Content)

	ctrl.Upload(ctx, path)
	last, _ = ctrl.State().Log.Last()
	assert.Equal(t, session.UploadErrorText, last.Content)
}

// A hung backend must not leave the session busy forever.
func TestEndToEnd_HungBackendTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := ragServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		},
		http.NotFound,
	)
	t.Cleanup(func() { close(release) })

	client := backend.NewClient(&backend.ClientConfig{
		BaseURL:     server.URL,
		ChatTimeout: 50 * time.Millisecond,
	}, nil)
	ctrl := session.NewController(client)

	ctrl.Submit(context.Background(), "hello")

	s := ctrl.State()
	assert.False(t, s.IsProcessing)
	last, _ := s.Log.Last()
	assert.Equal(t, session.ChatErrorText, last.Content)
	assert.False(t, last.IsStreaming)
}
