// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, url string, mutate ...func(*ClientConfig)) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = url
	for _, fn := range mutate {
		fn(cfg)
	}
	return NewClient(cfg, zaptest.NewLogger(t))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// CONFIG
// =============================================================================

func TestNewClient_FillsDefaults(t *testing.T) {
	c := NewClient(&ClientConfig{BaseURL: "http://rag.local:9000/"}, nil)

	assert.Equal(t, "http://rag.local:9000", c.BaseURL())
	assert.Equal(t, DefaultChatPath, c.config.ChatPath)
	assert.Equal(t, DefaultIngestPath, c.config.IngestPath)
	assert.Zero(t, c.config.ChatTimeout, "zero timeout means unbounded and must be kept")
}

func TestNewClient_DoesNotMutateConfig(t *testing.T) {
	cfg := &ClientConfig{}
	NewClient(cfg, nil)
	assert.Empty(t, cfg.BaseURL)
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is RAG?", req.Message)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reply":"Retrieval-augmented generation [Source: intro.md, Chunk: 2]"}`)
	}))
	defer server.Close()

	reply, err := newTestClient(t, server.URL).Chat(context.Background(), "what is RAG?")
	require.NoError(t, err)
	assert.Equal(t, "Retrieval-augmented generation [Source: intro.md, Chunk: 2]", reply)
}

func TestChat_EmptyReplyIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"reply":""}`)
	}))
	defer server.Close()

	reply, err := newTestClient(t, server.URL).Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantType   ErrorType
		wantStatus int
	}{
		{"missing reply", http.StatusOK, `{"answer":"X"}`, ErrTypeMalformed, 0},
		{"null reply", http.StatusOK, `{"reply":null}`, ErrTypeMalformed, 0},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrTypeMalformed, 0},
		{"server error", http.StatusInternalServerError, `{"detail":"agent crashed"}`, ErrTypeStatus, 500},
		{"bad request", http.StatusBadRequest, ``, ErrTypeStatus, 400},
		{"redirect status", http.StatusNotModified, ``, ErrTypeStatus, 304},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Chat(context.Background(), "hi")
			require.Error(t, err)

			var ce *ClientError
			require.True(t, errors.As(err, &ce), "error %v is not a ClientError", err)
			assert.Equal(t, tc.wantType, ce.Type)
			assert.Equal(t, tc.wantStatus, ce.StatusCode)
		})
	}
}

func TestChat_StatusDetailIsKept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"detail":"vector store offline"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Chat(context.Background(), "hi")
	require.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "vector store offline")
}

func TestChat_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).Chat(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestChat_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL, func(c *ClientConfig) {
		c.ChatTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	_, err := client.Chat(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// =============================================================================
// INGEST
// =============================================================================

func TestIngest_SingleBatchInOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "b.md", "# heading"),
		writeFile(t, dir, "a.txt", "plain text"),
		writeFile(t, dir, "c.html", "<p>hi</p>"),
	}

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/api/ingest", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		files := r.MultipartForm.File[IngestField]
		if !assert.Len(t, files, 3) {
			return
		}
		assert.Equal(t, "b.md", files[0].Filename)
		assert.Equal(t, "a.txt", files[1].Filename)
		assert.Equal(t, "c.html", files[2].Filename)
		assert.Contains(t, files[2].Header.Get("Content-Type"), "text/html")

		f, err := files[1].Open()
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "plain text", string(data))

		_, _ = io.WriteString(w, `{"total_chunks":17}`)
	}))
	defer server.Close()

	chunks, err := newTestClient(t, server.URL).Ingest(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 17, chunks)
	assert.Equal(t, 1, requests, "all files must travel in one request")
}

func TestIngest_MissingTotalChunks(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Ingest(context.Background(), []string{path})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIngest_Rejected(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.pdf", "%PDF-1.4")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Ingest(context.Background(), []string{path})
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeStatus, ce.Type)
	assert.Equal(t, http.StatusRequestEntityTooLarge, ce.StatusCode)
}

func TestIngest_MissingFile(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "nope.pdf")})
	assert.ErrorIs(t, err, ErrRequest)
	assert.False(t, called)
}

func TestIngest_NoFiles(t *testing.T) {
	_, err := NewClient(nil, nil).Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrRequest)
}

// =============================================================================
// REACHABILITY
// =============================================================================

func TestCheckReachable_AnyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, newTestClient(t, server.URL).CheckReachable(context.Background()))
}

func TestCheckReachable_Down(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, newTestClient(t, url).CheckReachable(context.Background()))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestClientError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &ClientError{Type: ErrTypeTransport, Message: "backend unreachable", Cause: cause}

	assert.Equal(t, "backend unreachable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "transport", err.Type.String())
}
