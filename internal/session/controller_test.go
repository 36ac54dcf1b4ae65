// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/ragterm/internal/model"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	reply     string
	chatErr   error
	chunks    int
	ingestErr error
	block     bool
	panicMsg  string

	queries []string
	batches [][]string
}

func (f *fakeBackend) Chat(ctx context.Context, message string) (string, error) {
	f.queries = append(f.queries, message)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.chatErr
}

func (f *fakeBackend) Ingest(ctx context.Context, paths []string) (int, error) {
	f.batches = append(f.batches, append([]string(nil), paths...))
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.chunks, f.ingestErr
}

func lastContent(s State) string {
	msg, _ := s.Log.Last()
	return msg.Content
}

// =============================================================================
// CHAT
// =============================================================================

func TestController_ChatSuccess(t *testing.T) {
	backend := &fakeBackend{reply: "Sunny, 22C"}
	var labels []string
	ctrl := NewController(backend,
		WithLogger(zaptest.NewLogger(t)),
		WithPendingHook(func(label string) { labels = append(labels, label) }),
	)

	accepted := ctrl.Submit(context.Background(), "What's the weather today")
	require.True(t, accepted)

	assert.Equal(t, []string{"What's the weather today"}, backend.queries)
	assert.Equal(t, []string{StatusWeather}, labels)

	s := ctrl.State()
	require.Equal(t, 3, s.Log.Len())
	assert.Equal(t, model.RoleUser, s.Log.At(1).Role)
	assert.Equal(t, model.RoleAgent, s.Log.At(2).Role)
	assert.Equal(t, "Sunny, 22C", s.Log.At(2).Content)
	assert.False(t, s.Log.At(2).IsStreaming)
	assert.True(t, s.IsIdle())
}

func TestController_LogsQueryPreview(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	long := strings.Repeat("why ", 40)
	ctrl := NewController(&fakeBackend{reply: "ok"}, WithLogger(zap.New(core)))

	require.True(t, ctrl.Submit(context.Background(), long))

	started := logs.FilterMessage("chat request started").All()
	require.Len(t, started, 1)
	query, ok := started[0].ContextMap()["query"].(string)
	require.True(t, ok, "query field missing")
	assert.LessOrEqual(t, len(query), queryPreviewWidth)
	assert.True(t, strings.HasSuffix(query, "..."), "got %q", query)
}

func TestController_ChatFailure(t *testing.T) {
	backend := &fakeBackend{chatErr: errors.New("connection refused")}
	ctrl := NewController(backend)

	ctrl.Submit(context.Background(), "hello")

	assert.Equal(t, ChatErrorText, lastContent(ctrl.State()))
	assert.True(t, ctrl.State().IsIdle())
}

func TestController_ChatTimeout(t *testing.T) {
	backend := &fakeBackend{block: true}
	ctrl := NewController(backend)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ctrl.Submit(ctx, "hello")

	assert.Equal(t, ChatErrorText, lastContent(ctrl.State()))
	assert.Equal(t, 0, ctrl.State().Log.StreamingCount())
}

func TestController_ChatPanicSettles(t *testing.T) {
	backend := &fakeBackend{panicMsg: "nil map"}
	ctrl := NewController(backend)

	ctrl.Submit(context.Background(), "hello")

	assert.Equal(t, ChatErrorText, lastContent(ctrl.State()))
	assert.True(t, ctrl.State().IsIdle())
}

func TestController_IgnoresBlankInput(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := NewController(backend)

	assert.False(t, ctrl.Submit(context.Background(), "   "))
	assert.Empty(t, backend.queries)
	assert.Equal(t, 1, ctrl.State().Log.Len())
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestController_UploadTokenOpensPicker(t *testing.T) {
	backend := &fakeBackend{chunks: 12}
	picked := 0
	ctrl := NewController(backend, WithFilePicker(func(context.Context) ([]string, error) {
		picked++
		return []string{"a.pdf", "b.md"}, nil
	}))

	require.True(t, ctrl.Submit(context.Background(), " /Upload "))

	assert.Equal(t, 1, picked)
	assert.Empty(t, backend.queries, "upload token must never reach chat")
	assert.Equal(t, [][]string{{"a.pdf", "b.md"}}, backend.batches)

	s := ctrl.State()
	require.Equal(t, 3, s.Log.Len())
	assert.Equal(t, "Uploading 2 file(s) to the RAG pipeline...", s.Log.At(1).Content)
	assert.Equal(t, "Success: Processed 2 file(s). 12 total chunks indexed.", s.Log.At(2).Content)
	assert.Empty(t, s.Selection)
}

func TestController_PickerCancelled(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := NewController(backend, WithFilePicker(func(context.Context) ([]string, error) {
		return nil, nil
	}))

	ctrl.Submit(context.Background(), "/upload")

	assert.Empty(t, backend.batches)
	assert.Equal(t, 1, ctrl.State().Log.Len())
}

func TestController_PickerError(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := NewController(backend, WithFilePicker(func(context.Context) ([]string, error) {
		return nil, errors.New("no tty")
	}))

	ctrl.Submit(context.Background(), "/upload")

	assert.Empty(t, backend.batches)
	assert.Equal(t, 1, ctrl.State().Log.Len())
}

func TestController_UploadFailure(t *testing.T) {
	backend := &fakeBackend{ingestErr: errors.New("502 Bad Gateway")}
	ctrl := NewController(backend)

	ctrl.Upload(context.Background(), "notes.txt")

	assert.Equal(t, UploadErrorText, lastContent(ctrl.State()))
	assert.Equal(t, 0, ctrl.State().UploadsInFlight)
	assert.Empty(t, ctrl.State().Selection)
}

func TestController_UploadPanicSettles(t *testing.T) {
	backend := &fakeBackend{panicMsg: "boom"}
	ctrl := NewController(backend)

	ctrl.Upload(context.Background(), "notes.txt")

	assert.Equal(t, UploadErrorText, lastContent(ctrl.State()))
}

func TestController_EmptyUploadIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := NewController(backend)

	ctrl.Upload(context.Background())

	assert.Empty(t, backend.batches)
	assert.Equal(t, 1, ctrl.State().Log.Len())
}
