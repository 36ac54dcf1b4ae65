// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// =============================================================================
// BACKEND CONTRACT
// =============================================================================

// Backend is the remote RAG service as seen by the client.
type Backend interface {
	// Chat sends one query and returns the full reply.
	Chat(ctx context.Context, message string) (string, error)

	// Ingest uploads every file in one transfer and returns the number of
	// indexed chunks.
	Ingest(ctx context.Context, paths []string) (int, error)
}

// ExecuteChat performs the call requested by a SendChat effect. It always
// returns a result, converting a panic in the backend into a failure.
func ExecuteChat(ctx context.Context, b Backend, eff SendChat) (result ChatResult) {
	result.PlaceholderID = eff.PlaceholderID
	defer func() {
		if r := recover(); r != nil {
			result.Reply = ""
			result.Err = fmt.Errorf("chat call panicked: %v", r)
		}
	}()

	result.Reply, result.Err = b.Chat(ctx, eff.Query)
	return result
}

// ExecuteUpload performs the transfer requested by a SendUpload effect. It
// always returns a result, converting a panic in the backend into a failure.
func ExecuteUpload(ctx context.Context, b Backend, eff SendUpload) (result UploadResult) {
	result.Files = len(eff.Files)
	defer func() {
		if r := recover(); r != nil {
			result.Chunks = 0
			result.Err = fmt.Errorf("ingest call panicked: %v", r)
		}
	}()

	result.Chunks, result.Err = b.Ingest(ctx, eff.Files)
	return result
}

// =============================================================================
// CONTROLLER
// =============================================================================

// FilePicker is the file-selection surface. It returns the chosen paths;
// an empty result means the user chose nothing.
type FilePicker func(ctx context.Context) ([]string, error)

// Controller drives the state machine synchronously: each call runs its
// effects to completion before returning. It backs the line-mode REPL and
// the one-shot commands; the TUI drives the same transitions through its
// own event loop instead.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	state     State
	backend   Backend
	picker    FilePicker
	onPending func(label string)
	logger    *zap.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithFilePicker sets the file-selection surface used for the upload token.
func WithFilePicker(p FilePicker) ControllerOption {
	return func(c *Controller) { c.picker = p }
}

// WithPendingHook registers a callback that receives the status label when
// a chat request starts waiting.
func WithPendingHook(fn func(label string)) ControllerOption {
	return func(c *Controller) { c.onPending = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithExclusiveUploads rejects a new upload while another is in flight.
func WithExclusiveUploads(exclusive bool) ControllerOption {
	return func(c *Controller) { c.state.ExclusiveUploads = exclusive }
}

// NewController creates a controller around a fresh session.
func NewController(b Backend, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:   New(),
		backend: b,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	return c.state
}

// Submit handles one line of user input and reports whether it was
// accepted. Accepted input should be cleared from the input buffer.
func (c *Controller) Submit(ctx context.Context, raw string) bool {
	next, eff := Submit(c.state, raw)
	if eff == nil {
		c.logger.Debug("input ignored", zap.Bool("processing", c.state.IsProcessing))
		return false
	}
	c.state = next

	switch e := eff.(type) {
	case OpenFilePicker:
		c.pickAndUpload(ctx)
	case SendChat:
		c.runChat(ctx, e)
	}
	return true
}

// Upload selects paths and runs one batch upload. Empty input is a no-op.
func (c *Controller) Upload(ctx context.Context, paths ...string) {
	c.state = SelectFiles(c.state, paths...)

	next, eff := BeginUpload(c.state)
	c.state = next
	if eff == nil {
		c.state = ClearSelection(c.state)
		return
	}

	c.logger.Info("upload started", zap.Int("files", len(eff.Files)))
	result := ExecuteUpload(ctx, c.backend, *eff)
	if result.Err != nil {
		c.logger.Warn("upload failed", zap.Int("files", result.Files), zap.Error(result.Err))
	} else {
		c.logger.Info("upload finished", zap.Int("files", result.Files), zap.Int("chunks", result.Chunks))
	}
	c.state = SettleUpload(c.state, result)
}

func (c *Controller) pickAndUpload(ctx context.Context) {
	if c.picker == nil {
		return
	}
	paths, err := c.picker(ctx)
	if err != nil {
		c.logger.Warn("file selection failed", zap.Error(err))
		return
	}
	c.Upload(ctx, paths...)
}

// queryPreviewWidth bounds how much of a query reaches the log.
const queryPreviewWidth = 80

func (c *Controller) runChat(ctx context.Context, eff SendChat) {
	if c.onPending != nil {
		if label, ok := c.state.Status(); ok {
			c.onPending(label)
		}
	}

	fields := []zap.Field{zap.String("placeholder", eff.PlaceholderID)}
	if q, ok := c.state.Log.LastUser(); ok {
		fields = append(fields, zap.String("query", q.Preview(queryPreviewWidth)))
	}
	c.logger.Debug("chat request started", fields...)
	result := ExecuteChat(ctx, c.backend, eff)
	if result.Err != nil {
		c.logger.Warn("chat request failed", zap.String("placeholder", eff.PlaceholderID), zap.Error(result.Err))
	} else {
		c.logger.Debug("chat request finished", zap.String("placeholder", eff.PlaceholderID), zap.Int("reply_len", len(result.Reply)))
	}
	c.state = SettleChat(c.state, result)
}
