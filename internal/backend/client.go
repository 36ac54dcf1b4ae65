// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches by type, so errors.Is(err, ErrTimeout) holds for any timeout.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeRequest
	ErrTypeTransport
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeMalformed
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeRequest:
		return "request"
	case ErrTypeTransport:
		return "transport"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrRequest   = &ClientError{Type: ErrTypeRequest, Message: "invalid request"}
	ErrTransport = &ClientError{Type: ErrTypeTransport, Message: "backend unreachable"}
	ErrTimeout   = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrStatus    = &ClientError{Type: ErrTypeStatus, Message: "request rejected"}
	ErrMalformed = &ClientError{Type: ErrTypeMalformed, Message: "malformed response"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// ChatPath is the chat endpoint path (default: /api/chat)
	ChatPath string

	// IngestPath is the ingest endpoint path (default: /api/ingest)
	IngestPath string

	// ChatTimeout bounds one chat call. Zero means no limit.
	ChatTimeout time.Duration

	// IngestTimeout bounds one upload. Zero means no limit.
	IngestTimeout time.Duration

	// ProbeTimeout bounds the reachability probe (default: 3s)
	ProbeTimeout time.Duration
}

// Default endpoint values.
const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultChatPath   = "/api/chat"
	DefaultIngestPath = "/api/ingest"
)

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		ChatPath:      DefaultChatPath,
		IngestPath:    DefaultIngestPath,
		ChatTimeout:   2 * time.Minute,
		IngestTimeout: 10 * time.Minute,
		ProbeTimeout:  3 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the RAG backend over HTTP.
//
// Every call makes exactly one request and never retries. Failures are
// returned as *ClientError so callers can log the category; the session
// layer collapses all of them into one user-visible message.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := backend.NewClient(backend.DefaultConfig(), logger)
//	reply, err := client.Chat(ctx, "what is this project about?")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. A nil config uses DefaultConfig and a nil
// logger discards output.
func NewClient(config *ClientConfig, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Fill in defaults for any zero values. Timeouts stay zero on purpose.
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ChatPath == "" {
		cfg.ChatPath = DefaultChatPath
	}
	if cfg.IngestPath == "" {
		cfg.IngestPath = DefaultIngestPath
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}

	return &Client{
		config:     &cfg,
		httpClient: &http.Client{},
		logger:     logger.Named("backend"),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckReachable reports whether the backend answers HTTP at all. Any
// response, whatever its status, counts as reachable.
func (c *Client) CheckReachable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends one query and returns the reply text. A response without a
// reply field is malformed; an explicit empty reply is returned as "".
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return "", &ClientError{Type: ErrTypeRequest, Message: "failed to marshal request", Cause: err}
	}

	ctx, cancel := withOptionalTimeout(ctx, c.config.ChatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.ChatPath, bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "chat request failed"); err != nil {
		return "", err
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", decodeError(err)
	}
	if result.Reply == nil {
		return "", &ClientError{Type: ErrTypeMalformed, Message: "response missing reply"}
	}

	c.logger.Debug("chat reply received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(*result.Reply)),
	)
	return *result.Reply, nil
}

// =============================================================================
// INGEST
// =============================================================================

// Ingest uploads every file in a single multipart request, in the given
// order, and returns the number of chunks the backend indexed.
func (c *Client) Ingest(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, &ClientError{Type: ErrTypeRequest, Message: "no files to ingest"}
	}

	body, contentType, err := buildMultipart(paths)
	if err != nil {
		return 0, &ClientError{Type: ErrTypeRequest, Message: "failed to build upload", Cause: err}
	}

	ctx, cancel := withOptionalTimeout(ctx, c.config.IngestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.IngestPath, body)
	if err != nil {
		return 0, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, transportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "ingest request failed"); err != nil {
		return 0, err
	}

	var result IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, decodeError(err)
	}
	if result.TotalChunks == nil {
		return 0, &ClientError{Type: ErrTypeMalformed, Message: "response missing total_chunks"}
	}

	c.logger.Debug("ingest finished",
		zap.Int("files", len(paths)),
		zap.Int("chunks", *result.TotalChunks),
		zap.Duration("elapsed", time.Since(start)),
	)
	return *result.TotalChunks, nil
}

// buildMultipart writes every file under IngestField, preserving order.
func buildMultipart(paths []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, path := range paths {
		if err := addFilePart(w, path); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func addFilePart(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, IngestField, escapeQuotes(name)))
	h.Set("Content-Type", contentTypeFor(name))

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// =============================================================================
// HELPERS
// =============================================================================

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeTransport, Message: "backend unreachable", Cause: err}
}

func decodeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeMalformed, Message: "failed to decode response", Cause: err}
}

// checkStatus rejects any non-2xx response, surfacing the backend's detail
// message when it sends one.
func checkStatus(resp *http.Response, prefix string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := prefix + ": " + resp.Status
	var apiErr ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr); err == nil && apiErr.Detail != "" {
		msg = prefix + ": " + apiErr.Detail
	}
	return &ClientError{Type: ErrTypeStatus, Message: msg, StatusCode: resp.StatusCode}
}
