// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger. The terminal belongs to the
// UI, so log output always goes to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/ragterm/internal/config"
)

// New returns a JSON file logger configured from cfg.Logging. Disabled
// logging yields a no-op logger. verbose forces the debug level.
func New(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	if cfg == nil || !cfg.Logging.Enabled {
		return zap.NewNop(), nil
	}

	path, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	return NewFile(path, cfg.Logging.Level, verbose)
}

// NewFile returns a JSON logger appending to path at the given level.
func NewFile(path, level string, verbose bool) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		atomic.SetLevel(zapcore.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = atomic
	zc.Sampling = nil
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("ragterm"), nil
}
