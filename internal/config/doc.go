// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ragterm.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: RAG backend URL, endpoint paths and timeouts
//   - UploadConfig: Selectable extensions and upload serialization
//   - UIConfig: Theme, prompt and rendering preferences
//   - LoggingConfig: Structured log file settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RAGTERM_*)
//   - ~/.ragterm/config.toml
//   - ~/.ragterm/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Backend.ChatTimeout()
package config
