// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ragterm/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragterm configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend is the RAG service the client talks to.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Upload controls document selection and the ingest pipeline.
	Upload UploadConfig `toml:"upload" json:"upload"`

	// UI controls the terminal front ends.
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging controls the structured log file.
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// BackendConfig contains backend connection settings.
type BackendConfig struct {
	// URL is the backend base URL
	URL string `toml:"url" json:"url"`
	// ChatPath is the chat endpoint path
	ChatPath string `toml:"chat_path" json:"chat_path"`
	// IngestPath is the ingest endpoint path
	IngestPath string `toml:"ingest_path" json:"ingest_path"`
	// ChatTimeoutSecs bounds one chat call (0 = wait forever)
	ChatTimeoutSecs int `toml:"chat_timeout_secs" json:"chat_timeout_secs"`
	// IngestTimeoutSecs bounds one upload (0 = wait forever)
	IngestTimeoutSecs int `toml:"ingest_timeout_secs" json:"ingest_timeout_secs"`
}

// UploadConfig contains upload pipeline settings.
type UploadConfig struct {
	// AllowedExtensions lists the selectable document types
	AllowedExtensions []string `toml:"allowed_extensions" json:"allowed_extensions"`
	// Exclusive rejects a new upload while another is in flight
	Exclusive bool `toml:"exclusive" json:"exclusive"`
	// StartDir is where the file picker opens (empty = working directory)
	StartDir string `toml:"start_dir" json:"start_dir"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// Prompt prefixes user lines; "{user}" expands to the login name
	Prompt string `toml:"prompt" json:"prompt"`
	// Markdown renders agent replies as markdown
	Markdown bool `toml:"markdown" json:"markdown"`
	// ShowStatus shows the status label while a reply is pending
	ShowStatus bool `toml:"show_status" json:"show_status"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Enabled turns the log file on
	Enabled bool `toml:"enabled" json:"enabled"`
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File is the log path (empty = ~/.ragterm/ragterm.log)
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPrompt is the prompt used when none is configured.
const DefaultPrompt = "{user}@agentic-rag:~$ "

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:               "http://127.0.0.1:8000",
			ChatPath:          "/api/chat",
			IngestPath:        "/api/ingest",
			ChatTimeoutSecs:   120,
			IngestTimeoutSecs: 600,
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".pdf", ".txt", ".md", ".html"},
			Exclusive:         false,
		},
		UI: UIConfig{
			Theme:      "auto",
			Prompt:     DefaultPrompt,
			Markdown:   true,
			ShowStatus: true,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// ChatTimeout returns the chat call bound. Zero means no bound.
func (b BackendConfig) ChatTimeout() time.Duration {
	return time.Duration(b.ChatTimeoutSecs) * time.Second
}

// IngestTimeout returns the upload bound. Zero means no bound.
func (b BackendConfig) IngestTimeout() time.Duration {
	return time.Duration(b.IngestTimeoutSecs) * time.Second
}

// PromptString expands the configured prompt for the current user.
func (u UIConfig) PromptString() string {
	p := u.Prompt
	if p == "" {
		p = DefaultPrompt
	}
	return strings.ReplaceAll(p, "{user}", currentUser())
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Windows reports DOMAIN\name.
		if i := strings.LastIndexAny(u.Username, `\/`); i >= 0 {
			return u.Username[i+1:]
		}
		return u.Username
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragterm configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragterm"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// HistoryPath returns the path of the REPL input history.
func HistoryPath() (string, error) {
	return inConfigDir("chat_history")
}

// LogPath returns the log file path, honouring logging.file.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	return inConfigDir("ragterm.log")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	candidates := []func() (string, error){ConfigPathTOML, ConfigPathJSON}
	for _, pathFn := range candidates {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			// A broken file falls through to the next candidate.
			loadErr = err
			continue
		}
		return cfg, nil
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, everything else as TOML. Values missing from
// the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

const tomlHeader = `# ragterm configuration file
# Environment variables (RAGTERM_*) override these values.

`

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(tomlHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes    = []string{"auto", "dark", "light"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Backend
	if u, err := url.Parse(c.Backend.URL); err != nil {
		add("backend.url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("backend.url", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("backend.url", "missing host")
	}
	if !strings.HasPrefix(c.Backend.ChatPath, "/") {
		add("backend.chat_path", "must start with '/'")
	}
	if !strings.HasPrefix(c.Backend.IngestPath, "/") {
		add("backend.ingest_path", "must start with '/'")
	}
	if c.Backend.ChatTimeoutSecs < 0 {
		add("backend.chat_timeout_secs", "must be >= 0, got %d", c.Backend.ChatTimeoutSecs)
	}
	if c.Backend.IngestTimeoutSecs < 0 {
		add("backend.ingest_timeout_secs", "must be >= 0, got %d", c.Backend.IngestTimeoutSecs)
	}

	// Upload
	if len(c.Upload.AllowedExtensions) == 0 {
		add("upload.allowed_extensions", "at least one extension is required")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext, `/\ `) {
			add("upload.allowed_extensions", "invalid extension %q, expected a form like .pdf", ext)
		}
	}
	if c.Upload.StartDir != "" {
		if info, err := os.Stat(c.Upload.StartDir); err != nil || !info.IsDir() {
			add("upload.start_dir", "%q is not a directory", c.Upload.StartDir)
		}
	}

	// UI
	if !slices.Contains(validThemes, c.UI.Theme) {
		add("ui.theme", "invalid theme %q, must be one of: %s", c.UI.Theme, strings.Join(validThemes, ", "))
	}

	// Logging
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		add("logging.level", "invalid level %q, must be one of: %s", c.Logging.Level, strings.Join(validLogLevels, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty values and normalizes case.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.ChatPath == "" {
		c.Backend.ChatPath = defaults.Backend.ChatPath
	}
	if c.Backend.IngestPath == "" {
		c.Backend.IngestPath = defaults.Backend.IngestPath
	}
	if c.Upload.AllowedExtensions == nil {
		c.Upload.AllowedExtensions = defaults.Upload.AllowedExtensions
	}
	for i, ext := range c.Upload.AllowedExtensions {
		c.Upload.AllowedExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.UI.Prompt == "" {
		c.UI.Prompt = defaults.UI.Prompt
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric or boolean values are ignored.
//
// Supported environment variables:
//   - RAGTERM_BACKEND_URL: overrides backend.url
//   - RAGTERM_CHAT_TIMEOUT: overrides backend.chat_timeout_secs
//   - RAGTERM_INGEST_TIMEOUT: overrides backend.ingest_timeout_secs
//   - RAGTERM_THEME: overrides ui.theme
//   - RAGTERM_PROMPT: overrides ui.prompt
//   - RAGTERM_LOG_LEVEL: overrides logging.level
//   - RAGTERM_UPLOAD_EXCLUSIVE: "1" or "true" serializes uploads
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RAGTERM_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v, ok := envInt("RAGTERM_CHAT_TIMEOUT"); ok {
		c.Backend.ChatTimeoutSecs = v
	}
	if v, ok := envInt("RAGTERM_INGEST_TIMEOUT"); ok {
		c.Backend.IngestTimeoutSecs = v
	}
	if v := os.Getenv("RAGTERM_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("RAGTERM_PROMPT"); v != "" {
		c.UI.Prompt = v
	}
	if v := os.Getenv("RAGTERM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := envBool("RAGTERM_UPLOAD_EXCLUSIVE"); ok {
		c.Upload.Exclusive = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return v, true
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its file key (e.g. "backend.url").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value and stores it under key (e.g. "ui.theme"). Lists are
// comma separated. The result is not validated; call Validate afterwards.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("key %q is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("key %q is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected a boolean, got %q", value)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		field.SetInt(int64(n))
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// Keys returns every settable key in file order.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tagName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// =============================================================================
// UTILITIES
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Upload.AllowedExtensions = slices.Clone(c.Upload.AllowedExtensions)
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
