// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragterm/internal/backend"
	"github.com/jeranaias/ragterm/internal/config"
	"github.com/jeranaias/ragterm/internal/files"
	"github.com/jeranaias/ragterm/internal/logging"
	"github.com/jeranaias/ragterm/internal/session"
	"github.com/jeranaias/ragterm/internal/ui/chat"
	"github.com/jeranaias/ragterm/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app holds the flags and the services built from them.
type app struct {
	// Persistent flags
	configPath string
	backendURL string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	client *backend.Client
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
	}
	return ExitCodeFor(err)
}

// NewRootCmd builds the ragterm command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var plain bool

	root := &cobra.Command{
		Use:   "ragterm",
		Short: "Terminal client for an agentic RAG backend",
		Long: `ragterm is a terminal client for an agentic RAG backend.

Ask questions about your indexed documents, or type /upload to index new
ones. Without a subcommand ragterm opens the full-screen interface; when
stdin is not a terminal (or with --plain) it falls back to a line-mode REPL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain || !currentTerminal().interactive() {
				return a.runREPL(cmd)
			}
			return a.runTUI(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: ~/.ragterm/config.toml)")
	root.PersistentFlags().StringVarP(&a.backendURL, "backend", "b", "", "Backend base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.Flags().BoolVar(&plain, "plain", false, "Use the line-mode REPL instead of the full-screen interface")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newIngestCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig loads the configuration selected by the flags.
func (a *app) loadConfig(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+err.Error()+" (using defaults)")
		}
	}

	if a.backendURL != "" {
		cfg.Backend.URL = strings.TrimRight(a.backendURL, "/")
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --backend: %w", err)
		}
	}

	a.cfg = cfg
	return nil
}

// setup loads config and builds the logger and backend client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	logger, err := logging.New(a.cfg, a.verbose)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+"logging disabled: "+err.Error())
		logger = zap.NewNop()
	}
	a.logger = logger
	a.client = backend.NewClient(clientConfig(a.cfg), logger)

	logger.Debug("ragterm starting",
		zap.String("command", cmd.Name()),
		zap.String("version", Version),
		zap.String("backend", a.client.BaseURL()))
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// clientConfig maps the backend section onto the client configuration.
func clientConfig(cfg *config.Config) *backend.ClientConfig {
	cc := backend.DefaultConfig()
	cc.BaseURL = cfg.Backend.URL
	cc.ChatPath = cfg.Backend.ChatPath
	cc.IngestPath = cfg.Backend.IngestPath
	cc.ChatTimeout = cfg.Backend.ChatTimeout()
	cc.IngestTimeout = cfg.Backend.IngestTimeout()
	return cc
}

// filter returns the upload filter for the configured extensions.
func (a *app) filter() files.Filter {
	return files.NewFilter(a.cfg.Upload.AllowedExtensions...)
}

// controller creates a synchronous session driver with the configured
// options.
func (a *app) controller(b session.Backend, opts ...session.ControllerOption) *session.Controller {
	base := []session.ControllerOption{
		session.WithLogger(a.logger),
		session.WithExclusiveUploads(a.cfg.Upload.Exclusive),
	}
	return session.NewController(b, append(base, opts...)...)
}

// =============================================================================
// TUI
// =============================================================================

func (a *app) runTUI(cmd *cobra.Command) error {
	theme := styles.NewTheme(a.cfg.UI.Theme)

	startDir := a.cfg.Upload.StartDir
	if startDir != "" {
		if abs, err := filepath.Abs(startDir); err == nil {
			startDir = abs
		}
	}

	m := chat.New(a.client, theme, chat.Options{
		Prompt:           a.cfg.UI.PromptString(),
		Markdown:         a.cfg.UI.Markdown,
		ShowStatus:       a.cfg.UI.ShowStatus,
		Filter:           a.filter(),
		StartDir:         startDir,
		ExclusiveUploads: a.cfg.Upload.Exclusive,
		Logger:           a.logger,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// commandContext returns the command context or a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
