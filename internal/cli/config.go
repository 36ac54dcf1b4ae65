// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for ragterm.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   init                Write a default config file
//   path                Show configuration file paths
//   get <key>           Print one value
//   set <key> <value>   Change one value and save
//
// Examples:
//   ragterm config set backend.url http://rag.internal:8000
//   ragterm config set upload.allowed_extensions .pdf,.md
//   ragterm config get ui.theme
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ragterm/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Args:  cobra.NoArgs,
		// Config commands must work without a reachable backend or a
		// valid log file, so only the config itself is loaded.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "init", "path":
				return nil
			}
			return a.loadConfig(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), a.cfg, asJSON)
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output in JSON format")

	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), a.cfg, asJSON)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.targetPath(asJSON)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{Command: "config init", Reason: path + " already exists (use --force to overwrite)"}
			}
			if err := saveConfig(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote ")+path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	path := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPaths(cmd.OutOrStdout(), a.configPath)
		},
	}

	get := &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := a.cfg.Get(args[0])
			if err != nil {
				return &UsageError{Message: err.Error()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(value))
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Change one configuration value and save",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Clone()
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &UsageError{Message: err.Error()}
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			target, err := a.targetPath(false)
			if err != nil {
				return err
			}
			if err := saveConfig(cfg, target); err != nil {
				return err
			}
			a.cfg = cfg

			value, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("Set"), args[0], formatValue(value))
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, path, get, set)
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// targetPath is the file config writes go to: --config if given, else the
// default file of the requested format.
func (a *app) targetPath(asJSON bool) (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	if asJSON {
		return config.ConfigPathJSON()
	}
	return config.ConfigPathTOML()
}

// saveConfig writes cfg in the format implied by the path extension.
func saveConfig(cfg *config.Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func showConfig(out io.Writer, cfg *config.Config, asJSON bool) error {
	if cfg == nil {
		return errors.New("no configuration loaded")
	}
	if asJSON {
		fmt.Fprintln(out, cfg.String())
		return nil
	}
	return toml.NewEncoder(out).Encode(cfg)
}

func showPaths(out io.Writer, explicit string) error {
	if explicit != "" {
		fmt.Fprintln(out, RenderLabel("Config (--config)")+explicit)
		return nil
	}

	rows := []struct {
		label string
		fn    func() (string, error)
	}{
		{"Config (TOML)", config.ConfigPathTOML},
		{"Config (JSON fallback)", config.ConfigPathJSON},
		{"Input history", config.HistoryPath},
	}
	for _, row := range rows {
		p, err := row.fn()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, RenderLabel(row.label)+p)
	}
	return nil
}

// formatValue renders a config value the way set accepts it.
func formatValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(v)
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		PersistentPostRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ragterm version %s\n", Version)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
		},
	}
}
