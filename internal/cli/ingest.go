// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragterm/internal/files"
)

// ingestOptions holds the flags of the ingest command.
type ingestOptions struct {
	watchDir    string
	debounce    time.Duration
	minInterval time.Duration
	retryDelay  time.Duration
}

func newIngestCmd(a *app) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest [PATH|GLOB...]",
		Short: "Upload documents to the RAG pipeline",
		Long: `Upload documents to the RAG pipeline in one batch.

Arguments may be files, directories (searched recursively) or globs such
as "docs/**/*.md". Only allowed document types are sent.

With --watch, new or rewritten documents under DIR are uploaded in
batches until interrupted.`,
		Example: `  ragterm ingest report.pdf notes/
  ragterm ingest "papers/**/*.pdf"
  ragterm ingest --watch ./inbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.watchDir == "" {
				return &UsageError{Message: "ingest: at least one path or --watch DIR is required"}
			}

			ctx := commandContext(cmd)
			if opts.watchDir != "" {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}
			return a.ingest(ctx, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.watchDir, "watch", "w", "", "Watch DIR and upload new documents")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Quiet period before a changed file is uploaded")
	cmd.Flags().DurationVar(&opts.minInterval, "min-interval", 2*time.Second, "Minimum gap between two watch uploads")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", 5*time.Second, "Wait before re-sending documents whose upload failed")
	return cmd
}

// ingest uploads the documents named by patterns and then, if requested,
// keeps watching a directory.
func (a *app) ingest(ctx context.Context, patterns []string, opts *ingestOptions, out io.Writer) error {
	filter := a.filter()
	rec := &recordingBackend{Backend: a.client}
	ctrl := a.controller(rec)

	printer := newTranscriptPrinter(out, nil)
	printer.Skip(ctrl.State().Log)

	if len(patterns) > 0 {
		sel, err := files.Expand(patterns, filter)
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		reportRejected(out, sel.Rejected)
		if len(sel.Files) == 0 {
			return &CommandError{Command: "ingest", Reason: "no documents matched (allowed: " + filter.String() + ")"}
		}

		ctrl.Upload(ctx, sel.Files...)
		printer.Flush(ctrl.State().Log)
		if rec.ingestErr != nil {
			return &CommandError{Command: "ingest", Reason: "upload failed", Err: rec.ingestErr}
		}
	}

	if opts.watchDir == "" {
		return nil
	}

	w, err := files.NewWatcher(files.WatchConfig{
		Dir:         opts.watchDir,
		Filter:      filter,
		Debounce:    opts.debounce,
		MinInterval: opts.minInterval,
		RetryDelay:  opts.retryDelay,
		Logger:      a.logger,
	})
	if err != nil {
		return &CommandError{Command: "ingest", Reason: "cannot watch " + opts.watchDir, Err: err}
	}

	fmt.Fprintln(out, RenderConditional(DimStyle, "Watching "+opts.watchDir+" for new documents (Ctrl+C to stop)"))

	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		ctrl.Upload(ctx, paths...)
		printer.Flush(ctrl.State().Log)
		err := rec.ingestErr
		rec.ingestErr = nil
		return err
	})
}
