// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// fallbackWidth is used when stdout is not a terminal.
	fallbackWidth = 80

	// minWrapWidth keeps rendered replies readable on tiny terminals.
	minWrapWidth = 40
)

// terminal describes what the standard streams are attached to. It is
// detected once per process.
type terminal struct {
	stdinTTY  bool
	stdoutTTY bool
	colors    bool
}

var currentTerminal = sync.OnceValue(func() terminal {
	t := terminal{
		stdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		stdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
	}
	t.colors = wantColors(os.Getenv, t.stdoutTTY)
	return t
})

// wantColors applies NO_COLOR (https://no-color.org/) and FORCE_COLOR on
// top of the TTY check. NO_COLOR wins when both are set.
func wantColors(getenv func(string) string, tty bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case getenv("FORCE_COLOR") != "":
		return true
	default:
		return tty
	}
}

// interactive reports whether both ends of the session are a terminal,
// which the full-screen interface needs.
func (t terminal) interactive() bool {
	return t.stdinTTY && t.stdoutTTY
}

// profile is the color profile for CLI output.
func (t terminal) profile() termenv.Profile {
	if !t.colors {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// width returns the stdout width for wrapping rendered replies.
func (t terminal) width() int {
	if !t.stdoutTTY {
		return fallbackWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return max(w, minWrapWidth)
}
