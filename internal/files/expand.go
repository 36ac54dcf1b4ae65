// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rejection is an input that did not make it into the selection.
type Rejection struct {
	Path   string
	Reason string
}

// Selection is the outcome of expanding user input into files.
type Selection struct {
	// Files are absolute paths in input order, without duplicates.
	Files []string
	// Rejected lists inputs that were skipped.
	Rejected []Rejection
}

// Expand turns paths, directories and doublestar globs into a file list.
// Directories contribute every matching file below them. Files the filter
// does not allow are rejected unless they came from a glob or a directory,
// where they are skipped silently. Only a malformed glob is an error.
func Expand(patterns []string, f Filter) (Selection, error) {
	var sel Selection
	seen := make(map[string]struct{})

	add := func(path string) {
		path = normalizePath(path)
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		sel.Files = append(sel.Files, path)
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if hasGlob(pattern) {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return Selection{}, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
			}
			if len(matches) == 0 {
				sel.Rejected = append(sel.Rejected, Rejection{Path: pattern, Reason: "no matches"})
			}
			for _, m := range matches {
				if f.Allows(m) {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			sel.Rejected = append(sel.Rejected, Rejection{Path: pattern, Reason: "not found"})
			continue
		}

		if info.IsDir() {
			for _, m := range walkDir(pattern, f) {
				add(m)
			}
			continue
		}

		if !f.Allows(pattern) {
			sel.Rejected = append(sel.Rejected, Rejection{
				Path:   pattern,
				Reason: "unsupported type (allowed: " + f.String() + ")",
			})
			continue
		}
		add(pattern)
	}

	return sel, nil
}

func walkDir(root string, f Filter) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if f.Allows(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func hasGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func normalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
