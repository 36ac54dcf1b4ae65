// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the document types the backend indexes.
var DefaultExtensions = []string{".pdf", ".txt", ".md", ".html"}

// Filter accepts paths by extension, ignoring case.
type Filter struct {
	exts []string
}

// NewFilter builds a filter from extensions such as ".pdf". With no
// arguments it uses DefaultExtensions.
func NewFilter(exts ...string) Filter {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	f := Filter{exts: make([]string, 0, len(exts))}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(f.exts, ext) {
			f.exts = append(f.exts, ext)
		}
	}
	return f
}

// Allows reports whether path has one of the accepted extensions.
func (f Filter) Allows(path string) bool {
	return slices.Contains(f.exts, strings.ToLower(filepath.Ext(path)))
}

// Extensions returns the accepted extensions in configuration order.
func (f Filter) Extensions() []string {
	return slices.Clone(f.exts)
}

// String renders the filter for prompts, e.g. ".pdf, .txt".
func (f Filter) String() string {
	return strings.Join(f.exts, ", ")
}
