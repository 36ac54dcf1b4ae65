// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

// =============================================================================
// FILTER
// =============================================================================

func TestFilter_Allows(t *testing.T) {
	f := NewFilter()

	tests := []struct {
		path string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"notes.md", true},
		{"page.HTML", true},
		{"readme.txt", true},
		{"archive.zip", false},
		{"noext", false},
		{"dir.pdf/file", false},
	}

	for _, tt := range tests {
		if got := f.Allows(tt.path); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNewFilter_Normalizes(t *testing.T) {
	f := NewFilter("PDF", " .Md ", ".pdf", "")
	assert.Equal(t, []string{".pdf", ".md"}, f.Extensions())
	assert.Equal(t, ".pdf, .md", f.String())
}

// =============================================================================
// EXPAND
// =============================================================================

func TestExpand_PathsKeepOrderWithoutDuplicates(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, filepath.Join(dir, "b.md"))
	a := touch(t, filepath.Join(dir, "a.pdf"))

	sel, err := Expand([]string{b, a, b, "  "}, NewFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, sel.Files)
	assert.Empty(t, sel.Rejected)
}

func TestExpand_Glob(t *testing.T) {
	dir := t.TempDir()
	top := touch(t, filepath.Join(dir, "top.md"))
	deep := touch(t, filepath.Join(dir, "sub", "deep", "deep.txt"))
	touch(t, filepath.Join(dir, "sub", "image.png"))

	sel, err := Expand([]string{filepath.Join(dir, "**", "*")}, NewFilter())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{top, deep}, sel.Files)
}

func TestExpand_Directory(t *testing.T) {
	dir := t.TempDir()
	doc := touch(t, filepath.Join(dir, "docs", "guide.html"))
	touch(t, filepath.Join(dir, ".git", "HEAD.txt"))
	touch(t, filepath.Join(dir, "bin", "tool.exe"))

	sel, err := Expand([]string{dir}, NewFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, sel.Files)
}

func TestExpand_Rejections(t *testing.T) {
	dir := t.TempDir()
	zip := touch(t, filepath.Join(dir, "bundle.zip"))
	missing := filepath.Join(dir, "missing.pdf")

	sel, err := Expand([]string{zip, missing, filepath.Join(dir, "*.docx")}, NewFilter())
	require.NoError(t, err)
	assert.Empty(t, sel.Files)
	require.Len(t, sel.Rejected, 3)
	assert.Contains(t, sel.Rejected[0].Reason, "unsupported type")
	assert.Equal(t, "not found", sel.Rejected[1].Reason)
	assert.Equal(t, "no matches", sel.Rejected[2].Reason)
}

func TestExpand_BadPattern(t *testing.T) {
	_, err := Expand([]string{"docs/[a-"}, NewFilter())
	assert.Error(t, err)
}
