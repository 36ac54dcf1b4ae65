// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"slices"

	"github.com/jeranaias/ragterm/internal/model"
)

// =============================================================================
// UPLOAD PIPELINE
// =============================================================================

// UploadResult is the settled outcome of one ingest transfer.
type UploadResult struct {
	Files  int // number of files in the batch
	Chunks int // indexed units reported by the backend
	Err    error
}

// SelectFiles adds paths to the file-selection surface, keeping selection
// order and dropping exact duplicates.
func SelectFiles(s State, paths ...string) State {
	sel := slices.Clone(s.Selection)
	for _, p := range paths {
		if p == "" || slices.Contains(sel, p) {
			continue
		}
		sel = append(sel, p)
	}
	s.Selection = sel
	return s
}

// ClearSelection empties the file-selection surface.
func ClearSelection(s State) State {
	s.Selection = nil
	return s
}

// BeginUpload starts a batch upload of the current selection.
//
// An empty selection is a no-op and returns a nil effect. Otherwise one start
// notice is appended and the returned effect carries every selected file.
func BeginUpload(s State) (State, *SendUpload) {
	if len(s.Selection) == 0 {
		return s, nil
	}

	if s.ExclusiveUploads && s.UploadsInFlight > 0 {
		s.Log = s.Log.Append(model.NewSystemMessage(UploadBusyText))
		return ClearSelection(s), nil
	}

	files := slices.Clone(s.Selection)
	s.Log = s.Log.Append(model.NewSystemMessage(fmt.Sprintf(uploadStartFormat, len(files))))
	s.UploadsInFlight++
	return s, &SendUpload{Files: files}
}

// SettleUpload reports the outcome of an ingest transfer as one system
// message and clears the file-selection surface on both paths.
func SettleUpload(s State, r UploadResult) State {
	text := UploadErrorText
	if r.Err == nil {
		text = fmt.Sprintf(uploadSuccessFormat, r.Files, r.Chunks)
	}
	s.Log = s.Log.Append(model.NewSystemMessage(text))

	if s.UploadsInFlight > 0 {
		s.UploadsInFlight--
	}
	return ClearSelection(s)
}
