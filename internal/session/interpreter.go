// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jeranaias/ragterm/internal/model"
)

// UploadToken is the control token that opens the file-selection surface.
const UploadToken = "/upload"

// InputKind classifies raw user input.
type InputKind int

const (
	InputIgnored InputKind = iota // empty or whitespace only
	InputUpload                   // the upload control token
	InputQuery                    // a chat query
)

// String returns the string representation of the kind.
func (k InputKind) String() string {
	switch k {
	case InputIgnored:
		return "ignored"
	case InputUpload:
		return "upload"
	case InputQuery:
		return "query"
	default:
		return "unknown"
	}
}

var fold = cases.Fold()

// Classify trims raw input and decides what it is. The returned text is the
// trimmed input.
func Classify(raw string) (InputKind, string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return InputIgnored, ""
	}
	if fold.String(text) == UploadToken {
		return InputUpload, text
	}
	return InputQuery, text
}

// Submit applies one user submission.
//
// A nil effect means the input was ignored (empty input, or a chat request
// is still pending) and the driver must keep the input buffer as is. Any
// other effect means the input was consumed and the buffer must be cleared
// right away.
func Submit(s State, raw string) (State, Effect) {
	if s.IsProcessing {
		return s, nil
	}

	kind, text := Classify(raw)
	switch kind {
	case InputUpload:
		return s, OpenFilePicker{}
	case InputQuery:
		s.Log = s.Log.Append(model.NewUserMessage(text))
		next, send := BeginChat(s, text)
		return next, send
	default:
		return s, nil
	}
}
