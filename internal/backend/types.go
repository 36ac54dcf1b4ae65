// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// IngestField is the multipart field name shared by every uploaded file.
const IngestField = "files"

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response body of the chat endpoint.
// Reply is a pointer so that a missing field can be told apart from "".
type ChatResponse struct {
	Reply *string `json:"reply"`
}

// IngestResponse is the response body of the ingest endpoint.
type IngestResponse struct {
	TotalChunks *int `json:"total_chunks"`
}

// ErrorResponse is the error body some backends return with a non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
