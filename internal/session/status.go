// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "strings"

// Status labels shown while a placeholder is empty.
const (
	StatusWeather   = "Accessing Open-Meteo API..."
	StatusSandbox   = "Executing Python sandbox..."
	StatusDocuments = "Searching indexed documents..."
	StatusThinking  = "Agentic RAG is thinking..."
)

type statusRule struct {
	keywords []string
	label    string
}

// Order is precedence: the first rule with a matching keyword wins.
var statusRules = []statusRule{
	{keywords: []string{"weather", "temperature"}, label: StatusWeather},
	{keywords: []string{"python", "script", "calculate", "compare"}, label: StatusSandbox},
	{keywords: []string{"document", "project", "what is", "about"}, label: StatusDocuments},
}

// StatusFor derives a "what is happening" label from the pending query text.
// Matching is a case-insensitive substring test.
func StatusFor(query string) string {
	q := strings.ToLower(query)
	for _, rule := range statusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.label
			}
		}
	}
	return StatusThinking
}
