// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis wraps the external text-analysis service that
// suggests a root cause and corrective action for a finding description.
//
// The service is best-effort: callers treat a failure as "no suggestion
// available" and never block a finding save on it.
package analysis

import "context"

// Suggestion is the analyzer's proposal for a finding.
type Suggestion struct {
	RootCause        string `json:"root_cause"`
	CorrectiveAction string `json:"corrective_action"`
}

// Analyzer produces remediation suggestions from a nonconformity
// description.
type Analyzer interface {
	// SuggestRemediation returns a suggestion for the description.
	// Errors mean the external service failed; they carry no partial
	// suggestion.
	SuggestRemediation(ctx context.Context, description string) (Suggestion, error)
}

// Noop is an Analyzer that always reports no suggestion. Used when no
// API key is configured.
type Noop struct{}

// SuggestRemediation implements Analyzer.
func (Noop) SuggestRemediation(context.Context, string) (Suggestion, error) {
	return Suggestion{}, ErrUnavailable
}
