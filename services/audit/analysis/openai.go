// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrUnavailable indicates the analysis service cannot be reached or is
// not configured. Callers degrade to "no suggestion available".
var ErrUnavailable = errors.New("analysis service unavailable")

const systemPrompt = "You are an internal-audit quality consultant. " +
	"Given a nonconformity description from an internal quality audit, " +
	"respond with JSON only: {\"root_cause\": \"...\", \"corrective_action\": \"...\"}. " +
	"Keep each value to one or two sentences."

// OpenAIAnalyzer implements Analyzer with the OpenAI chat completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer builds an analyzer from the environment.
// OPENAI_API_KEY is required; OPENAI_MODEL defaults to gpt-4o-mini.
func NewOpenAIAnalyzer() (*OpenAIAnalyzer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing analysis client", "model", model)
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// SuggestRemediation implements Analyzer.
func (a *OpenAIAnalyzer) SuggestRemediation(ctx context.Context, description string) (Suggestion, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		slog.Error("Analysis API call failed", "error", err)
		return Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	s, err := parseSuggestion(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Warn("Analysis response not parseable", "error", err)
		return Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}

// parseSuggestion decodes the model's JSON answer, tolerating markdown
// code fences around the object.
func parseSuggestion(content string) (Suggestion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var s Suggestion
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}
	if s.RootCause == "" && s.CorrectiveAction == "" {
		return Suggestion{}, errors.New("suggestion is empty")
	}
	return s, nil
}
