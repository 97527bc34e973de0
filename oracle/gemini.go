/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// Gemini normalizes names with the Gemini API in JSON response mode.
type Gemini struct {
	model    string
	generate generateFunc
}

// NewGemini returns a Gemini oracle. An empty model selects
// DefaultGeminiModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errGeminiAPIKeyNotSet
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		model: model,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			})
			if err != nil {
				return "", err
			}

			return result.Text(), nil
		},
	}, nil
}

// Normalize sends all names in one GenerateContent call.
func (g *Gemini) Normalize(ctx context.Context, names []string) (map[string]string, error) {
	logger.Debug("Calling Gemini", "model", g.model, "names", len(names))

	text, err := g.generate(ctx, g.model, BuildPrompt(names))
	if err != nil {
		return nil, fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	if text == "" {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, errEmptyResponse)
	}

	return ParseResponse(text)
}
