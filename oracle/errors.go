/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package oracle

import "errors"

var (
	// ErrMalformedResponse is returned when a reply is not a JSON object of
	// string to string.
	ErrMalformedResponse = errors.New("malformed normalization response")
	// ErrUnknownOracle is returned by New for an unsupported kind.
	ErrUnknownOracle = errors.New("unknown oracle")

	errOllamaConfigIncomplete = errors.New("ollama configuration incomplete: URL and model must be set")
	errGeminiAPIKeyNotSet     = errors.New("gemini API key is not set")
	errEmptyResponse          = errors.New("empty response")
	errNoChoices              = errors.New("response has no choices")
)
