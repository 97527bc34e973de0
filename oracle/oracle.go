/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package oracle

import (
	"context"
	"fmt"

	"github.com/humaidq/labtrend/logging"
)

var logger = logging.Logger(logging.SourceOracle)

// Oracle kinds accepted by New.
const (
	KindBuiltin = "builtin"
	KindOllama  = "ollama"
	KindGemini  = "gemini"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// Normalizer maps raw lab parameter names to canonical names. Names it has
// no answer for may be left out of the reply.
type Normalizer interface {
	Normalize(ctx context.Context, names []string) (map[string]string, error)
}

// Config holds the settings of every oracle kind.
type Config struct {
	OllamaURL    string
	OllamaModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// New builds the oracle named by kind. An empty kind selects the builtin
// matcher.
func New(ctx context.Context, kind string, cfg Config) (Normalizer, error) {
	switch kind {
	case "", KindBuiltin:
		return NewBuiltin(), nil
	case KindOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	case KindGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownOracle, kind)
}
