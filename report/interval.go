/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/humaidq/labtrend/logging"
)

var logger = logging.Logger(logging.SourceEngine)

const number = `([+-]?\d*\.?\d+)`

var (
	rangePattern = regexp.MustCompile(`^` + number + `\s*-\s*` + number)
	lowerPattern = regexp.MustCompile(`^>\s*` + number)
	upperPattern = regexp.MustCompile(`^<\s*` + number)

	inclusiveLowerPattern = regexp.MustCompile(`^(?:>=|≥)\s*` + number)
	inclusiveUpperPattern = regexp.MustCompile(`^(?:<=|≤)\s*` + number)
)

// IntervalParser turns free reference-interval text into numeric bounds.
//
// The default grammar is a two-sided "a - b" range, or a one-sided bound
// introduced by ">" or "<". Inclusive additionally accepts ">=", "<=", "≥"
// and "≤" as one-sided bounds.
type IntervalParser struct {
	Inclusive bool
}

// ParseInterval parses text with the default grammar.
func ParseInterval(text string) (lower, upper *float64) {
	return IntervalParser{}.Parse(text)
}

// Parse returns the bounds found in text. Text that matches no grammar
// yields (nil, nil) and is logged.
func (p IntervalParser) Parse(text string) (lower, upper *float64) {
	trimmed := strings.TrimSpace(text)

	if m := rangePattern.FindStringSubmatch(trimmed); m != nil {
		lo, loOK := parseNumber(m[1])
		hi, hiOK := parseNumber(m[2])

		if loOK && hiOK {
			return lo, hi
		}
	}

	if p.Inclusive {
		if m := inclusiveLowerPattern.FindStringSubmatch(trimmed); m != nil {
			if lo, ok := parseNumber(m[1]); ok {
				return lo, nil
			}
		}

		if m := inclusiveUpperPattern.FindStringSubmatch(trimmed); m != nil {
			if hi, ok := parseNumber(m[1]); ok {
				return nil, hi
			}
		}
	}

	if m := lowerPattern.FindStringSubmatch(trimmed); m != nil {
		if lo, ok := parseNumber(m[1]); ok {
			return lo, nil
		}
	}

	if m := upperPattern.FindStringSubmatch(trimmed); m != nil {
		if hi, ok := parseNumber(m[1]); ok {
			return nil, hi
		}
	}

	logger.Warn("Unparsed reference interval", "text", text)

	return nil, nil
}

// Promotable reports whether ri is a tiered interval with no named bands and
// a free-text range, which is the only shape Promote rewrites.
func Promotable(ri ReferenceInterval) bool {
	return ri.Form == FormTiered && !ri.Tiers.HasBands() && nonEmpty(ri.Tiers.Other)
}

// Promote replaces a band-less tiered interval with the simple form parsed
// from its free text. The simple form is used even when nothing parses; the
// original text stays available in SourceText.
func (p IntervalParser) Promote(ri ReferenceInterval) (ReferenceInterval, bool) {
	if !Promotable(ri) {
		return ri, false
	}

	text := *ri.Tiers.Other
	lower, upper := p.Parse(text)

	promoted := Simple(lower, upper)
	promoted.SourceText = &text

	return promoted, true
}

func parseNumber(s string) (*float64, bool) {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}

	return &value, true
}
