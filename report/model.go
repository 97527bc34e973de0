/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnknownDate is the report date used when neither the report nor its file
// name carries a usable date.
const UnknownDate = "unknown"

// Report is one lab report as produced by the extraction step.
type Report struct {
	PatientName string      `json:"patient_name"`
	ReportDate  string      `json:"report_date"`
	Parameters  []Parameter `json:"parameters"`
}

// Parameter is a single measurement inside a report.
type Parameter struct {
	Name              string            `json:"name"`
	Result            string            `json:"result"`
	Unit              *string           `json:"unit"`
	ReferenceInterval ReferenceInterval `json:"reference_interval"`
}

// IntervalForm tags which half of a ReferenceInterval is populated.
type IntervalForm int

// IntervalForm values.
const (
	FormTiered IntervalForm = iota
	FormSimple
)

// Tiers holds the named risk bands of a tiered reference interval. Band text
// is kept verbatim. Other carries a free-text range with no named bands.
type Tiers struct {
	Normal   *string `json:"normal"`
	Medium   *string `json:"medium"`
	High     *string `json:"high"`
	VeryHigh *string `json:"veryhigh"`
	Other    *string `json:"other"`
}

// HasBands reports whether any of the four named bands carries text.
func (t Tiers) HasBands() bool {
	for _, band := range []*string{t.Normal, t.Medium, t.High, t.VeryHigh} {
		if nonEmpty(band) {
			return true
		}
	}

	return false
}

func (t Tiers) isZero() bool {
	return t.Normal == nil && t.Medium == nil && t.High == nil && t.VeryHigh == nil && t.Other == nil
}

// ReferenceInterval is either tiered (named bands) or simple (numeric
// bounds), never both. SourceText keeps the free text a simple interval was
// promoted from.
type ReferenceInterval struct {
	Form       IntervalForm
	Tiers      Tiers
	Lower      *float64
	Upper      *float64
	SourceText *string
}

// Simple builds a simple-form interval.
func Simple(lower, upper *float64) ReferenceInterval {
	return ReferenceInterval{Form: FormSimple, Lower: lower, Upper: upper}
}

// Tiered builds a tiered-form interval.
func Tiered(t Tiers) ReferenceInterval {
	return ReferenceInterval{Form: FormTiered, Tiers: t}
}

// IsSimple reports whether the interval is in simple form.
func (ri ReferenceInterval) IsSimple() bool {
	return ri.Form == FormSimple
}

// String renders the interval for display.
func (ri ReferenceInterval) String() string {
	if ri.IsSimple() {
		switch {
		case ri.Lower != nil && ri.Upper != nil:
			return formatFloat(*ri.Lower) + " - " + formatFloat(*ri.Upper)
		case ri.Lower != nil:
			return "> " + formatFloat(*ri.Lower)
		case ri.Upper != nil:
			return "< " + formatFloat(*ri.Upper)
		}

		return ""
	}

	var parts []string

	for _, band := range []struct {
		label string
		text  *string
	}{
		{"normal", ri.Tiers.Normal},
		{"medium", ri.Tiers.Medium},
		{"high", ri.Tiers.High},
		{"veryhigh", ri.Tiers.VeryHigh},
		{"other", ri.Tiers.Other},
	} {
		if nonEmpty(band.text) {
			parts = append(parts, band.label+": "+strings.TrimSpace(*band.text))
		}
	}

	return strings.Join(parts, ", ")
}

type simpleJSON struct {
	Lower      *float64 `json:"lower,omitempty"`
	Upper      *float64 `json:"upper,omitempty"`
	SourceText *string  `json:"source_text,omitempty"`
}

// MarshalJSON writes tiered intervals with all band keys and simple
// intervals with only the bounds that are set.
func (ri ReferenceInterval) MarshalJSON() ([]byte, error) {
	if ri.IsSimple() {
		return json.Marshal(simpleJSON{Lower: ri.Lower, Upper: ri.Upper, SourceText: ri.SourceText})
	}

	return json.Marshal(ri.Tiers)
}

// tierAliases maps folded keys, including the labels lab reports print, onto
// the canonical band.
var tierAliases = map[string]string{
	"normal":          "normal",
	"desirable":       "normal",
	"low risk":        "normal",
	"optimal":         "normal",
	"medium":          "medium",
	"borderline":      "medium",
	"borderline high": "medium",
	"average risk":    "medium",
	"borderline risk": "medium",
	"high":            "high",
	"moderate risk":   "high",
	"veryhigh":        "veryhigh",
	"very high":       "veryhigh",
	"undesirable":     "veryhigh",
	"high risk":       "veryhigh",
	"other":           "other",
}

func foldKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)

	return strings.Join(strings.Fields(key), " ")
}

// UnmarshalJSON accepts an object, null, or a string holding an object.
// Anything else in string form decodes to an empty tiered interval.
func (ri *ReferenceInterval) UnmarshalJSON(data []byte) error {
	*ri = ReferenceInterval{Form: FormTiered}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}

		inner = strings.TrimSpace(inner)
		if !strings.HasPrefix(inner, "{") {
			return nil
		}

		var nested ReferenceInterval
		if err := json.Unmarshal([]byte(inner), &nested); err != nil {
			return nil
		}

		*ri = nested

		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var hasBounds bool

	for key, raw := range fields {
		folded := foldKey(key)

		switch folded {
		case "lower", "upper":
			value, ok, err := decodeBound(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}

			if !ok {
				continue
			}

			hasBounds = true

			if folded == "lower" {
				ri.Lower = &value
			} else {
				ri.Upper = &value
			}

			continue
		case "source text":
			text, err := decodeScalar(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}

			ri.SourceText = text

			continue
		}

		band, ok := tierAliases[folded]
		if !ok {
			continue
		}

		text, err := decodeScalar(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, errInvalidTier)
		}

		if text == nil {
			continue
		}

		switch band {
		case "normal":
			ri.Tiers.Normal = text
		case "medium":
			ri.Tiers.Medium = text
		case "high":
			ri.Tiers.High = text
		case "veryhigh":
			ri.Tiers.VeryHigh = text
		case "other":
			ri.Tiers.Other = text
		}
	}

	switch {
	case hasBounds && !ri.Tiers.isZero():
		return errMixedInterval
	case hasBounds, ri.SourceText != nil && ri.Tiers.isZero():
		ri.Form = FormSimple
	default:
		ri.SourceText = nil
	}

	return nil
}

func decodeBound(raw json.RawMessage) (float64, bool, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, true, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if value, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return value, true, nil
		}
	}

	return 0, false, errInvalidBound
}

// decodeScalar reads a string or number as text. Numbers keep their literal
// spelling so "13.50" is not rewritten as "13.5".
func decodeScalar(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}

		return &text, nil
	}

	var number json.Number

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	if err := decoder.Decode(&number); err != nil {
		return nil, errInvalidScalar
	}

	text := number.String()

	return &text, nil
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
