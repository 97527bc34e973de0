/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package series

import (
	"strconv"
	"strings"

	"github.com/humaidq/labtrend/report"
)

// RangeStatus places a value against a simple reference interval.
type RangeStatus string

// RangeStatus values.
const (
	StatusNormal  RangeStatus = "normal"
	StatusLow     RangeStatus = "low"
	StatusHigh    RangeStatus = "high"
	StatusUnknown RangeStatus = "unknown"
)

// CoerceResult converts a raw result to a number. Leading "<" and
// ">" are dropped; with inclusive set "<=", ">=", "≤" and "≥" are dropped as
// well. Qualitative results report false.
func CoerceResult(text string, inclusive bool) (float64, bool) {
	text = strings.TrimSpace(text)

	if inclusive {
		for _, prefix := range []string{"<=", ">=", "≤", "≥"} {
			if rest, ok := strings.CutPrefix(text, prefix); ok {
				text = rest
				break
			}
		}
	}

	text = strings.TrimLeft(text, "<>")
	text = strings.TrimSpace(text)

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Status compares value with the bounds of a simple interval. Tiered
// intervals and intervals without bounds are StatusUnknown.
func Status(value float64, ri report.ReferenceInterval) RangeStatus {
	if !ri.IsSimple() || (ri.Lower == nil && ri.Upper == nil) {
		return StatusUnknown
	}

	if ri.Lower != nil && value < *ri.Lower {
		return StatusLow
	}

	if ri.Upper != nil && value > *ri.Upper {
		return StatusHigh
	}

	return StatusNormal
}

// LatestStatus returns the most recent dated point and its status. A result
// that is not numeric is StatusUnknown.
func (s Series) LatestStatus(inclusive bool) (Point, RangeStatus, bool) {
	p, ok := s.Latest()
	if !ok {
		return Point{}, StatusUnknown, false
	}

	value, ok := CoerceResult(p.Result, inclusive)
	if !ok {
		return p, StatusUnknown, true
	}

	return p, Status(value, p.ReferenceInterval), true
}
