// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package series

import (
	"testing"

	"github.com/humaidq/labtrend/report"
)

func bound(f float64) *float64 {
	return &f
}

func TestCoerceResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text      string
		inclusive bool
		value     float64
		ok        bool
	}{
		{"13.5", false, 13.5, true},
		{"<0.5", false, 0.5, true},
		{"> 90", false, 90, true},
		{"<=5", false, 0, false},
		{"<=5", true, 5, true},
		{"≥ 60", true, 60, true},
		{"Negative", false, 0, false},
		{"", false, 0, false},
	}

	for _, tt := range tests {
		value, ok := CoerceResult(tt.text, tt.inclusive)
		if ok != tt.ok || value != tt.value {
			t.Fatalf("CoerceResult(%q, %v) = (%v, %v), expected (%v, %v)", tt.text, tt.inclusive, value, ok, tt.value, tt.ok)
		}
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ri := report.Simple(bound(13), bound(17))

	tests := []struct {
		value float64
		ri    report.ReferenceInterval
		want  RangeStatus
	}{
		{12.9, ri, StatusLow},
		{13, ri, StatusNormal},
		{17.5, ri, StatusHigh},
		{250, report.Simple(nil, bound(200)), StatusHigh},
		{30, report.Simple(bound(40), nil), StatusLow},
		{1, report.Simple(nil, nil), StatusUnknown},
		{1, report.Tiered(report.Tiers{}), StatusUnknown},
	}

	for _, tt := range tests {
		if got := Status(tt.value, tt.ri); got != tt.want {
			t.Fatalf("Status(%v, %s): expected %s, got %s", tt.value, tt.ri, tt.want, got)
		}
	}
}

func TestLatestStatus(t *testing.T) {
	t.Parallel()

	s := Series{Points: []Point{
		{Date: "2023-01-01", Result: "12", ReferenceInterval: report.Simple(bound(13), bound(17))},
		{Date: "2023-02-01", Result: "18", ReferenceInterval: report.Simple(bound(13), bound(17))},
	}}

	p, status, ok := s.LatestStatus(false)
	if !ok || p.Result != "18" || status != StatusHigh {
		t.Fatalf("unexpected latest status %+v %s %v", p, status, ok)
	}

	qualitative := Series{Points: []Point{{Date: "2023-01-01", Result: "Negative"}}}
	if _, status, ok := qualitative.LatestStatus(false); !ok || status != StatusUnknown {
		t.Fatalf("expected unknown status, got %s %v", status, ok)
	}
}
