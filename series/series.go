/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package series

import (
	"cmp"
	"slices"
	"time"

	"github.com/humaidq/labtrend/report"
)

// Point is one measurement of one parameter for one patient on one report
// date.
type Point struct {
	Patient           string                   `json:"patient_name"`
	Parameter         string                   `json:"parameter"`
	Date              string                   `json:"report_date"`
	Result            string                   `json:"result"`
	Unit              *string                  `json:"unit,omitempty"`
	ReferenceInterval report.ReferenceInterval `json:"reference_interval"`
	Source            string                   `json:"source_file,omitempty"`
}

// Time returns the report date, or false when the date is unknown.
func (p Point) Time() (time.Time, bool) {
	return report.ParseDate(p.Date)
}

// Series is the ordered points of one (patient, parameter) pair.
type Series struct {
	Patient   string  `json:"patient_name"`
	Parameter string  `json:"parameter"`
	Points    []Point `json:"points"`
}

// NumericPoint is a dated point whose result coerced to a number.
type NumericPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Point Point     `json:"-"`
}

// Aggregate flattens reports into points ordered by patient, parameter and
// date, with unknown dates last. Points that compare equal keep their input
// order. sources, when given, names the file each report came from.
func Aggregate(reports []report.Report, sources []string) []Point {
	var points []Point

	for i, r := range reports {
		var source string
		if i < len(sources) {
			source = sources[i]
		}

		for _, p := range r.Parameters {
			points = append(points, Point{
				Patient:           r.PatientName,
				Parameter:         p.Name,
				Date:              r.ReportDate,
				Result:            p.Result,
				Unit:              p.Unit,
				ReferenceInterval: p.ReferenceInterval,
				Source:            source,
			})
		}
	}

	Sort(points)

	return points
}

// Sort orders points in place the way Aggregate does.
func Sort(points []Point) {
	slices.SortStableFunc(points, comparePoints)
}

func comparePoints(a, b Point) int {
	if c := cmp.Compare(a.Patient, b.Patient); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Parameter, b.Parameter); c != 0 {
		return c
	}

	return compareDates(a.Date, b.Date)
}

func compareDates(a, b string) int {
	aKnown, bKnown := report.IsDate(a), report.IsDate(b)

	switch {
	case aKnown && bKnown:
		return cmp.Compare(a, b)
	case aKnown:
		return -1
	case bKnown:
		return 1
	}

	return 0
}

// Group splits ordered points into one Series per (patient, parameter), in
// the order the pairs first appear.
func Group(points []Point) []Series {
	type key struct{ patient, parameter string }

	index := make(map[key]int)

	var out []Series

	for _, p := range points {
		k := key{p.Patient, p.Parameter}

		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Series{Patient: p.Patient, Parameter: p.Parameter})
		}

		out[i].Points = append(out[i].Points, p)
	}

	return out
}

// Numeric returns the dated points whose result coerces to a number.
func (s Series) Numeric(inclusive bool) []NumericPoint {
	var out []NumericPoint

	for _, p := range s.Points {
		date, ok := p.Time()
		if !ok {
			continue
		}

		value, ok := CoerceResult(p.Result, inclusive)
		if !ok {
			continue
		}

		out = append(out, NumericPoint{Date: date, Value: value, Point: p})
	}

	return out
}

// Latest returns the most recent dated point.
func (s Series) Latest() (Point, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if _, ok := s.Points[i].Time(); ok {
			return s.Points[i], true
		}
	}

	return Point{}, false
}

// Patients returns the distinct patient names in points, sorted.
func Patients(points []Point) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, p := range points {
		if _, ok := seen[p.Patient]; ok {
			continue
		}

		seen[p.Patient] = struct{}{}
		out = append(out, p.Patient)
	}

	slices.Sort(out)

	return out
}

// Parameters returns the distinct parameter names measured for patient,
// sorted.
func Parameters(points []Point, patient string) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, p := range points {
		if p.Patient != patient {
			continue
		}

		if _, ok := seen[p.Parameter]; ok {
			continue
		}

		seen[p.Parameter] = struct{}{}
		out = append(out, p.Parameter)
	}

	slices.Sort(out)

	return out
}

// Export is the aggregated series with patient and parameter indexes, as
// written to a series file.
type Export struct {
	Patients   []string            `json:"patients"`
	Parameters map[string][]string `json:"parameters"`
	Series     []Series            `json:"series"`
}

// NewExport indexes ordered points by patient and parameter.
func NewExport(points []Point) Export {
	e := Export{
		Patients:   Patients(points),
		Parameters: make(map[string][]string),
		Series:     Group(points),
	}

	if e.Patients == nil {
		e.Patients = []string{}
	}

	if e.Series == nil {
		e.Series = []Series{}
	}

	for _, patient := range e.Patients {
		e.Parameters[patient] = Parameters(points, patient)
	}

	return e
}
