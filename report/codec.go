/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Quarantined describes a parameter that failed validation at ingestion and
// was left out of the decoded report.
type Quarantined struct {
	Index int
	Name  string
	Err   error
}

func (q Quarantined) Error() string {
	if q.Name == "" {
		return fmt.Sprintf("parameter %d: %v", q.Index, q.Err)
	}

	return fmt.Sprintf("parameter %d (%s): %v", q.Index, q.Name, q.Err)
}

func (q Quarantined) Unwrap() error {
	return q.Err
}

type rawReport struct {
	PatientName json.RawMessage `json:"patient_name"`
	ReportDate  json.RawMessage `json:"report_date"`
	Parameters  json.RawMessage `json:"parameters"`
}

type rawParameter struct {
	Name              json.RawMessage   `json:"name"`
	Result            json.RawMessage   `json:"result"`
	Unit              json.RawMessage   `json:"unit"`
	ReferenceInterval ReferenceInterval `json:"reference_interval"`
}

// Decode validates an extracted report payload. Parameters that fail
// validation are returned as quarantined instead of failing the report. An
// error is returned only when the payload as a whole is unusable.
func Decode(data []byte) (Report, []Quarantined, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Report{}, nil, errNotObject
	}

	var raw rawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return Report{}, nil, fmt.Errorf("failed to decode report: %w", err)
	}

	var r Report

	patient, err := decodeScalar(raw.PatientName)
	if err != nil {
		return Report{}, nil, fmt.Errorf("patient_name: %w", err)
	}

	if patient != nil {
		r.PatientName = strings.TrimSpace(*patient)
	}

	date, err := decodeScalar(raw.ReportDate)
	if err != nil {
		return Report{}, nil, fmt.Errorf("report_date: %w", err)
	}

	if date != nil {
		r.ReportDate = strings.TrimSpace(*date)
	}

	if r.ReportDate == "unknown_date" {
		r.ReportDate = UnknownDate
	}

	params := bytes.TrimSpace(raw.Parameters)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return r, nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(params, &items); err != nil {
		return Report{}, nil, errParametersNotArray
	}

	var quarantined []Quarantined

	r.Parameters = make([]Parameter, 0, len(items))

	for i, item := range items {
		p, err := decodeParameter(item)
		if err != nil {
			quarantined = append(quarantined, Quarantined{Index: i, Name: p.Name, Err: err})
			continue
		}

		r.Parameters = append(r.Parameters, p)
	}

	return r, quarantined, nil
}

func decodeParameter(data json.RawMessage) (Parameter, error) {
	var raw rawParameter

	var nameProbe struct {
		Name json.RawMessage `json:"name"`
	}

	if err := json.Unmarshal(data, &nameProbe); err != nil {
		return Parameter{}, err
	}

	var p Parameter

	name, err := decodeScalar(nameProbe.Name)
	if err != nil || (name != nil && bytes.TrimSpace(nameProbe.Name)[0] != '"') {
		return Parameter{}, errNameNotString
	}

	if name != nil {
		p.Name = *name
	}

	if strings.TrimSpace(p.Name) == "" {
		return p, errEmptyName
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return p, err
	}

	result, err := decodeScalar(raw.Result)
	if err != nil {
		return p, fmt.Errorf("result: %w", err)
	}

	if result != nil {
		p.Result = *result
	}

	unit, err := decodeScalar(raw.Unit)
	if err != nil {
		return p, fmt.Errorf("unit: %w", err)
	}

	p.Unit = unit
	p.ReferenceInterval = raw.ReferenceInterval

	return p, nil
}

// Encode renders a report as indented JSON.
func Encode(r Report) ([]byte, error) {
	if r.Parameters == nil {
		r.Parameters = []Parameter{}
	}

	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	return append(data, '\n'), nil
}
