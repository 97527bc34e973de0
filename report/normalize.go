/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

// Changes summarises what Normalize did to one report. It is informational
// and nothing downstream depends on it.
type Changes struct {
	Renamed  int
	Mapping  map[string]string
	Promoted int
}

// Normalize returns a copy of r with parameter names rewritten through
// resolved and band-less tiered intervals promoted to the simple form. A
// name is only rewritten to a non-empty value that differs from it.
func Normalize(r Report, resolved map[string]string, parser IntervalParser) (Report, Changes) {
	out := Report{
		PatientName: r.PatientName,
		ReportDate:  r.ReportDate,
	}

	changes := Changes{Mapping: map[string]string{}}

	if r.Parameters != nil {
		out.Parameters = make([]Parameter, len(r.Parameters))
	}

	for i, p := range r.Parameters {
		if canonical, ok := resolved[p.Name]; ok && canonical != "" && canonical != p.Name {
			logger.Debug("Renaming parameter", "from", p.Name, "to", canonical)

			if _, seen := changes.Mapping[p.Name]; !seen {
				changes.Mapping[p.Name] = canonical
			}

			p.Name = canonical
			changes.Renamed++
		}

		if promoted, ok := parser.Promote(p.ReferenceInterval); ok {
			p.ReferenceInterval = promoted
			changes.Promoted++
		}

		out.Parameters[i] = p
	}

	return out, changes
}

// Names returns the distinct parameter names across reports in first-seen
// order.
func Names(reports []Report) []string {
	seen := make(map[string]struct{})

	var names []string

	for _, r := range reports {
		for _, p := range r.Parameters {
			if _, ok := seen[p.Name]; ok {
				continue
			}

			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}

	return names
}
