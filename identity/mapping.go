/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package identity

import (
	"maps"
	"slices"
	"strings"
)

// Mapping is an immutable raw name to canonical name table. Every change
// produces a new Mapping with a higher version.
type Mapping struct {
	version int
	entries map[string]string
}

// NewMapping builds a mapping from entries. Empty keys and empty canonical
// names are dropped.
func NewMapping(entries map[string]string) Mapping {
	m := Mapping{entries: make(map[string]string, len(entries))}

	for raw, canonical := range entries {
		if raw == "" || strings.TrimSpace(canonical) == "" {
			continue
		}

		m.entries[raw] = canonical
	}

	return m
}

// Version counts the changes applied since the mapping was loaded.
func (m Mapping) Version() int {
	return m.version
}

// Lookup returns the canonical name recorded for raw.
func (m Mapping) Lookup(raw string) (string, bool) {
	canonical, ok := m.entries[raw]

	return canonical, ok
}

// Len returns the number of recorded names.
func (m Mapping) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the recorded names.
func (m Mapping) Entries() map[string]string {
	out := make(map[string]string, len(m.entries))
	maps.Copy(out, m.entries)

	return out
}

// Project maps every name to its canonical form. Names without an entry map
// to themselves.
func (m Mapping) Project(names []string) map[string]string {
	out := make(map[string]string, len(names))

	for _, name := range names {
		if canonical, ok := m.entries[name]; ok {
			out[name] = canonical
			continue
		}

		out[name] = name
	}

	return out
}

func (m Mapping) with(changes map[string]string) Mapping {
	if len(changes) == 0 {
		return m
	}

	next := Mapping{version: m.version + 1, entries: m.Entries()}
	maps.Copy(next.entries, changes)

	return next
}

// Unresolved returns the names with no entry in m, sorted and without
// duplicates.
func Unresolved(names []string, m Mapping) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, name := range names {
		if name == "" {
			continue
		}

		if _, ok := m.entries[name]; ok {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	slices.Sort(out)

	return out
}

// Merge records each (raw, canonical) update whose canonical name is
// non-empty and differs from raw. Existing entries are never overwritten.
// m is left untouched; when nothing is recorded m itself is returned.
func Merge(m Mapping, updates map[string]string) Mapping {
	changes := make(map[string]string)

	for raw, canonical := range updates {
		canonical = strings.TrimSpace(canonical)
		if raw == "" || canonical == "" || canonical == raw {
			continue
		}

		if _, ok := m.entries[raw]; ok {
			continue
		}

		changes[raw] = canonical
	}

	return m.with(changes)
}

// Confirm records names as their own canonical form so that a name the
// oracle has already seen and left unchanged is not sent again. Existing
// entries are never overwritten.
func Confirm(m Mapping, names []string) Mapping {
	changes := make(map[string]string)

	for _, name := range names {
		if name == "" {
			continue
		}

		if _, ok := m.entries[name]; ok {
			continue
		}

		changes[name] = name
	}

	return m.with(changes)
}
