/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	strictDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	embeddedDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	if !strictDatePattern.MatchString(s) {
		return false
	}

	_, err := time.Parse(dateLayout, s)

	return err == nil
}

// ParseDate parses a YYYY-MM-DD date. The sentinel UnknownDate and any
// other non-date text report false.
func ParseDate(s string) (time.Time, bool) {
	if !IsDate(s) {
		return time.Time{}, false
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// ResolveDate picks the date a report is filed under: the declared date when
// it is a strict YYYY-MM-DD date, otherwise the first valid date embedded in
// the file name, otherwise UnknownDate.
func ResolveDate(declared, filename string) string {
	declared = strings.TrimSpace(declared)
	if IsDate(declared) {
		return declared
	}

	for _, candidate := range embeddedDatePattern.FindAllString(filepath.Base(filename), -1) {
		if IsDate(candidate) {
			return candidate
		}
	}

	return UnknownDate
}
