/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package identity

import "errors"

var (
	// ErrMalformedStore is returned by Load alongside an empty mapping when
	// the persisted mapping cannot be decoded.
	ErrMalformedStore = errors.New("malformed identity store")
	// ErrSaveFailed wraps a failure to persist a mapping that learned new
	// names during a run.
	ErrSaveFailed = errors.New("failed to save identity mapping")
)
