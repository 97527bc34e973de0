/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/humaidq/labtrend/logging"
	"github.com/humaidq/labtrend/utils"
)

var logger = logging.Logger(logging.SourceEngine)

// Store persists a Mapping as a flat JSON object at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted mapping. A missing file yields an empty mapping.
// A file that cannot be decoded yields an empty mapping together with an
// error wrapping ErrMalformedStore; the mapping is usable either way.
func (s *Store) Load() (Mapping, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewMapping(nil), nil
	}

	if err != nil {
		return NewMapping(nil), fmt.Errorf("%w: %w", ErrMalformedStore, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Ignoring malformed identity store", "file", s.path, "error", err)

		return NewMapping(nil), fmt.Errorf("%w: %s: %w", ErrMalformedStore, s.path, err)
	}

	m := NewMapping(entries)
	logger.Debug("Loaded identity mapping", "file", s.path, "entries", m.Len())

	return m, nil
}

// Save writes m atomically.
func (s *Store) Save(m Mapping) error {
	data, err := json.MarshalIndent(m.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode identity mapping: %w", err)
	}

	if err := utils.WriteFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}

	return nil
}
