// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "renamed_parameters.json"))

	m, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Len() != 0 {
		t.Fatalf("expected empty mapping, got %d entries", m.Len())
	}
}

func TestStoreLoadMalformedFile(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"{not json", `["Hb"]`, `{"Hb": 1}`} {
		path := filepath.Join(t.TempDir(), "renamed_parameters.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		m, err := NewStore(path).Load()
		if !errors.Is(err, ErrMalformedStore) {
			t.Fatalf("expected ErrMalformedStore for %q, got %v", content, err)
		}

		if m.Len() != 0 {
			t.Fatalf("expected empty mapping for %q", content)
		}
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "renamed_parameters.json"))
	m := Merge(NewMapping(nil), map[string]string{"Hb": "Hemoglobin", "SGPT": "ALT"})

	if err := store.Save(m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Entries(), m.Entries()) {
		t.Fatalf("expected %v, got %v", m.Entries(), loaded.Entries())
	}
}

func TestStoreSaveMissingDirectory(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "missing", "renamed_parameters.json"))

	if err := store.Save(NewMapping(map[string]string{"Hb": "Hemoglobin"})); err == nil {
		t.Fatal("expected save into a missing directory to fail")
	}
}
