// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"os"
	"testing"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	if err := Init(t.Context(), ""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestOpenMigratorRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := OpenMigrator(""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := GetEmbeddedMigrations().ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
}

func TestSyncSchema(t *testing.T) {
	requireDatabase(t)

	if err := SyncSchema(t.Context()); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}
}

func TestInitSuccess(t *testing.T) {
	requireDatabase(t)

	baseURL := os.Getenv("DATABASE_URL")

	Close()

	if err := Init(t.Context(), baseURL); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if GetPool() == nil {
		t.Fatal("expected pool to be initialized")
	}

	Close()

	if GetPool() != nil {
		t.Fatal("expected pool to be cleared after Close")
	}

	if err := initTestPool(t.Context(), baseURL, testSchemaName); err != nil {
		t.Fatalf("failed to re-init pool: %v", err)
	}
}
