// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flamego/flamego"

	"github.com/humaidq/labtrend/db"
	"github.com/humaidq/labtrend/series"
)

type emptySource struct{}

func (emptySource) ListPatients(context.Context) ([]string, error) { return nil, nil }

func (emptySource) ListParameters(context.Context, string) ([]string, error) { return nil, nil }

func (emptySource) ListSeries(context.Context, string, string) ([]series.Point, error) {
	return nil, nil
}

func (emptySource) LatestRun(context.Context) (*db.RunSummary, error) { return nil, db.ErrNoRuns }

func TestConfigureEmptyNotFoundHandlerReturnsStatusOnly(t *testing.T) {
	t.Parallel()

	f := flamego.New()
	configureEmptyNotFoundHandler(f)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty 404 body, got %q", rec.Body.String())
	}
}

func TestNewAppServesAPIAndMetrics(t *testing.T) {
	t.Parallel()

	f := newApp(emptySource{})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusOK, `"status":"ok"`},
		{"/api/patients", http.StatusOK, "[]"},
		{"/api/runs/latest", http.StatusNotFound, "no normalization runs"},
		{"/metrics", http.StatusOK, "go_goroutines"},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		f.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Fatalf("%s: expected status %d, got %d", tt.path, tt.status, rec.Code)
		}

		if !strings.Contains(rec.Body.String(), tt.body) {
			t.Fatalf("%s: expected body to contain %q, got %q", tt.path, tt.body, rec.Body.String())
		}
	}
}

func TestServeRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	app := newRootCommand(&strings.Builder{})
	if err := app.Run(t.Context(), []string{"labtrend", "serve"}); !errors.Is(err, errDatabaseURLRequired) {
		t.Fatalf("expected errDatabaseURLRequired, got %v", err)
	}
}
