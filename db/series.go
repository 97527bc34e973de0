/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labtrend/engine"
	"github.com/humaidq/labtrend/report"
	"github.com/humaidq/labtrend/series"
)

// RunSummary is a stored normalization run without its points.
type RunSummary struct {
	ID           uuid.UUID `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Reports      int       `json:"reports"`
	Renamed      int       `json:"renamed"`
	Quarantined  int       `json:"quarantined"`
	Failures     int       `json:"failures"`
	OracleCalled bool      `json:"oracle_called"`
	OracleFailed bool      `json:"oracle_failed"`
	Points       int       `json:"points"`
}

// SeriesStore keeps the longitudinal series of the latest run in
// PostgreSQL. Every stored run replaces the previous point set.
type SeriesStore struct{}

var _ engine.SeriesSink = SeriesStore{}

// NewSeriesStore returns a store backed by the pool opened by Init.
func NewSeriesStore() SeriesStore {
	return SeriesStore{}
}

var seriesColumns = []string{
	"run_id", "position", "patient_name", "parameter", "report_date",
	"result", "unit", "reference_interval", "source_file",
}

// StoreRun records run and replaces the stored points with its points.
func (SeriesStore) StoreRun(ctx context.Context, run engine.RunRecord) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	rows := make([][]any, 0, len(run.Points))

	for i, p := range run.Points {
		interval, err := json.Marshal(p.ReferenceInterval)
		if err != nil {
			return fmt.Errorf("failed to encode reference interval for %s: %w", p.Parameter, err)
		}

		var date any
		if t, ok := p.Time(); ok {
			date = t
		}

		rows = append(rows, []any{
			run.ID, i, p.Patient, p.Parameter, date,
			p.Result, p.Unit, interval, p.Source,
		})
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back series transaction", "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO normalization_runs
			(id, started_at, finished_at, reports, renamed, quarantined, failures, oracle_called, oracle_failed, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Reports, run.Renamed, run.Quarantined,
		run.Failures, run.OracleCalled, run.OracleFailed, len(run.Points))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM series_points`); err != nil {
		return fmt.Errorf("failed to clear previous series: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"series_points"}, seriesColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy series points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit series: %w", err)
	}

	logger.Info("Stored series", "run", run.ID, "points", copied)

	return nil
}

// ListPatients returns the distinct patient names in the stored series.
func (SeriesStore) ListPatients(ctx context.Context) ([]string, error) {
	return listStrings(ctx, `SELECT DISTINCT patient_name FROM series_points ORDER BY patient_name`)
}

// ListParameters returns the distinct parameters measured for patient.
func (SeriesStore) ListParameters(ctx context.Context, patient string) ([]string, error) {
	return listStrings(ctx, `
		SELECT DISTINCT parameter FROM series_points
		WHERE patient_name = $1
		ORDER BY parameter
	`, patient)
}

// ListSeries returns the points of one (patient, parameter) pair in series
// order. An unknown pair yields no points.
func (SeriesStore) ListSeries(ctx context.Context, patient, parameter string) ([]series.Point, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT patient_name, parameter, report_date, result, unit, reference_interval, source_file
		FROM series_points
		WHERE patient_name = $1 AND parameter = $2
		ORDER BY position
	`, patient, parameter)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var points []series.Point

	for rows.Next() {
		var (
			p        series.Point
			date     *time.Time
			interval []byte
		)

		if err := rows.Scan(&p.Patient, &p.Parameter, &date, &p.Result, &p.Unit, &interval, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}

		p.Date = report.UnknownDate
		if date != nil {
			p.Date = date.Format(time.DateOnly)
		}

		if err := json.Unmarshal(interval, &p.ReferenceInterval); err != nil {
			return nil, fmt.Errorf("failed to decode reference interval for %s: %w", p.Parameter, err)
		}

		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series: %w", err)
	}

	series.Sort(points)

	return points, nil
}

// LatestRun returns the most recently finished run, or ErrNoRuns.
func (SeriesStore) LatestRun(ctx context.Context) (*RunSummary, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var run RunSummary

	err := pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, reports, renamed, quarantined, failures, oracle_called, oracle_failed, points
		FROM normalization_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Reports, &run.Renamed, &run.Quarantined,
		&run.Failures, &run.OracleCalled, &run.OracleFailed, &run.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	return &run, nil
}

func listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows: %w", err)
	}

	return values, nil
}
