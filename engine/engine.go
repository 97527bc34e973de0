/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labtrend/identity"
	"github.com/humaidq/labtrend/logging"
	"github.com/humaidq/labtrend/report"
	"github.com/humaidq/labtrend/series"
	"github.com/humaidq/labtrend/utils"
)

var logger = logging.Logger(logging.SourceEngine)

// DefaultWorkers bounds parallel file reads and writes when Config.Workers
// is not set.
const DefaultWorkers = 4

// Config describes one normalization run.
type Config struct {
	InputDir        string
	OutputDir       string
	Workers         int
	OracleTimeout   time.Duration
	InclusiveBounds bool
	// SeriesFile, when set, receives the aggregated series as JSON.
	SeriesFile string
}

// RunRecord is what a SeriesSink receives at the end of a run.
type RunRecord struct {
	ID           uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	Reports      int
	Renamed      int
	Quarantined  int
	Failures     int
	OracleCalled bool
	OracleFailed bool
	Points       []series.Point
}

// SeriesSink stores the points produced by a run.
type SeriesSink interface {
	StoreRun(ctx context.Context, run RunRecord) error
}

// FileResult is one normalized report file.
type FileResult struct {
	Name        string
	Report      report.Report
	Changes     report.Changes
	Quarantined []report.Quarantined
}

// Result describes a completed run.
type Result struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []FileResult
	Resolution identity.Resolution
	Points     []series.Point
	Errors     []ItemError
}

// Reports returns the number of reports normalized.
func (r *Result) Reports() int {
	return len(r.Files)
}

// Renamed returns the number of parameters renamed across all reports.
func (r *Result) Renamed() int {
	var n int
	for _, f := range r.Files {
		n += f.Changes.Renamed
	}

	return n
}

// Promoted returns the number of intervals promoted across all reports.
func (r *Result) Promoted() int {
	var n int
	for _, f := range r.Files {
		n += f.Changes.Promoted
	}

	return n
}

// Quarantined returns the number of parameters rejected at ingestion.
func (r *Result) Quarantined() int {
	var n int
	for _, f := range r.Files {
		n += len(f.Quarantined)
	}

	return n
}

// Engine runs normalization over a directory of extracted reports.
type Engine struct {
	cfg      Config
	store    *identity.Store
	resolver *identity.Resolver
	sink     SeriesSink
	metrics  *Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeriesSink stores every run's points in sink.
func WithSeriesSink(sink SeriesSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithMetrics records every run in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New returns an engine that keeps its identity mapping in store and asks
// oracle about names the mapping does not know.
func New(cfg Config, store *identity.Store, oracle identity.Oracle, opts ...Option) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		resolver: identity.NewResolver(store, oracle, cfg.OracleTimeout),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run normalizes every report in the input directory and writes the
// results to the output directory. Recoverable failures are collected in
// Result.Errors; the returned error is a *StageError for failures that stop
// the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New(), StartedAt: e.now().UTC()}
	runLogger := logger.With("run", res.RunID)

	if err := e.checkDirs(); err != nil {
		return nil, err
	}

	mapping, err := e.store.Load()
	if err != nil {
		res.Errors = append(res.Errors, ItemError{Stage: StageCache, File: e.store.Path(), Err: err})
	}

	names, err := listReports(e.cfg.InputDir)
	if err != nil {
		return nil, &StageError{Stage: StageRead, File: e.cfg.InputDir, Err: err}
	}

	runLogger.Info("Starting normalization", "input", e.cfg.InputDir, "output", e.cfg.OutputDir, "files", len(names), "cache_entries", mapping.Len())

	files, err := loadReports(ctx, e.cfg.InputDir, names, e.cfg.Workers)
	if err != nil {
		return nil, &StageError{Stage: StageRead, File: e.cfg.InputDir, Err: err}
	}

	var reports []report.Report

	for _, f := range files {
		if f.err != nil {
			res.Errors = append(res.Errors, ItemError{Stage: f.stage, File: f.name, Err: f.err})

			if f.stage == StageRead {
				runLogger.Warn("Skipping unreadable report", "file", f.name, "error", f.err)
				continue
			}

			runLogger.Warn("Malformed report treated as empty", "file", f.name, "error", f.err)
		}

		for _, q := range f.quarantined {
			runLogger.Warn("Quarantined parameter", "file", f.name, "parameter", q.Name, "index", q.Index, "error", q.Err)
			res.Errors = append(res.Errors, ItemError{Stage: StageDecode, File: f.name, Parameter: q.Name, Err: q})
		}

		reports = append(reports, f.report)
		res.Files = append(res.Files, FileResult{Name: f.name, Report: f.report, Quarantined: f.quarantined})
	}

	resolution, err := e.resolver.Resolve(ctx, report.Names(reports), mapping)
	if err != nil {
		return nil, &StageError{Stage: StageCache, File: e.store.Path(), Err: err}
	}

	res.Resolution = resolution

	if resolution.OracleErr != nil {
		res.Errors = append(res.Errors, ItemError{Stage: StageResolve, Err: resolution.OracleErr})
	}

	parser := report.IntervalParser{Inclusive: e.cfg.InclusiveBounds}
	sources := make([]string, len(res.Files))

	for i := range res.Files {
		f := &res.Files[i]
		f.Report, f.Changes = report.Normalize(f.Report, resolution.Names, parser)
		reports[i] = f.Report
		sources[i] = f.Name

		if f.Changes.Renamed > 0 {
			runLogger.Info("Renamed parameters", "file", f.Name, "count", f.Changes.Renamed)
		}
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return nil, &StageError{Stage: StageWrite, File: e.cfg.OutputDir, Err: err}
	}

	if err := writeReports(ctx, e.cfg.OutputDir, res.Files, e.cfg.Workers); err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			return nil, stageErr
		}

		return nil, &StageError{Stage: StageWrite, File: e.cfg.OutputDir, Err: err}
	}

	res.Points = series.Aggregate(reports, sources)
	res.FinishedAt = e.now().UTC()

	if e.sink != nil {
		if err := e.sink.StoreRun(ctx, res.record()); err != nil {
			return nil, &StageError{Stage: StageStore, Err: err}
		}
	}

	if e.cfg.SeriesFile != "" {
		if err := exportSeries(e.cfg.SeriesFile, res.Points); err != nil {
			return nil, &StageError{Stage: StageExport, File: e.cfg.SeriesFile, Err: err}
		}
	}

	if e.metrics != nil {
		e.metrics.observe(res)
	}

	runLogger.Info("Normalization complete",
		"reports", res.Reports(),
		"renamed", res.Renamed(),
		"promoted", res.Promoted(),
		"quarantined", res.Quarantined(),
		"failures", len(res.Errors),
		"oracle_called", resolution.OracleCalled,
		"learned", len(resolution.Learned),
		"points", len(res.Points),
	)

	return res, nil
}

func (e *Engine) checkDirs() error {
	if e.cfg.InputDir == "" || e.cfg.OutputDir == "" {
		return &StageError{Stage: StageConfig, Err: errEmptyPath}
	}

	in, err := filepath.Abs(e.cfg.InputDir)
	if err != nil {
		return &StageError{Stage: StageConfig, File: e.cfg.InputDir, Err: err}
	}

	out, err := filepath.Abs(e.cfg.OutputDir)
	if err != nil {
		return &StageError{Stage: StageConfig, File: e.cfg.OutputDir, Err: err}
	}

	if in == out {
		return &StageError{Stage: StageConfig, File: e.cfg.OutputDir, Err: errSameDirectory}
	}

	return nil
}

func (r *Result) record() RunRecord {
	return RunRecord{
		ID:           r.RunID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Reports:      r.Reports(),
		Renamed:      r.Renamed(),
		Quarantined:  r.Quarantined(),
		Failures:     len(r.Errors),
		OracleCalled: r.Resolution.OracleCalled,
		OracleFailed: r.Resolution.OracleErr != nil,
		Points:       r.Points,
	}
}

func exportSeries(path string, points []series.Point) error {
	data, err := json.MarshalIndent(series.NewExport(points), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode series: %w", err)
	}

	return utils.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
