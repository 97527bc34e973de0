/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what normalization runs did. Each Metrics owns its
// registry.
type Metrics struct {
	registry *prometheus.Registry

	runs           prometheus.Counter
	reports        prometheus.Counter
	quarantined    prometheus.Counter
	renamed        prometheus.Counter
	promoted       prometheus.Counter
	oracleCalls    prometheus.Counter
	oracleFailures prometheus.Counter
	itemFailures   *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	points         prometheus.Gauge
	runDuration    prometheus.Histogram
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_runs_total",
			Help: "Normalization runs completed.",
		}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_reports_total",
			Help: "Report files normalized.",
		}),
		quarantined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_quarantined_parameters_total",
			Help: "Parameters rejected at ingestion.",
		}),
		renamed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_renamed_parameters_total",
			Help: "Parameters renamed to a canonical name.",
		}),
		promoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_promoted_intervals_total",
			Help: "Reference intervals promoted to numeric bounds.",
		}),
		oracleCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_oracle_calls_total",
			Help: "Name normalization oracle calls.",
		}),
		oracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrend_oracle_failures_total",
			Help: "Name normalization oracle calls that failed.",
		}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labtrend_item_failures_total",
			Help: "Recoverable failures by stage.",
		}, []string{"stage"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labtrend_identity_cache_entries",
			Help: "Entries in the identity mapping after the last run.",
		}),
		points: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labtrend_series_points",
			Help: "Time series points produced by the last run.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labtrend_run_duration_seconds",
			Help:    "Duration of normalization runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.runs, m.reports, m.quarantined, m.renamed, m.promoted,
		m.oracleCalls, m.oracleFailures, m.itemFailures,
		m.cacheEntries, m.points, m.runDuration,
	)

	return m
}

// Registry exposes the registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(res *Result) {
	m.runs.Inc()
	m.reports.Add(float64(res.Reports()))
	m.quarantined.Add(float64(res.Quarantined()))
	m.renamed.Add(float64(res.Renamed()))
	m.promoted.Add(float64(res.Promoted()))

	if res.Resolution.OracleCalled {
		m.oracleCalls.Inc()
	}

	if res.Resolution.OracleErr != nil {
		m.oracleFailures.Inc()
	}

	for _, item := range res.Errors {
		m.itemFailures.WithLabelValues(item.Stage).Inc()
	}

	m.cacheEntries.Set(float64(res.Resolution.Mapping.Len()))
	m.points.Set(float64(len(res.Points)))
	m.runDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
}

// WriteMetrics writes the metrics in the Prometheus text format to path,
// for node_exporter's textfile collector.
func (m *Metrics) WriteMetrics(path string) error {
	if path == "" {
		return errEmptyPath
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
