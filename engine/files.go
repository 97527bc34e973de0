/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/humaidq/labtrend/report"
	"github.com/humaidq/labtrend/utils"
)

// loaded is the outcome of reading one report file.
type loaded struct {
	name        string
	report      report.Report
	quarantined []report.Quarantined
	stage       string
	err         error
}

// listReports returns the names of the .json files in dir, sorted.
func listReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		names = append(names, entry.Name())
	}

	slices.Sort(names)

	return names, nil
}

// loadReports reads and decodes every file with at most workers in flight.
// A file that cannot be read or decoded is reported in its slot and does
// not stop the others.
func loadReports(ctx context.Context, dir string, names []string, workers int) ([]loaded, error) {
	out := make([]loaded, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out[i] = loadReport(dir, name)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func loadReport(dir, name string) loaded {
	result := loaded{name: name}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		result.stage = StageRead
		result.err = err

		return result
	}

	r, quarantined, err := report.Decode(data)
	if err != nil {
		// A payload that is not a report carries no data.
		result.stage = StageDecode
		result.err = err
		result.report = report.Report{
			ReportDate: report.ResolveDate("", name),
			Parameters: []report.Parameter{},
		}

		return result
	}

	r.ReportDate = report.ResolveDate(r.ReportDate, name)
	result.report = r
	result.quarantined = quarantined

	return result
}

// writeReports writes each report to dir under its file name. The first
// failure cancels the remaining writes.
func writeReports(ctx context.Context, dir string, files []FileResult, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := report.Encode(file.Report)
			if err != nil {
				return &StageError{Stage: StageWrite, File: file.Name, Err: err}
			}

			if err := utils.WriteFileAtomic(filepath.Join(dir, file.Name), data, 0o644); err != nil {
				return &StageError{Stage: StageWrite, File: file.Name, Err: err}
			}

			return nil
		})
	}

	return g.Wait()
}
