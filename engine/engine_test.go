// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/humaidq/labtrend/identity"
	"github.com/humaidq/labtrend/report"
	"github.com/humaidq/labtrend/series"
)

var (
	errTestSink   = errors.New("sink unavailable")
	errTestOracle = errors.New("connection refused")
)

type countingOracle struct {
	reply map[string]string
	err   error
	calls int
	names []string
}

func (o *countingOracle) Normalize(ctx context.Context, names []string) (map[string]string, error) {
	o.calls++
	o.names = append([]string(nil), names...)

	return o.reply, o.err
}

type recordingSink struct {
	runs []RunRecord
	err  error
}

func (s *recordingSink) StoreRun(ctx context.Context, run RunRecord) error {
	s.runs = append(s.runs, run)

	return s.err
}

type workspace struct {
	in, out, cache string
}

func newWorkspace(t *testing.T, files map[string]string) workspace {
	t.Helper()

	root := t.TempDir()
	ws := workspace{
		in:    filepath.Join(root, "report_extracts"),
		out:   filepath.Join(root, "renamed_report_extracts"),
		cache: filepath.Join(root, "renamed_parameters.json"),
	}

	if err := os.MkdirAll(ws.in, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(ws.in, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	return ws
}

func (ws workspace) engine(oracle identity.Oracle, opts ...Option) *Engine {
	cfg := Config{InputDir: ws.in, OutputDir: ws.out, Workers: 2}

	return New(cfg, identity.NewStore(ws.cache), oracle, opts...)
}

const (
	hbReport = `{"patient_name": "Jane Doe", "report_date": "2023-01-01", "parameters": [
		{"name": "Hb", "result": "13.5", "unit": "g/dL", "reference_interval": {"normal": null, "medium": null, "high": null, "veryhigh": null, "other": "13.0 - 17.0"}}
	]}`
	hemoglobinReport = `{"patient_name": "Jane Doe", "report_date": "unknown_date", "parameters": [
		{"name": "Hemoglobin", "result": "14.0", "unit": "g/dL", "reference_interval": {"lower": 13, "upper": 17}}
	]}`
)

func TestRunJoinsRenamedParametersIntoOneSeries(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{
		"jan.json":            hbReport,
		"lab_2023-02-01.json": hemoglobinReport,
		"notes.txt":           "not a report",
	})
	oracle := &countingOracle{reply: map[string]string{"Hb": "Hemoglobin", "Hemoglobin": "Hemoglobin"}}

	res, err := ws.engine(oracle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if oracle.calls != 1 || !reflect.DeepEqual(oracle.names, []string{"Hb", "Hemoglobin"}) {
		t.Fatalf("expected one oracle call with both names, got %d %v", oracle.calls, oracle.names)
	}

	if res.Reports() != 2 || res.Renamed() != 1 || res.Promoted() != 1 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: reports=%d renamed=%d promoted=%d errors=%v", res.Reports(), res.Renamed(), res.Promoted(), res.Errors)
	}

	groups := series.Group(res.Points)
	if len(groups) != 1 || groups[0].Parameter != "Hemoglobin" {
		t.Fatalf("expected one Hemoglobin series, got %+v", groups)
	}

	numeric := groups[0].Numeric(false)
	if len(numeric) != 2 || numeric[0].Value != 13.5 || numeric[1].Value != 14.0 {
		t.Fatalf("unexpected numeric series %+v", numeric)
	}

	if numeric[1].Point.Date != "2023-02-01" {
		t.Fatalf("expected date from the file name, got %q", numeric[1].Point.Date)
	}

	data, err := os.ReadFile(filepath.Join(ws.out, "jan.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	written, _, err := report.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if written.Parameters[0].Name != "Hemoglobin" || !written.Parameters[0].ReferenceInterval.IsSimple() {
		t.Fatalf("unexpected written report %+v", written)
	}

	original, err := os.ReadFile(filepath.Join(ws.in, "jan.json"))
	if err != nil || string(original) != hbReport {
		t.Fatal("expected the input file to be left untouched")
	}

	if _, err := os.Stat(filepath.Join(ws.out, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("expected non-report files to be ignored")
	}

	cache, err := identity.NewStore(ws.cache).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got, _ := cache.Lookup("Hb"); got != "Hemoglobin" {
		t.Fatalf("expected Hb to be cached, got %q", got)
	}
}

func TestRunTwiceCallsOracleOnce(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	oracle := &countingOracle{reply: map[string]string{"Hb": "Hemoglobin"}}

	first, err := ws.engine(oracle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	second, err := ws.engine(oracle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if oracle.calls != 1 {
		t.Fatalf("expected exactly one oracle call, got %d", oracle.calls)
	}

	if second.Resolution.OracleCalled || second.Resolution.Saved {
		t.Fatal("expected second run to use the cache only")
	}

	if !reflect.DeepEqual(first.Files[0].Report, second.Files[0].Report) {
		t.Fatal("expected identical output across runs")
	}
}

func TestRunOracleFailureKeepsRawNames(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	oracle := &countingOracle{err: errTestOracle}

	res, err := ws.engine(oracle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Files[0].Report.Parameters[0].Name != "Hb" {
		t.Fatal("expected raw name to be kept")
	}

	if len(res.Errors) != 1 || res.Errors[0].Stage != StageResolve {
		t.Fatalf("expected one resolve failure, got %v", res.Errors)
	}

	if _, err := os.Stat(ws.cache); !os.IsNotExist(err) {
		t.Fatal("expected no cache to be written after an oracle failure")
	}
}

func TestRunWritesMalformedReportsAsEmpty(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{
		"good.json":  hbReport,
		"bad.json":   "{not json",
		"array.json": "[]",
		"mixed.json": `{"patient_name": "A", "report_date": "2023-01-01", "parameters": [{"name": ""}, {"name": "TSH", "result": "2"}]}`,
	})

	res, err := ws.engine(&countingOracle{reply: map[string]string{}}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Reports() != 4 || res.Quarantined() != 1 {
		t.Fatalf("expected 4 reports and 1 quarantined parameter, got %d and %d", res.Reports(), res.Quarantined())
	}

	var failed []string
	for _, item := range res.Errors {
		failed = append(failed, item.File)
	}

	if !reflect.DeepEqual(failed, []string{"array.json", "bad.json", "mixed.json"}) {
		t.Fatalf("unexpected failures %v", failed)
	}

	for _, name := range []string{"array.json", "bad.json"} {
		data, err := os.ReadFile(filepath.Join(ws.out, name))
		if err != nil {
			t.Fatalf("expected %s to be written, got %v", name, err)
		}

		var written map[string]json.RawMessage
		if err := json.Unmarshal(data, &written); err != nil {
			t.Fatalf("expected %s to hold a report object, got %v", name, err)
		}

		if string(written["parameters"]) != "[]" {
			t.Fatalf("expected empty parameters in %s, got %s", name, written["parameters"])
		}
	}
}

func TestRunMalformedCacheIsRecoverable(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	if err := os.WriteFile(ws.cache, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := ws.engine(&countingOracle{reply: map[string]string{"Hb": "Hemoglobin"}}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], identity.ErrMalformedStore) {
		t.Fatalf("expected malformed store to be reported, got %v", res.Errors)
	}

	if !res.Resolution.Saved {
		t.Fatal("expected the rebuilt cache to be saved")
	}
}

func TestRunFatalErrors(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, nil)

	same := New(Config{InputDir: ws.in, OutputDir: ws.in + string(filepath.Separator)}, identity.NewStore(ws.cache), nil)

	_, err := same.Run(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageConfig || !errors.Is(err, errSameDirectory) {
		t.Fatalf("expected config error, got %v", err)
	}

	missing := New(Config{InputDir: filepath.Join(ws.in, "missing"), OutputDir: ws.out}, identity.NewStore(ws.cache), nil)

	_, err = missing.Run(context.Background())
	if !errors.As(err, &stageErr) || stageErr.Stage != StageRead {
		t.Fatalf("expected read error, got %v", err)
	}

	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected the directory in the error, got %v", err)
	}
}

func TestRunCacheSaveFailureIsFatal(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	store := identity.NewStore(filepath.Join(ws.in, "missing", "renamed_parameters.json"))

	e := New(Config{InputDir: ws.in, OutputDir: ws.out}, store, &countingOracle{reply: map[string]string{"Hb": "Hemoglobin"}})

	_, err := e.Run(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageCache || !errors.Is(err, identity.ErrSaveFailed) {
		t.Fatalf("expected cache save failure, got %v", err)
	}
}

func TestRunFeedsSinkAndExports(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	sink := &recordingSink{}
	metrics := NewMetrics()
	seriesFile := filepath.Join(filepath.Dir(ws.cache), "series.json")
	metricsFile := filepath.Join(filepath.Dir(ws.cache), "labtrend.prom")

	cfg := Config{InputDir: ws.in, OutputDir: ws.out, SeriesFile: seriesFile}
	e := New(cfg, identity.NewStore(ws.cache), &countingOracle{reply: map[string]string{"Hb": "Hemoglobin"}}, WithSeriesSink(sink), WithMetrics(metrics))

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.runs) != 1 || sink.runs[0].ID != res.RunID || len(sink.runs[0].Points) != 1 || !sink.runs[0].OracleCalled {
		t.Fatalf("unexpected sink records %+v", sink.runs)
	}

	data, err := os.ReadFile(seriesFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var exported series.Export
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(exported.Series) != 1 || exported.Series[0].Parameter != "Hemoglobin" || exported.Series[0].Points[0].Result != "13.5" {
		t.Fatalf("unexpected export %+v", exported)
	}

	if patient := exported.Series[0].Patient; !reflect.DeepEqual(exported.Parameters[patient], []string{"Hemoglobin"}) {
		t.Fatalf("unexpected parameter index %v", exported.Parameters)
	}

	if err := metrics.WriteMetrics(metricsFile); err != nil {
		t.Fatalf("WriteMetrics failed: %v", err)
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	for _, line := range []string{"labtrend_reports_total 1", "labtrend_renamed_parameters_total 1", "labtrend_oracle_calls_total 1"} {
		if !strings.Contains(string(prom), line) {
			t.Fatalf("expected %q in metrics output:\n%s", line, prom)
		}
	}
}

func TestRunSinkFailureIsFatal(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"a.json": hbReport})
	e := ws.engine(&countingOracle{reply: map[string]string{}}, WithSeriesSink(&recordingSink{err: errTestSink}))

	_, err := e.Run(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageStore || !errors.Is(err, errTestSink) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, nil)
	oracle := &countingOracle{}

	res, err := ws.engine(oracle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Reports() != 0 || len(res.Points) != 0 || oracle.calls != 0 {
		t.Fatalf("expected an empty run, got %+v", res)
	}
}
