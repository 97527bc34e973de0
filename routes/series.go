/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flamego/flamego"

	"github.com/humaidq/labtrend/db"
	"github.com/humaidq/labtrend/logging"
	"github.com/humaidq/labtrend/oracle"
	"github.com/humaidq/labtrend/series"
)

var logger = logging.Logger(logging.SourceWeb)

// SeriesSource is the read side of the series store.
type SeriesSource interface {
	ListPatients(ctx context.Context) ([]string, error)
	ListParameters(ctx context.Context, patient string) ([]string, error)
	ListSeries(ctx context.Context, patient, parameter string) ([]series.Point, error)
	LatestRun(ctx context.Context) (*db.RunSummary, error)
}

var _ SeriesSource = db.SeriesStore{}

// SeriesResponse is the body of GET /api/series.
type SeriesResponse struct {
	Patient   string                `json:"patient_name"`
	Parameter string                `json:"parameter"`
	Points    []series.Point        `json:"points"`
	Numeric   []series.NumericPoint `json:"numeric"`
	Latest    *LatestMeasurement    `json:"latest,omitempty"`
}

// LatestMeasurement is the most recent dated point and where it falls
// against its reference interval.
type LatestMeasurement struct {
	Point  series.Point       `json:"point"`
	Status series.RangeStatus `json:"status"`
}

// Register mounts the API handlers on f.
func Register(f *flamego.Flame) {
	f.Get("/healthz", Healthz)
	f.Group("/api", func() {
		f.Get("/patients", ListPatients)
		f.Get("/parameters", ListParameters)
		f.Get("/series", GetSeries)
		f.Get("/runs/latest", LatestRun)
		f.Get("/catalog", ListCatalog)
	})
}

// Healthz reports that the server is up.
func Healthz(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPatients returns every patient with stored points.
func ListPatients(c flamego.Context, src SeriesSource) {
	patients, err := src.ListPatients(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list patients", "error", err)
		writeError(c, http.StatusInternalServerError, errListPatients)

		return
	}

	writeJSON(c, http.StatusOK, nonNil(patients))
}

// ListParameters returns the parameters measured for ?patient=.
func ListParameters(c flamego.Context, src SeriesSource) {
	patient := strings.TrimSpace(c.Query("patient"))
	if patient == "" {
		writeError(c, http.StatusBadRequest, errPatientRequired)
		return
	}

	parameters, err := src.ListParameters(c.Request().Context(), patient)
	if err != nil {
		logger.Error("Failed to list parameters", "patient", patient, "error", err)
		writeError(c, http.StatusInternalServerError, errListParameters)

		return
	}

	writeJSON(c, http.StatusOK, nonNil(parameters))
}

// GetSeries returns the points of ?patient= and ?parameter= together with
// the numeric view and the latest status. ?inclusive=true also treats
// ">=" and "<=" results as numbers.
func GetSeries(c flamego.Context, src SeriesSource) {
	patient := strings.TrimSpace(c.Query("patient"))
	if patient == "" {
		writeError(c, http.StatusBadRequest, errPatientRequired)
		return
	}

	parameter := strings.TrimSpace(c.Query("parameter"))
	if parameter == "" {
		writeError(c, http.StatusBadRequest, errParameterRequired)
		return
	}

	inclusive, _ := strconv.ParseBool(c.Query("inclusive"))

	points, err := src.ListSeries(c.Request().Context(), patient, parameter)
	if err != nil {
		logger.Error("Failed to load series", "patient", patient, "parameter", parameter, "error", err)
		writeError(c, http.StatusInternalServerError, errLoadSeries)

		return
	}

	s := series.Series{Patient: patient, Parameter: parameter, Points: nonNil(points)}

	resp := SeriesResponse{
		Patient:   patient,
		Parameter: parameter,
		Points:    s.Points,
		Numeric:   nonNil(s.Numeric(inclusive)),
	}

	if p, status, ok := s.LatestStatus(inclusive); ok {
		resp.Latest = &LatestMeasurement{Point: p, Status: status}
	}

	writeJSON(c, http.StatusOK, resp)
}

// ListCatalog returns the known lab tests grouped by category.
func ListCatalog(c flamego.Context) {
	writeJSON(c, http.StatusOK, oracle.CatalogByCategory())
}

// LatestRun returns the most recent normalization run.
func LatestRun(c flamego.Context, src SeriesSource) {
	run, err := src.LatestRun(c.Request().Context())
	if errors.Is(err, db.ErrNoRuns) {
		writeError(c, http.StatusNotFound, err)
		return
	}

	if err != nil {
		logger.Error("Failed to load latest run", "error", err)
		writeError(c, http.StatusInternalServerError, errLoadLatestRun)

		return
	}

	writeJSON(c, http.StatusOK, run)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
