/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errPatientRequired   = errors.New("patient is required")
	errParameterRequired = errors.New("parameter is required")
	errListPatients      = errors.New("failed to list patients")
	errListParameters    = errors.New("failed to list parameters")
	errLoadSeries        = errors.New("failed to load series")
	errLoadLatestRun     = errors.New("failed to load latest run")
)
