/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import "errors"

var (
	errNotObject          = errors.New("report payload is not a JSON object")
	errParametersNotArray = errors.New("parameters is not a JSON array")
	errEmptyName          = errors.New("parameter name is empty")
	errNameNotString      = errors.New("parameter name is not a string")
	errMixedInterval      = errors.New("reference interval has both tiers and numeric bounds")
	errInvalidBound       = errors.New("reference interval bound is not a number")
	errInvalidTier        = errors.New("reference interval tier is not text")
	errInvalidScalar      = errors.New("value is neither text nor a number")
)
