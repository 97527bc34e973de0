/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"errors"
	"fmt"
)

// Run stages, used to label failures.
const (
	StageConfig  = "config"
	StageCache   = "cache"
	StageRead    = "read"
	StageDecode  = "decode"
	StageResolve = "resolve"
	StageWrite   = "write"
	StageStore   = "store"
	StageExport  = "export"
)

var (
	errSameDirectory = errors.New("input and output directories must differ")
	errEmptyPath     = errors.New("path is empty")
)

// StageError is a fatal run failure with the stage and file it happened in.
type StageError struct {
	Stage string
	File  string
	Err   error
}

func (e *StageError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ItemError is a recoverable failure. The run carries on without the item.
type ItemError struct {
	Stage     string
	File      string
	Parameter string
	Err       error
}

func (e ItemError) Error() string {
	switch {
	case e.File != "" && e.Parameter != "":
		return fmt.Sprintf("%s %s [%s]: %v", e.Stage, e.File, e.Parameter, e.Err)
	case e.File != "":
		return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}
