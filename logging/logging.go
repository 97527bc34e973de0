/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceEngine     = "engine"
	SourceOracle     = "oracle"
	SourceDB         = "db"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
)

// Output formats accepted by Configure.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
	FormatText   = "text"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger

	mu      sync.Mutex
	sources []*log.Logger
)

// Init configures the base logger and stdlib log output.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(os.Stdout, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdlog.SetFlags(0)
		stdlog.SetOutput(derive(SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}).Writer())
	})
}

// Logger returns a logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return derive(source)
}

// StdLogger returns a stdlib logger that writes through a source logger.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return derive(source).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}

// Configure sets the level and output format of the base logger and every
// source logger handed out so far. Empty values keep debug and logfmt.
func Configure(level, format string) error {
	Init()

	lvl := log.DebugLevel

	if level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLevel, level)
		}

		lvl = parsed
	}

	var formatter log.Formatter

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatLogfmt:
		formatter = log.LogfmtFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	case FormatText:
		formatter = log.TextFormatter
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	mu.Lock()
	defer mu.Unlock()

	for _, l := range append([]*log.Logger{baseLogger}, sources...) {
		l.SetLevel(lvl)
		l.SetFormatter(formatter)
	}

	return nil
}

func derive(source string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := baseLogger.With("source", source)
	sources = append(sources, l)

	return l
}
