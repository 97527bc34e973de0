/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labtrend/db"
	"github.com/humaidq/labtrend/engine"
	"github.com/humaidq/labtrend/identity"
	"github.com/humaidq/labtrend/oracle"
)

var CmdNormalize = newNormalizeCommand()

func newNormalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Normalize parameter names across extracted lab reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Value: "report_extracts",
				Usage: "directory of extracted report JSON files",
			},
			&cli.StringFlag{
				Name:  "output",
				Value: "renamed_report_extracts",
				Usage: "directory for normalized report copies",
			},
			&cli.StringFlag{
				Name:  "cache",
				Value: "renamed_parameters.json",
				Usage: "identity cache of raw to canonical parameter names",
			},
			&cli.StringFlag{
				Name:    "oracle",
				Value:   oracle.KindBuiltin,
				Sources: cli.EnvVars("LABTREND_ORACLE"),
				Usage:   "name normalization oracle (builtin, ollama, gemini)",
			},
			&cli.DurationFlag{
				Name:  "oracle-timeout",
				Value: 60 * time.Second,
				Usage: "deadline for the single oracle call of a run",
			},
			&cli.StringFlag{
				Name:    "ollama-url",
				Sources: cli.EnvVars("OLLAMA_URL"),
				Usage:   "base URL of an OpenAI-compatible Ollama server",
			},
			&cli.StringFlag{
				Name:    "ollama-model",
				Sources: cli.EnvVars("OLLAMA_MODEL"),
				Usage:   "Ollama model name",
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
				Usage:   "Gemini API key",
			},
			&cli.StringFlag{
				Name:    "gemini-model",
				Value:   oracle.DefaultGeminiModel,
				Sources: cli.EnvVars("GEMINI_MODEL"),
				Usage:   "Gemini model name",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: engine.DefaultWorkers,
				Usage: "parallel file reads and writes",
			},
			&cli.BoolFlag{
				Name:  "inclusive-bounds",
				Usage: "also parse >=, <=, ≥ and ≤ as one-sided bounds",
			},
			&cli.StringFlag{
				Name:  "series-file",
				Usage: "write the aggregated series to this JSON file",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write run metrics to this Prometheus textfile",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Sources: cli.EnvVars("DATABASE_URL"),
				Usage:   "PostgreSQL connection string for the series store (optional)",
			},
		},
		Action: normalize,
	}
}

func normalize(ctx context.Context, cmd *cli.Command) error {
	normalizer, err := oracle.New(ctx, cmd.String("oracle"), oracle.Config{
		OllamaURL:    cmd.String("ollama-url"),
		OllamaModel:  cmd.String("ollama-model"),
		GeminiAPIKey: cmd.String("gemini-api-key"),
		GeminiModel:  cmd.String("gemini-model"),
	})
	if err != nil {
		return fmt.Errorf("failed to configure oracle: %w", err)
	}

	metrics := engine.NewMetrics()
	opts := []engine.Option{engine.WithMetrics(metrics)}

	if databaseURL := cmd.String("database-url"); databaseURL != "" {
		appLogger.Info("Connecting to database...")

		if err := db.Init(ctx, databaseURL); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.SyncSchema(ctx); err != nil {
			return fmt.Errorf("failed to sync schema: %w", err)
		}

		opts = append(opts, engine.WithSeriesSink(db.NewSeriesStore()))
	}

	eng := engine.New(engine.Config{
		InputDir:        cmd.String("input"),
		OutputDir:       cmd.String("output"),
		Workers:         cmd.Int("workers"),
		OracleTimeout:   cmd.Duration("oracle-timeout"),
		InclusiveBounds: cmd.Bool("inclusive-bounds"),
		SeriesFile:      cmd.String("series-file"),
	}, identity.NewStore(cmd.String("cache")), normalizer, opts...)

	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := metrics.WriteMetrics(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	_, err = fmt.Fprintln(writer(cmd), summary(res))

	return err
}

func summary(res *engine.Result) string {
	return fmt.Sprintf("reports=%d renamed=%d quarantined=%d failures=%d oracle_called=%t",
		res.Reports(), res.Renamed(), res.Quarantined(), len(res.Errors), res.Resolution.OracleCalled)
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}
