/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labtrend/cmd"
	"github.com/humaidq/labtrend/logging"
)

func main() {
	app := &cli.Command{
		Name:  "labtrend",
		Usage: "Normalize lab report parameters and track them over time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "debug",
				Sources: cli.EnvVars("LABTREND_LOG_LEVEL"),
				Usage:   "minimum log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   logging.FormatLogfmt,
				Sources: cli.EnvVars("LABTREND_LOG_FORMAT"),
				Usage:   "log output format (logfmt, json, text)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, logging.Configure(c.String("log-level"), c.String("log-format"))
		},
		Commands: []*cli.Command{
			cmd.CmdNormalize,
			cmd.CmdServe,
			cmd.CmdMigrate,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
