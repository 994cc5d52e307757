// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInsights/cmd/insights/config"
	"github.com/AleutianAI/AleutianInsights/pkg/logging"
)

// --- Global Command Variables ---
var (
	serverURL   string
	strictMode  bool
	contextFile string

	// activeLogger lives for the duration of one command invocation;
	// PersistentPostRun closes its file handle.
	activeLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "insights",
		Short: "A cli for the Aleutian business-metrics assistant",
		Long: `Insights answers business questions from your analytics and
				payment data, with every number computed by a closed
				expression engine rather than a language model.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading the config: %v", err)
			}
			if serverURL == "" {
				serverURL = config.Global.Server.URL
			}
			activeLogger = setupLogging(config.Global.Logging)
			slog.SetDefault(activeLogger.Slog())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if activeLogger != nil {
				activeLogger.Close()
			}
		},
	}

	// --- Ask ---
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a business question against your connected data sources",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand, // Defined in cmd_ask.go
	}

	// --- Eval ---
	evalCmd = &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate a metric expression locally, without the server",
		Long: `Eval runs the expression engine in-process. Metric references
				(SOURCE:METRIC:FIELD) resolve against a context loaded from
				--context, a JSON file shaped source -> metric -> field -> value.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runEvalCommand, // Defined in cmd_eval.go
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check that the insights server is reachable",
		Run:   runHealthCommand, // Defined in cmd_ask.go
	}
)

// setupLogging builds the command logger from the logging section of
// the config file. Without a log dir the level is clamped to warn so
// stderr does not drown out command output; with one, the configured
// level applies and entries also land in insights_{date}.log there.
func setupLogging(cfg config.LoggingConfig) *logging.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Dir == "" && level < logging.LevelWarn {
		level = logging.LevelWarn
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Dir,
		Service: "insights",
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Insights server URL (defaults to the configured server.url)")

	evalCmd.Flags().BoolVar(&strictMode, "strict", false,
		"Fail on missing metrics instead of substituting zero")
	evalCmd.Flags().StringVar(&contextFile, "context", "",
		"Path to a JSON metric context file")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(healthCmd)
}
