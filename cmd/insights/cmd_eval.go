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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInsights/services/calc"
	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

// runEvalCommand evaluates an expression in-process. This is the fastest
// way to sanity-check an expression against a known metric context before
// wiring it into a pipeline.
func runEvalCommand(cmd *cobra.Command, args []string) {
	expression := strings.Join(args, " ")

	metricCtx, err := loadMetricContext(contextFile)
	if err != nil {
		printError("Error loading the metric context: %v", err)
		os.Exit(1)
	}

	opts := []calc.CalculatorOption{}
	if strictMode {
		opts = append(opts, calc.WithStrictMode())
	}
	calculator := calc.NewCalculator(metricCtx, opts...)

	value, err := calculator.Evaluate(context.Background(), expression)
	if err != nil {
		printError("Evaluation failed: %v", err)
		os.Exit(1)
	}

	fmt.Println(calc.FormatResult(value))
	printDim(calc.Explain(expression, value))
}

// loadMetricContext reads a JSON file shaped source -> metric -> field ->
// value. An empty path yields an empty context, which is fine in
// permissive mode (missing references resolve to zero).
func loadMetricContext(path string) (*calc.MetricContext, error) {
	if path == "" {
		return calc.NewMetricContext(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var values datatypes.MetricValues
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid context file %s: %w", path, err)
	}
	if err := values.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context file %s: %w", path, err)
	}
	return values.ToMetricContext(), nil
}
